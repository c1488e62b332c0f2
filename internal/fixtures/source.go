package fixtures

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"greendrake/blast/internal/storage"
)

// Sources lists the places fixtures may come from. The first configured
// source wins: Mongo, then object storage, then a local file, then the
// dataset embedded in the binary.
type Sources struct {
	Mongo     *mongo.Database
	Objects   storage.IObjectStorage
	ObjectKey string
	Path      string
}

// Open loads the dataset from the first configured source and indexes it.
// It returns the name of the source used.
func Open(ctx context.Context, src Sources) (*Store, string, error) {
	var (
		ds     *Dataset
		err    error
		origin string
	)
	switch {
	case src.Mongo != nil:
		origin = "mongo:" + src.Mongo.Name()
		ds, err = LoadMongo(ctx, src.Mongo)
	case src.Objects != nil:
		origin = "object:" + src.ObjectKey
		ds, err = LoadObject(ctx, src.Objects, src.ObjectKey)
	case src.Path != "":
		origin = "file:" + src.Path
		ds, err = LoadFile(src.Path)
	default:
		origin = "embedded"
		ds, err = Embedded()
	}
	if err != nil {
		return nil, origin, err
	}

	store, err := New(ds)
	if err != nil {
		return nil, origin, err
	}
	return store, origin, nil
}
