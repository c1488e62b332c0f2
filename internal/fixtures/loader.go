package fixtures

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"greendrake/blast/internal/db"
	"greendrake/blast/internal/storage"
)

// Collection names, shared by the JSON document and the MongoDB source.
const (
	CollectionMLSProviders      = "mls_providers"
	CollectionAgents            = "agents"
	CollectionListings          = "listings"
	CollectionZipcodes          = "zipcodes"
	CollectionPackages          = "packages"
	CollectionCampaignDurations = "campaign_durations"
)

// LoadFile reads and validates a fixture document from disk.
func LoadFile(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file %s: %w", path, err)
	}
	return Parse(raw)
}

// LoadObject reads and validates a fixture document from object storage.
func LoadObject(ctx context.Context, objects storage.IObjectStorage, key string) (*Dataset, error) {
	raw, err := objects.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures object: %w", err)
	}
	return Parse(raw)
}

// LoadMongo reads every fixture collection from database concurrently.
func LoadMongo(ctx context.Context, database *mongo.Database) (*Dataset, error) {
	ds := &Dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return readAll(gctx, database, CollectionMLSProviders, &ds.MLSProviders) })
	g.Go(func() error { return readAll(gctx, database, CollectionAgents, &ds.Agents) })
	g.Go(func() error { return readAll(gctx, database, CollectionListings, &ds.Listings) })
	g.Go(func() error { return readAll(gctx, database, CollectionZipcodes, &ds.Zipcodes) })
	g.Go(func() error { return readAll(gctx, database, CollectionPackages, &ds.Packages) })
	g.Go(func() error { return readAll(gctx, database, CollectionCampaignDurations, &ds.CampaignDurations) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func readAll[T any](ctx context.Context, database *mongo.Database, name string, out *[]T) error {
	cursor, err := database.Collection(name).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	*out = items
	return nil
}

// SeedMongo writes ds into database. Documents already present (same _id)
// are left untouched, so seeding is safe to repeat.
func SeedMongo(ctx context.Context, database *mongo.Database, ds *Dataset) error {
	batches := map[string][]interface{}{}
	add := func(name string, i int, id string, v interface{}) error {
		doc, err := document(i, id, v)
		if err != nil {
			return fmt.Errorf("failed to encode %s/%s: %w", name, id, err)
		}
		batches[name] = append(batches[name], doc)
		return nil
	}
	for i, p := range ds.MLSProviders {
		if err := add(CollectionMLSProviders, i, p.ID, p); err != nil {
			return err
		}
	}
	for i, a := range ds.Agents {
		if err := add(CollectionAgents, i, a.ID, a); err != nil {
			return err
		}
	}
	for i, l := range ds.Listings {
		if err := add(CollectionListings, i, l.ID, l); err != nil {
			return err
		}
	}
	for i, z := range ds.Zipcodes {
		if err := add(CollectionZipcodes, i, z.Code, z); err != nil {
			return err
		}
	}
	for i, p := range ds.Packages {
		if err := add(CollectionPackages, i, p.ID, p); err != nil {
			return err
		}
	}
	for i, d := range ds.CampaignDurations {
		if err := add(CollectionCampaignDurations, i, d.ID, d); err != nil {
			return err
		}
	}

	for name, docs := range batches {
		_, err := database.Collection(name).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err != nil && !db.OnlyDuplicateKeyErrors(err) {
			return fmt.Errorf("failed to seed %s: %w", name, err)
		}
		slog.Info("seeded fixture collection", "collection", name, "documents", len(docs))
	}
	return nil
}

// document stores v under its natural id, with seq preserving fixture order.
func document(seq int, id string, v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc["_id"] = id
	doc["seq"] = seq
	return doc, nil
}
