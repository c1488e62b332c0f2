package fixtures

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"greendrake/blast/internal/models"
)

//go:embed db.json
var embeddedDB []byte

//go:embed schema.json
var schemaDoc string

const schemaURL = "https://blast.schemas.local/fixtures/db.schema.json"

// ErrInvalidDataset is returned when a fixture document fails schema or
// consistency checks.
var ErrInvalidDataset = errors.New("invalid fixture dataset")

// Dataset is the raw content of a fixture document.
type Dataset struct {
	MLSProviders      []models.MLSProvider      `json:"mls_providers"`
	Agents            []models.Agent            `json:"agents"`
	Listings          []models.Listing          `json:"listings"`
	Zipcodes          []models.Zipcode          `json:"zipcodes"`
	Packages          []models.Package          `json:"packages"`
	CampaignDurations []models.CampaignDuration `json:"campaign_durations"`
}

var compiledSchema *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaDoc))); err != nil {
		panic(fmt.Sprintf("fixture schema load failed: %v", err))
	}
	compiledSchema = c.MustCompile(schemaURL)
}

// Parse validates raw JSON against the fixture schema and decodes it.
func Parse(raw []byte) (*Dataset, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return &ds, nil
}

// Embedded returns the dataset compiled into the binary.
func Embedded() (*Dataset, error) {
	return Parse(embeddedDB)
}
