package services

import (
	"strings"

	"greendrake/blast/internal/fixtures"
	"greendrake/blast/internal/models"
)

// ICatalogService serves the read-only reference data.
type ICatalogService interface {
	Providers() []models.MLSProvider
	Agents(mlsID, query string) []models.Agent
	Listings() []models.Listing
	Listing(id string) (models.Listing, error)
	SearchListings(filter models.ListingFilter) []models.Listing
	ValidateZipcode(code string) (models.Zipcode, bool)
	Packages() []models.Package
	Durations() []models.CampaignDuration
}

type catalogService struct {
	fixtures *fixtures.Store
}

func NewCatalogService(store *fixtures.Store) ICatalogService {
	return &catalogService{fixtures: store}
}

func (s *catalogService) Providers() []models.MLSProvider {
	return s.fixtures.Providers()
}

// Agents returns every agent when both filters are empty.
func (s *catalogService) Agents(mlsID, query string) []models.Agent {
	if mlsID == "" && strings.TrimSpace(query) == "" {
		return s.fixtures.Agents()
	}
	return s.fixtures.SearchAgents(mlsID, query)
}

func (s *catalogService) Listings() []models.Listing {
	return s.fixtures.Listings()
}

func (s *catalogService) Listing(id string) (models.Listing, error) {
	l, ok := s.fixtures.ListingByID(id)
	if !ok {
		return models.Listing{}, notFound(MsgListingNotFound)
	}
	return l, nil
}

func (s *catalogService) SearchListings(filter models.ListingFilter) []models.Listing {
	return s.fixtures.SearchListings(filter)
}

func (s *catalogService) ValidateZipcode(code string) (models.Zipcode, bool) {
	return s.fixtures.Zipcode(code)
}

func (s *catalogService) Packages() []models.Package {
	return s.fixtures.Packages()
}

func (s *catalogService) Durations() []models.CampaignDuration {
	return s.fixtures.Durations()
}
