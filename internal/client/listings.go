package client

import (
	"context"
	"net/url"

	"greendrake/blast/internal/models"
)

// ListingsAPI covers listing lookups.
type ListingsAPI struct{ c *Client }

func (a *ListingsAPI) All(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	err := a.c.get(ctx, "/listings", nil, &out)
	return out, err
}

func (a *ListingsAPI) Search(ctx context.Context, f models.ListingFilter) (*models.ListingSearchResponse, error) {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.AgentID != "" {
		q.Set("agentId", f.AgentID)
	}
	if f.ZipCode != "" {
		q.Set("zipCode", f.ZipCode)
	}
	var out models.ListingSearchResponse
	if err := a.c.get(ctx, "/listings/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ListingsAPI) Get(ctx context.Context, id string) (*models.Listing, error) {
	var out models.Listing
	if err := a.c.get(ctx, "/listings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeoAPI covers zip code validation.
type GeoAPI struct{ c *Client }

// ValidateZipcode succeeds for unknown zip codes too; check Valid.
func (a *GeoAPI) ValidateZipcode(ctx context.Context, code string) (*models.ZipcodeValidationResponse, error) {
	var out models.ZipcodeValidationResponse
	if err := a.c.get(ctx, "/zipcodes/"+url.PathEscape(code)+"/validate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
