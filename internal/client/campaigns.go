package client

import (
	"context"

	"greendrake/blast/internal/models"
)

// PackagesAPI covers packages and durations.
type PackagesAPI struct{ c *Client }

func (a *PackagesAPI) List(ctx context.Context) ([]models.Package, error) {
	var out []models.Package
	err := a.c.get(ctx, "/packages", nil, &out)
	return out, err
}

func (a *PackagesAPI) Durations(ctx context.Context) ([]models.CampaignDuration, error) {
	var out []models.CampaignDuration
	err := a.c.get(ctx, "/campaign_durations", nil, &out)
	return out, err
}

// CampaignsAPI creates campaigns.
type CampaignsAPI struct{ c *Client }

func (a *CampaignsAPI) Create(ctx context.Context, req models.CreateCampaignRequest, opts ...RequestOption) (*models.CreateCampaignResponse, error) {
	var out models.CreateCampaignResponse
	if err := a.c.post(ctx, "/campaigns/create", req, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckoutAPI processes payments.
type CheckoutAPI struct{ c *Client }

func (a *CheckoutAPI) Process(ctx context.Context, req models.CheckoutRequest, opts ...RequestOption) (*models.CheckoutResponse, error) {
	var out models.CheckoutResponse
	if err := a.c.post(ctx, "/checkout/process", req, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}
