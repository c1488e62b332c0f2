package wizard

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"greendrake/blast/internal/asyncstate"
	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
)

const (
	MsgInvalidZipcode  = "Invalid zip code"
	MsgConfirmListing  = "Please confirm your listing"
	MsgChooseDuration  = "Please choose a campaign duration"
	defaultZipCode     = "53202"
	defaultDurationID  = "4weeks"
	defaultPackageType = models.PackageTypeZipcode
)

type PackageConfirmationInput struct {
	PackageType models.PackageType `json:"packageType" validate:"required,oneof=zipcode listing"`
	ZipCode     string             `json:"zipCode" validate:"required_if=PackageType zipcode"`
	ListingID   string             `json:"listingId" validate:"required_if=PackageType listing"`
	DurationID  string             `json:"durationId" validate:"required"`
	PaymentMode models.PaymentMode `json:"paymentMode" validate:"required,oneof=onetime recurring"`
}

// PackageConfirmationForm picks a package, its target and duration, then
// creates a pending campaign.
type PackageConfirmationForm struct {
	Input PackageConfirmationInput

	Packages  *asyncstate.Query[[]models.Package]
	Durations *asyncstate.Query[[]models.CampaignDuration]
	zipcode   *asyncstate.Action[string, *models.ZipcodeValidationResponse]
	listing   *asyncstate.Action[string, *models.Listing]
	create    *asyncstate.Action[models.CreateCampaignRequest, *models.CreateCampaignResponse]

	// Keys supplies the Idempotency-Key of each create. Replace it to share
	// keys with an earlier form for the same step.
	Keys *RequestKeys
}

func NewPackageConfirmationForm(c *client.Client, data FormData) *PackageConfirmationForm {
	f := &PackageConfirmationForm{
		Input: PackageConfirmationInput{
			PackageType: data.PackageType,
			ZipCode:     data.ZipCode,
			ListingID:   data.ListingID,
			DurationID:  data.DurationID,
			PaymentMode: data.PaymentMode,
		},
		Packages:  asyncstate.NewQuery(c.Packages.List),
		Durations: asyncstate.NewQuery(c.Packages.Durations),
		zipcode:   asyncstate.NewAction(c.Geo.ValidateZipcode),
		listing:   asyncstate.NewAction(c.Listings.Get),
		Keys:      NewRequestKeys(),
	}
	f.create = asyncstate.NewAction(func(ctx context.Context, req models.CreateCampaignRequest) (*models.CreateCampaignResponse, error) {
		return c.Campaigns.Create(ctx, req, client.WithIdempotencyKey(f.Keys.For(req)))
	})

	if f.Input.PackageType == "" {
		f.Input.PackageType = defaultPackageType
	}
	if f.Input.PackageType == models.PackageTypeZipcode && f.Input.ZipCode == "" {
		f.Input.ZipCode = defaultZipCode
	}
	if f.Input.DurationID == "" {
		f.Input.DurationID = defaultDurationID
	}
	if f.Input.PaymentMode == "" {
		f.Input.PaymentMode = models.PaymentModeOneTime
	}
	return f
}

// Load fetches packages and durations together and returns the first failure.
func (f *PackageConfirmationForm) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		if s := f.Packages.Refetch(ctx); s.Failed() {
			return stateError(s)
		}
		return nil
	})
	g.Go(func() error {
		if s := f.Durations.Refetch(ctx); s.Failed() {
			return stateError(s)
		}
		return nil
	})
	return g.Wait()
}

// SelectedPackage is the loaded package matching the chosen type.
func (f *PackageConfirmationForm) SelectedPackage() (models.Package, bool) {
	for _, p := range f.Packages.State().Data {
		if p.Type == f.Input.PackageType {
			return p, true
		}
	}
	return models.Package{}, false
}

// SelectedDuration is the loaded duration matching the chosen id.
func (f *PackageConfirmationForm) SelectedDuration() (models.CampaignDuration, bool) {
	for _, d := range f.Durations.State().Data {
		if d.ID == f.Input.DurationID {
			return d, true
		}
	}
	return models.CampaignDuration{}, false
}

// ValidateZipcode checks the entered zip code with the geo API. Surrounding
// whitespace is dropped from the input first.
func (f *PackageConfirmationForm) ValidateZipcode(ctx context.Context) (*models.Zipcode, error) {
	f.Input.ZipCode = strings.TrimSpace(f.Input.ZipCode)
	if f.Input.ZipCode == "" {
		return nil, fieldError("zipCode", MsgEnterCode)
	}
	resp, ok := f.zipcode.Execute(ctx, f.Input.ZipCode)
	if !ok {
		return nil, stateError(f.zipcode.State())
	}
	if !resp.Valid {
		return nil, fieldError("zipCode", MsgInvalidZipcode)
	}
	return resp.Zipcode, nil
}

// ConfirmListing looks up the chosen listing.
func (f *PackageConfirmationForm) ConfirmListing(ctx context.Context) (*models.Listing, error) {
	if f.Input.ListingID == "" {
		return nil, fieldError("listingId", MsgConfirmListing)
	}
	l, ok := f.listing.Execute(ctx, f.Input.ListingID)
	if !ok {
		return nil, stateError(f.listing.State())
	}
	return l, nil
}

func (f *PackageConfirmationForm) target() string {
	if f.Input.PackageType == models.PackageTypeListing {
		return f.Input.ListingID
	}
	return f.Input.ZipCode
}

// Submit validates the selection, creates the campaign and returns the
// step's contribution to the form data.
func (f *PackageConfirmationForm) Submit(ctx context.Context) (Patch, error) {
	if err := checkForm(f.Input, map[string]string{
		"zipCode":    MsgEnterCode,
		"listingId":  MsgConfirmListing,
		"durationId": MsgChooseDuration,
	}); err != nil {
		return nil, err
	}
	switch f.Input.PackageType {
	case models.PackageTypeZipcode:
		if _, err := f.ValidateZipcode(ctx); err != nil {
			return nil, err
		}
	case models.PackageTypeListing:
		if _, err := f.ConfirmListing(ctx); err != nil {
			return nil, err
		}
	}

	resp, ok := f.create.Execute(ctx, models.CreateCampaignRequest{
		PackageType: f.Input.PackageType,
		TargetType:  f.Input.PackageType,
		TargetValue: f.target(),
		Duration:    f.Input.DurationID,
		PaymentMode: f.Input.PaymentMode,
	})
	if !ok {
		return nil, stateError(f.create.State())
	}

	patch := Patch{
		"packageType":    f.Input.PackageType,
		"durationId":     f.Input.DurationID,
		"paymentMode":    f.Input.PaymentMode,
		"campaignId":     resp.Campaign.ID,
		"totalCost":      resp.Campaign.TotalCost,
		"taxes":          resp.Campaign.Taxes,
		"finalAmount":    resp.Campaign.FinalAmount,
		"estimatedViews": resp.EstimatedViews,
		"zipCode":        "",
		"listingId":      "",
	}
	if f.Input.PackageType == models.PackageTypeListing {
		patch["listingId"] = f.Input.ListingID
	} else {
		patch["zipCode"] = f.Input.ZipCode
	}
	return patch, nil
}
