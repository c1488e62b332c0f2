package wizard

import (
	"context"

	"greendrake/blast/internal/asyncstate"
	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
)

// AdVariant is one of the fixed ad creatives previewed before purchase.
type AdVariant struct {
	ID      int
	Title   string
	Address string
	Image   string
}

// AdVariants are the creatives every Blast campaign can run with.
var AdVariants = []AdVariant{
	{
		ID:      1,
		Title:   "Find Your Dream Home in Casa Grande, AZ! Exclusive Deals for Home Buyers - Act Now!",
		Address: "2972 Westheimer Rd. Santa Ana, Illinois 85486",
		Image:   "/api/placeholder/191/191",
	},
	{
		ID:      2,
		Title:   "NEW LISTING - NOW AVAILABLE! Be the first to check out your new dream home! 4 BD/ 2.5 BA, 3805 168th PL SE,Bothell, WA 98012.",
		Address: "123 Main Street, Apt 4B, Springfield, IL 62701, USA",
		Image:   "/api/placeholder/191/191",
	},
	{
		ID:      3,
		Title:   "Perfect Home in Bothell",
		Address: "2972 Westheimer Rd. Santa Ana, Illinois 85486",
		Image:   "/api/placeholder/191/191",
	},
}

const (
	PlatformMobile = "mobile"
	PlatformPC     = "pc"
)

type AdPreviewInput struct {
	Platform  string `json:"adPlatform" validate:"required,oneof=mobile pc"`
	VariantID int    `json:"adVariant" validate:"required,min=1,max=3"`
	ListingID string `json:"previewListingId"`
}

// AdPreviewForm shows the agent's listings inside the ad creatives.
type AdPreviewForm struct {
	Input AdPreviewInput

	Listings *asyncstate.Query[*models.ListingSearchResponse]
}

func NewAdPreviewForm(c *client.Client, data FormData) *AdPreviewForm {
	// Listings reference agents by record id.
	agentID := data.AgentRecordID
	if agentID == "" {
		agentID = data.AgentID
	}
	f := &AdPreviewForm{
		Input: AdPreviewInput{
			Platform:  data.AdPlatform,
			VariantID: data.AdVariant,
			ListingID: data.PreviewListingID,
		},
		Listings: asyncstate.NewQuery(func(ctx context.Context) (*models.ListingSearchResponse, error) {
			return c.Listings.Search(ctx, models.ListingFilter{AgentID: agentID})
		}),
	}
	if f.Input.Platform == "" {
		f.Input.Platform = PlatformMobile
	}
	return f
}

// Load fetches the agent's listings and preselects the first one.
func (f *AdPreviewForm) Load(ctx context.Context) asyncstate.State[*models.ListingSearchResponse] {
	s := f.Listings.Refetch(ctx)
	if s.Status == asyncstate.Success && f.Input.ListingID == "" && s.Data != nil && len(s.Data.Listings) > 0 {
		f.Input.ListingID = s.Data.Listings[0].ID
	}
	return s
}

// Variant returns the creative with id.
func (f *AdPreviewForm) Variant(id int) (AdVariant, bool) {
	for _, v := range AdVariants {
		if v.ID == id {
			return v, true
		}
	}
	return AdVariant{}, false
}

// Select picks the creative to run.
func (f *AdPreviewForm) Select(id int) error {
	if _, ok := f.Variant(id); !ok {
		return fieldError("adVariant", "Please choose one of the previews")
	}
	f.Input.VariantID = id
	return nil
}

func (f *AdPreviewForm) Submit(ctx context.Context) (Patch, error) {
	if err := checkForm(f.Input, map[string]string{
		"adVariant":  "Please choose one of the previews",
		"adPlatform": "Please choose mobile or pc",
	}); err != nil {
		return nil, err
	}
	return Patch{
		"adPlatform":       f.Input.Platform,
		"adVariant":        f.Input.VariantID,
		"previewListingId": f.Input.ListingID,
	}, nil
}
