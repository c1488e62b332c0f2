package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"greendrake/blast/internal/config"
	"greendrake/blast/internal/db"
	"greendrake/blast/internal/fixtures"
	"greendrake/blast/internal/metrics"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/store"
)

// Quote is the price breakdown of a campaign.
type Quote struct {
	TotalCost   float64
	Taxes       float64
	FinalAmount float64
}

// QuoteCost prices weeks of a package. Amounts are computed in whole cents,
// so in cents FinalAmount is exactly TotalCost plus Taxes. The float64 sum of
// the two may differ from FinalAmount in the last bit.
func QuoteCost(price float64, weeks int, taxRate float64) Quote {
	totalCents := int64(math.Round(price*100)) * int64(weeks)
	taxCents := int64(math.Round(float64(totalCents) * taxRate))
	return Quote{
		TotalCost:   centsToAmount(totalCents),
		Taxes:       centsToAmount(taxCents),
		FinalAmount: centsToAmount(totalCents + taxCents),
	}
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// ICampaignService creates campaigns from a package and a duration.
type ICampaignService interface {
	CreateCampaign(ctx context.Context, req models.CreateCampaignRequest) (models.Campaign, int, error)
	GetCampaign(ctx context.Context, id string) (models.Campaign, error)
}

type campaignService struct {
	fixtures      *fixtures.Store
	campaigns     store.CampaignStore
	taxRate       float64
	defaultUserID string
	now           func() time.Time
	newID         func() string
}

func NewCampaignService(cfg *config.Config, fx *fixtures.Store, campaigns store.CampaignStore) ICampaignService {
	return &campaignService{
		fixtures:      fx,
		campaigns:     campaigns,
		taxRate:       cfg.TaxRate,
		defaultUserID: cfg.DefaultUserID,
		now:           time.Now,
		newID:         func() string { return "campaign_" + uuid.NewString() },
	}
}

// CreateCampaign returns the stored campaign and the duration's estimated views.
func (s *campaignService) CreateCampaign(ctx context.Context, req models.CreateCampaignRequest) (models.Campaign, int, error) {
	pkg, pkgOK := s.fixtures.PackageByType(req.PackageType)
	duration, durOK := s.fixtures.DurationByID(req.Duration)
	if !pkgOK || !durOK {
		return models.Campaign{}, 0, invalid(MsgInvalidPackage)
	}
	if req.TargetType != pkg.Type {
		return models.Campaign{}, 0, invalid(MsgTargetTypeMismatch)
	}

	userID := req.UserID
	if userID == "" {
		userID = s.defaultUserID
	}
	quote := QuoteCost(pkg.Price, duration.Weeks, s.taxRate)

	var campaign models.Campaign
	operation := func() error {
		campaign = models.Campaign{
			ID:          s.newID(),
			UserID:      userID,
			PackageID:   pkg.ID,
			TargetType:  req.TargetType,
			TargetValue: req.TargetValue,
			Duration:    duration.ID,
			PaymentMode: req.PaymentMode,
			Status:      models.CampaignStatusPending,
			CreatedAt:   s.now().UTC(),
			TotalCost:   quote.TotalCost,
			Taxes:       quote.Taxes,
			FinalAmount: quote.FinalAmount,
		}
		return s.campaigns.Create(ctx, campaign)
	}
	if err := db.Try(operation); err != nil {
		return models.Campaign{}, 0, fmt.Errorf("failed to create campaign: %w", err)
	}

	metrics.CampaignsCreated.WithLabelValues(string(pkg.Type), string(req.PaymentMode)).Inc()
	slog.InfoContext(ctx, "campaign created",
		"campaign_id", campaign.ID,
		"package", pkg.ID,
		"duration", duration.ID,
		"final_amount", campaign.FinalAmount,
	)
	return campaign, duration.EstimatedViews, nil
}

func (s *campaignService) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	c, err := s.campaigns.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Campaign{}, notFound("Campaign not found")
	}
	return c, err
}
