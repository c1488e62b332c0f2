package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"greendrake/blast/internal/metrics"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/store"
	"greendrake/blast/internal/tasks"
)

// ICheckoutService simulates payment for a campaign.
type ICheckoutService interface {
	ProcessCheckout(ctx context.Context, req models.CheckoutRequest) (models.Order, models.CampaignStatus, error)
}

type checkoutService struct {
	campaigns  store.CampaignStore
	dispatcher tasks.Dispatcher
	now        func() time.Time
	newID      func() string
}

func NewCheckoutService(campaigns store.CampaignStore, dispatcher tasks.Dispatcher) ICheckoutService {
	return &checkoutService{
		campaigns:  campaigns,
		dispatcher: dispatcher,
		now:        time.Now,
		newID:      func() string { return "order_" + uuid.NewString() },
	}
}

// ProcessCheckout always succeeds once terms are accepted. A campaign known to
// the session store is activated and its final amount becomes the order amount.
func (s *checkoutService) ProcessCheckout(ctx context.Context, req models.CheckoutRequest) (models.Order, models.CampaignStatus, error) {
	if !req.TermsAccepted {
		return models.Order{}, "", invalid(MsgTermsNotAccepted)
	}

	order := models.Order{
		ID:                s.newID(),
		CampaignID:        req.CampaignID,
		ConfirmationEmail: req.PersonalInfo.Email,
		CreatedAt:         s.now().UTC(),
	}

	campaign, err := s.campaigns.Get(ctx, req.CampaignID)
	switch {
	case err == nil:
		order.Amount = campaign.FinalAmount
		if err := s.campaigns.UpdateStatus(ctx, campaign.ID, models.CampaignStatusActive); err != nil {
			return models.Order{}, "", fmt.Errorf("failed to activate campaign %s: %w", campaign.ID, err)
		}
	case errors.Is(err, store.ErrNotFound):
		slog.DebugContext(ctx, "checkout for campaign outside the session store", "campaign_id", req.CampaignID)
	default:
		return models.Order{}, "", err
	}

	err = s.dispatcher.DispatchOrderConfirmation(ctx, tasks.OrderConfirmationPayload{
		OrderID:    order.ID,
		CampaignID: order.CampaignID,
		FirstName:  req.PersonalInfo.FirstName,
		Email:      order.ConfirmationEmail,
		Amount:     order.Amount,
	})
	if err != nil {
		// The order stands; only the receipt is lost.
		slog.WarnContext(ctx, "failed to dispatch order confirmation", "order_id", order.ID, "error", err)
	}

	metrics.OrdersProcessed.Inc()
	slog.InfoContext(ctx, "checkout processed", "order_id", order.ID, "campaign_id", order.CampaignID, "amount", order.Amount)
	return order, models.CampaignStatusActive, nil
}
