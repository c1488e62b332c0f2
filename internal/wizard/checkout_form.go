package wizard

import (
	"context"

	"greendrake/blast/internal/asyncstate"
	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
)

const MsgAcceptTerms = "Please accept the terms and conditions"

type CheckoutInput struct {
	CampaignID     string                `json:"campaignId" validate:"required"`
	PersonalInfo   models.PersonalInfo   `json:"personalInfo"`
	PaymentInfo    models.PaymentInfo    `json:"paymentInfo"`
	BillingAddress models.BillingAddress `json:"billingAddress"`
	TermsAccepted  bool                  `json:"termsAccepted" validate:"eq=true"`
}

// DefaultCheckoutInput is the profile the checkout step starts from.
func DefaultCheckoutInput(campaignID string) CheckoutInput {
	return CheckoutInput{
		CampaignID: campaignID,
		PersonalInfo: models.PersonalInfo{
			FirstName: "Alexander",
			LastName:  "Alexander",
			Email:     "Alexander@lofty.com",
		},
		PaymentInfo: models.PaymentInfo{
			PaymentMethod:     "Credit & Debit Cards",
			AccountHolderName: "Danny Gray",
		},
		BillingAddress: models.BillingAddress{
			CountryRegion: "United States",
			Address:       "John Doe, 456 Elm Street, Suite 3, Los Angeles, CA 90001, USA",
		},
		TermsAccepted: true,
	}
}

// CheckoutForm pays for the campaign created on the previous step.
type CheckoutForm struct {
	Input CheckoutInput

	// Summary of the order, taken from the form data.
	FinalAmount float64
	Taxes       float64
	TotalCost   float64
	PaymentMode models.PaymentMode

	// Keys supplies the Idempotency-Key of each payment attempt.
	Keys *RequestKeys

	process *asyncstate.Action[models.CheckoutRequest, *models.CheckoutResponse]
}

func NewCheckoutForm(c *client.Client, data FormData) *CheckoutForm {
	f := &CheckoutForm{
		Input:       DefaultCheckoutInput(data.CampaignID),
		FinalAmount: data.FinalAmount,
		Taxes:       data.Taxes,
		TotalCost:   data.TotalCost,
		PaymentMode: data.PaymentMode,
		Keys:        NewRequestKeys(),
	}
	f.process = asyncstate.NewAction(func(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
		return c.Checkout.Process(ctx, req, client.WithIdempotencyKey(f.Keys.For(req)))
	})
	return f
}

// Validate reports field errors without contacting the server.
func (f *CheckoutForm) Validate() error {
	return checkForm(f.Input, map[string]string{
		"campaignId":         "Please create a campaign first",
		"termsAccepted":      MsgAcceptTerms,
		"personalInfo.email": "Please enter a valid email address",
	})
}

// Submit processes the payment and returns the step's contribution to the
// form data.
func (f *CheckoutForm) Submit(ctx context.Context) (Patch, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	resp, ok := f.process.Execute(ctx, models.CheckoutRequest{
		CampaignID:     f.Input.CampaignID,
		PersonalInfo:   f.Input.PersonalInfo,
		PaymentInfo:    f.Input.PaymentInfo,
		BillingAddress: f.Input.BillingAddress,
		TermsAccepted:  f.Input.TermsAccepted,
	})
	if !ok {
		return nil, stateError(f.process.State())
	}
	return Patch{
		"orderId":           resp.OrderID,
		"confirmationEmail": resp.ConfirmationEmail,
		"campaignStatus":    resp.CampaignStatus,
	}, nil
}
