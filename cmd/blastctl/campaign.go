package main

import (
	"github.com/spf13/cobra"

	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/wizard"
)

func idempotencyOpts(key string) []client.RequestOption {
	if key == "" {
		return nil
	}
	return []client.RequestOption{client.WithIdempotencyKey(key)}
}

func (a *app) campaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage campaigns",
	}

	var req models.CreateCampaignRequest
	var packageType, paymentMode, key string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a pending campaign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.PackageType = models.PackageType(packageType)
			req.TargetType = req.PackageType
			req.PaymentMode = models.PaymentMode(paymentMode)
			resp, err := a.client.Campaigns.Create(cmd.Context(), req, idempotencyOpts(key)...)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	create.Flags().StringVar(&packageType, "package", string(models.PackageTypeZipcode), "package type: zipcode or listing")
	create.Flags().StringVar(&req.TargetValue, "target", "", "zip code or listing id to advertise")
	create.Flags().StringVar(&req.Duration, "duration", "4weeks", "campaign duration id")
	create.Flags().StringVar(&paymentMode, "payment", string(models.PaymentModeOneTime), "payment mode: onetime or recurring")
	create.Flags().StringVar(&req.UserID, "user", "", "owner user id")
	create.Flags().StringVar(&key, "idempotency-key", "", "reuse to make retries safe")
	_ = create.MarkFlagRequired("target")

	cmd.AddCommand(create)
	return cmd
}

func (a *app) checkoutCmd() *cobra.Command {
	in := wizard.DefaultCheckoutInput("")
	var key string
	cmd := &cobra.Command{
		Use:   "checkout <campaign-id>",
		Short: "Pay for a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Checkout.Process(cmd.Context(), models.CheckoutRequest{
				CampaignID:     args[0],
				PersonalInfo:   in.PersonalInfo,
				PaymentInfo:    in.PaymentInfo,
				BillingAddress: in.BillingAddress,
				TermsAccepted:  in.TermsAccepted,
			}, idempotencyOpts(key)...)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.PersonalInfo.FirstName, "first-name", in.PersonalInfo.FirstName, "buyer first name")
	f.StringVar(&in.PersonalInfo.LastName, "last-name", in.PersonalInfo.LastName, "buyer last name")
	f.StringVar(&in.PersonalInfo.Email, "email", in.PersonalInfo.Email, "confirmation email address")
	f.StringVar(&in.PaymentInfo.PaymentMethod, "payment-method", in.PaymentInfo.PaymentMethod, "payment method")
	f.StringVar(&in.PaymentInfo.AccountHolderName, "account-holder", in.PaymentInfo.AccountHolderName, "account holder name")
	f.StringVar(&in.BillingAddress.CountryRegion, "country", in.BillingAddress.CountryRegion, "billing country or region")
	f.StringVar(&in.BillingAddress.Address, "address", in.BillingAddress.Address, "billing address")
	f.BoolVar(&in.TermsAccepted, "accept-terms", in.TermsAccepted, "accept the terms and conditions")
	f.StringVar(&key, "idempotency-key", "", "reuse to make retries safe")
	return cmd
}
