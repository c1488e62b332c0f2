package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"greendrake/blast/internal/asyncstate"
	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/wizard"
)

func (a *app) wizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Buy a Blast campaign step by step",
		Long: "Walks through MLS verification, ad preview, package selection and checkout.\n" +
			"Answers are saved after every step so an interrupted run resumes where it stopped.\n" +
			"Type " + backCommand + " at any prompt to return to the previous step.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			return runWizard(cmd.Context(), a.client, wizard.NewBlastCoordinator(a.store), p)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "reset",
			Short: "Discard saved wizard answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				wizard.NewCoordinator(wizard.Steps, wizard.FormData{}, a.store).Reset()
				fmt.Fprintln(cmd.OutOrStdout(), "Wizard state cleared.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show saved wizard answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c := wizard.NewBlastCoordinator(a.store)
				fmt.Fprintf(cmd.OutOrStdout(), "Next step: %s (%.0f%%)\n", c.CurrentStepName(), c.Progress())
				return printJSON(cmd, c.Data())
			},
		},
	)
	return cmd
}

func runWizard(ctx context.Context, c *client.Client, coord *wizard.Coordinator[wizard.FormData], p *prompter) error {
	if d := coord.Data(); d.Done() {
		p.printf("Order %s is already placed. Run \"blastctl wizard reset\" to start over.\n", d.OrderID)
		return nil
	}

	// Forms are rebuilt on every attempt, so keys live here and a retried
	// submit is recognised by the server.
	keys := map[string]*wizard.RequestKeys{
		wizard.StepPackageConfirmation: wizard.NewRequestKeys(),
		wizard.StepCheckout:            wizard.NewRequestKeys(),
	}

	for {
		steps := coord.Steps()
		p.printf("\nStep %d of %d: %s (%.0f%%)\n", coord.CurrentStep()+1, len(steps), coord.CurrentStepName(), coord.Progress())

		var patch wizard.Patch
		var err error
		data := coord.Data()
		step := coord.CurrentStepName()
		switch step {
		case wizard.StepMLSVerification:
			patch, err = mlsStep(ctx, wizard.NewMLSVerificationForm(c, data), p)
		case wizard.StepAdsPreview:
			patch, err = adsStep(ctx, wizard.NewAdPreviewForm(c, data), p)
		case wizard.StepPackageConfirmation:
			f := wizard.NewPackageConfirmationForm(c, data)
			f.Keys = keys[step]
			patch, err = packageStep(ctx, f, p)
		case wizard.StepCheckout:
			f := wizard.NewCheckoutForm(c, data)
			f.Keys = keys[step]
			patch, err = checkoutStep(ctx, f, p)
		}

		switch {
		case errors.Is(err, errBack):
			if k := keys[step]; k != nil {
				k.Clear()
			}
			coord.Prev()
			continue
		case errors.Is(err, io.EOF):
			return errors.New("input ended before the wizard finished; run it again to resume")
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			p.printf("  ! %s\n", err)
			continue
		}

		if k := keys[step]; k != nil {
			k.Clear()
		}
		if err := coord.UpdateFormData(patch); err != nil {
			return err
		}
		if coord.IsLastStep() {
			d := coord.Data()
			p.printf("\nOrder %s placed. Campaign %s is %s; a confirmation goes to %s.\n",
				d.OrderID, d.CampaignID, d.CampaignStatus, d.ConfirmationEmail)
			return nil
		}
		coord.Next()
	}
}

func mlsStep(ctx context.Context, f *wizard.MLSVerificationForm, p *prompter) (wizard.Patch, error) {
	if s := f.Load(ctx); s.Status == asyncstate.Success {
		for _, pr := range s.Data {
			p.printf("  %-8s %s (%s)\n", pr.ID, pr.Name, pr.Region)
		}
	} else {
		p.printf("  ! could not load providers: %s\n", s.Err)
	}

	var err error
	if f.Input.MLSID, err = p.ask("MLS", f.Input.MLSID); err != nil {
		return nil, err
	}
	if f.Input.AgentID, err = p.ask("Agent ID", f.Input.AgentID); err != nil {
		return nil, err
	}
	method, err := p.ask("Verification method (phone/email)", string(f.Input.Method))
	if err != nil {
		return nil, err
	}
	f.Input.Method = models.VerificationMethod(method)

	send, err := p.confirm("Send a verification code", false)
	if err != nil {
		return nil, err
	}
	if send {
		resp, err := f.SendCode(ctx)
		if err != nil {
			return nil, err
		}
		p.printf("  %s\n", resp.Message)
		if resp.Code != "" {
			p.printf("  (development code: %s)\n", resp.Code)
		}
		for !f.CodeVerified() {
			code, err := p.ask("Code", "")
			if err != nil {
				return nil, err
			}
			if err := f.VerifyCode(ctx, code); err != nil {
				p.printf("  ! %s\n", err)
			}
		}
	}
	return f.Submit(ctx)
}

func adsStep(ctx context.Context, f *wizard.AdPreviewForm, p *prompter) (wizard.Patch, error) {
	s := f.Load(ctx)
	if s.Status == asyncstate.Success {
		p.printf("  %d listing(s) available for the preview\n", s.Data.Total)
	} else {
		p.printf("  ! could not load listings: %s\n", s.Err)
	}
	for _, v := range wizard.AdVariants {
		p.printf("  %d) %s\n     %s\n", v.ID, v.Title, v.Address)
	}

	var err error
	if f.Input.Platform, err = p.ask("Preview on (mobile/pc)", f.Input.Platform); err != nil {
		return nil, err
	}
	def := ""
	if f.Input.VariantID > 0 {
		def = strconv.Itoa(f.Input.VariantID)
	}
	choice, err := p.ask("Ad", def)
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(choice)
	if err != nil {
		return nil, fmt.Errorf("%q is not an ad number", choice)
	}
	if err := f.Select(id); err != nil {
		return nil, err
	}
	return f.Submit(ctx)
}

func packageStep(ctx context.Context, f *wizard.PackageConfirmationForm, p *prompter) (wizard.Patch, error) {
	if err := f.Load(ctx); err != nil {
		return nil, fmt.Errorf("error loading packages: %w", err)
	}
	for _, pkg := range f.Packages.State().Data {
		p.printf("  %-8s $%.0f %s - %s\n", pkg.Type, pkg.Price, pkg.Period, pkg.Name)
	}
	for _, d := range f.Durations.State().Data {
		p.printf("  %-8s %s (~%d views)\n", d.ID, d.Label, d.EstimatedViews)
	}

	kind, err := p.ask("Package (zipcode/listing)", string(f.Input.PackageType))
	if err != nil {
		return nil, err
	}
	f.Input.PackageType = models.PackageType(kind)
	if f.Input.PackageType == models.PackageTypeListing {
		if f.Input.ListingID, err = p.ask("Listing ID", f.Input.ListingID); err != nil {
			return nil, err
		}
	} else {
		if f.Input.ZipCode, err = p.ask("Zip code", f.Input.ZipCode); err != nil {
			return nil, err
		}
	}
	if f.Input.DurationID, err = p.ask("Duration", f.Input.DurationID); err != nil {
		return nil, err
	}
	mode, err := p.ask("Payment (onetime/recurring)", string(f.Input.PaymentMode))
	if err != nil {
		return nil, err
	}
	f.Input.PaymentMode = models.PaymentMode(mode)

	patch, err := f.Submit(ctx)
	if err != nil {
		return nil, err
	}
	p.printf("  Campaign %v: $%.2f + $%.2f tax = $%.2f\n", patch["campaignId"], patch["totalCost"], patch["taxes"], patch["finalAmount"])
	return patch, nil
}

func checkoutStep(ctx context.Context, f *wizard.CheckoutForm, p *prompter) (wizard.Patch, error) {
	p.printf("  %s, total $%.2f\n", f.PaymentMode.Label(), f.FinalAmount)

	var err error
	if f.Input.PersonalInfo.Email, err = p.ask("Confirmation email", f.Input.PersonalInfo.Email); err != nil {
		return nil, err
	}
	if f.Input.TermsAccepted, err = p.confirm("Accept the terms and conditions", true); err != nil {
		return nil, err
	}
	return f.Submit(ctx)
}
