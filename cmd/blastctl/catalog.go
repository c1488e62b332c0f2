package main

import (
	"github.com/spf13/cobra"

	"greendrake/blast/internal/models"
)

func (a *app) providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List MLS providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := a.client.MLS.Providers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, providers)
		},
	}
}

func (a *app) agentsCmd() *cobra.Command {
	var mlsID, query string
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Search agents by provider and name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := a.client.MLS.Agents(cmd.Context(), mlsID, query)
			if err != nil {
				return err
			}
			return printJSON(cmd, agents)
		},
	}
	cmd.Flags().StringVar(&mlsID, "mls", "", "MLS provider id")
	cmd.Flags().StringVarP(&query, "query", "q", "", "name or agent id fragment")
	return cmd
}

func (a *app) verifyAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-agent <mls-id> <agent-id>",
		Short: "Check that an agent belongs to an MLS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.MLS.VerifyAgent(cmd.Context(), models.VerifyAgentRequest{MLSID: args[0], AgentID: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func (a *app) sendCodeCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "send-code <agent-id>",
		Short: "Send a verification code to an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.MLS.SendVerificationCode(cmd.Context(), models.SendVerificationCodeRequest{
				AgentID: args[0],
				Method:  models.VerificationMethod(method),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&method, "method", string(models.VerificationMethodPhone), "delivery channel: phone or email")
	return cmd
}

func (a *app) verifyCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-code <agent-id> <code>",
		Short: "Check a verification code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.MLS.VerifyCode(cmd.Context(), models.VerifyCodeRequest{AgentID: args[0], Code: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

func (a *app) listingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Look up listings",
	}

	var filter models.ListingFilter
	search := &cobra.Command{
		Use:   "search",
		Short: "Search listings by text, agent or zip code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Listings.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	search.Flags().StringVarP(&filter.Query, "query", "q", "", "address or id fragment")
	search.Flags().StringVar(&filter.AgentID, "agent", "", "agent record id")
	search.Flags().StringVar(&filter.ZipCode, "zip", "", "zip code")

	get := &cobra.Command{
		Use:   "get <listing-id>",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := a.client.Listings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, listing)
		},
	}

	cmd.AddCommand(search, get)
	return cmd
}

func (a *app) zipcodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zipcode",
		Short: "Zip code lookups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <code>",
		Short: "Check whether a zip code is served",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Geo.ValidateZipcode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	})
	return cmd
}

func (a *app) packagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List advertising packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			packages, err := a.client.Packages.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, packages)
		},
	}
}

func (a *app) durationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "durations",
		Short: "List campaign durations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			durations, err := a.client.Packages.Durations(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, durations)
		},
	}
}
