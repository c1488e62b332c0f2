// Command blastctl talks to the Blast API and walks through the campaign
// wizard from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"greendrake/blast/internal/client"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/wizard"
)

type app struct {
	apiURL    string
	stateFile string

	client *client.Client
	store  wizard.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "blastctl",
		Short:         "Command line client for the Blast advertising API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides BLAST_API_URL)")
	root.PersistentFlags().StringVar(&a.stateFile, "state-file", "", "wizard state file (overrides BLAST_STATE_FILE)")

	root.AddCommand(
		a.providersCmd(),
		a.agentsCmd(),
		a.verifyAgentCmd(),
		a.sendCodeCmd(),
		a.verifyCodeCmd(),
		a.listingsCmd(),
		a.zipcodeCmd(),
		a.packagesCmd(),
		a.durationsCmd(),
		a.campaignCmd(),
		a.checkoutCmd(),
		a.wizardCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIBaseURL = a.apiURL
	}
	if a.stateFile != "" {
		cfg.StateFile = a.stateFile
	}
	a.client = client.New(cfg.APIBaseURL, cfg.Timeout)
	a.store = wizard.NewFileStore(cfg.StateFile)
	slog.Debug("blastctl configured", "api", cfg.APIBaseURL, "state", cfg.StateFile)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
