package main

import (
	"context"
	"fmt"

	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/observability"
	"github.com/jonathan/profile-compare/internal/server"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <handle>",
	Short: "Resolve a handle into a profile and its display metrics",
	Long:  "Resolve an X handle into its Ethos profile, enrich it with the score tier and print the derived display metrics.",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var resolveTimeout int

func init() {
	resolveCmd.Flags().IntVar(&resolveTimeout, "timeout", 30, "Overall timeout in seconds")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), secondsOrDefault(resolveTimeout))
	defer cancel()

	profile, err := app.core.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", args[0], err)
	}
	m := app.core.DeriveMetrics(profile)

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), server.ProfileResponse{
			Profile: profile,
			Metrics: &m,
			Band:    metrics.BandFor(m.Score).Name,
		})
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintProfile(profile, &m)
	return nil
}
