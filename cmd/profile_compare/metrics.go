package main

import (
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/observability"
	"github.com/jonathan/profile-compare/internal/server"
	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the metrics compared between two profiles",
	Args:  cobra.NoArgs,
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	if jsonOutput {
		defs := make([]server.MetricDefinitionResponse, 0, len(metrics.Table))
		for _, def := range metrics.Table {
			defs = append(defs, server.MetricDefinitionResponse{Key: string(def.Key), Label: def.Label, Max: def.Max})
		}
		return writeJSON(cmd.OutOrStdout(), defs)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintMetricTable()
	return nil
}
