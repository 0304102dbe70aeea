// Package main provides the profile_compare CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/profile-compare/internal/config"
	"github.com/jonathan/profile-compare/internal/fetch"
	"github.com/jonathan/profile-compare/internal/observability"
	"github.com/jonathan/profile-compare/internal/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

// app is built once per invocation by PersistentPreRunE.
var app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	core     *resolver.Core
}

var rootCmd = &cobra.Command{
	Use:           "profile_compare",
	Short:         "Compare two Ethos reputation profiles",
	Long:          "profile_compare resolves Ethos profiles by handle, searches for users and compares two profiles metric by metric, from the command line or over a REST API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setup()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of formatted output")
}

// setup loads configuration and wires the resolver core with logging and metrics.
func setup() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(verbose || cfg.Verbose)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	client := fetch.NewClient(cfg.ClientConfig(metrics))

	coreConfig := cfg.CoreConfig()
	coreConfig.CacheObserver = metrics
	coreConfig.Observer = metrics
	coreConfig.Logger = logger

	app.cfg = cfg
	app.logger = logger
	app.registry = registry
	app.metrics = metrics
	app.core = resolver.NewCore(client, coreConfig)

	logger.Debug("configuration loaded",
		zap.String("api_url", cfg.APIURL),
		zap.String("legacy_api_url", cfg.LegacyAPIURL),
		zap.Bool("offline_fallback", cfg.FallbackEnabled()),
	)
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
