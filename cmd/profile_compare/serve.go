package main

import (
	"fmt"

	"github.com/jonathan/profile-compare/internal/db"
	"github.com/jonathan/profile-compare/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes profile lookup, search and comparison endpoints.

When DATABASE_URL is set, comparisons are archived to Postgres and can be
reopened by ID; otherwise the archive endpoints answer 503.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and the config file)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	port := app.cfg.Port
	if servePort > 0 {
		port = servePort
	}

	cfg := server.Config{
		Port:      port,
		PublicURL: app.cfg.PublicURL,
		Registry:  app.registry,
		Metrics:   app.metrics,
		Logger:    app.logger,
	}

	if app.cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		cfg.Archive = database
	} else {
		app.logger.Warn("DATABASE_URL not set, comparison archive disabled")
	}

	srv, err := server.New(app.core, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	app.logger.Info("serving", zap.Int("port", port), zap.Bool("archive", cfg.Archive != nil))
	return srv.Start(ctx)
}
