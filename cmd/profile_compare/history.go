package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/db"
	"github.com/jonathan/profile-compare/internal/server"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived comparisons",
	Long:  "List the most recent archived comparisons, optionally only those involving one handle. Requires DATABASE_URL.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var forgetCmd = &cobra.Command{
	Use:   "forget <comparison-id>",
	Short: "Delete an archived comparison",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

var (
	historyHandle string
	historyLimit  int
)

func init() {
	historyCmd.Flags().StringVar(&historyHandle, "handle", "", "Only list comparisons involving this handle")
	historyCmd.Flags().IntVar(&historyLimit, "limit", db.DefaultListLimit, "Maximum number of comparisons to list")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(forgetCmd)
}

// openArchive connects to the configured database and applies migrations.
func openArchive(ctx context.Context) (*db.DB, error) {
	if app.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(ctx, app.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	ctx := cmd.Context()
	database, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	summaries, err := database.ListRecentComparisons(ctx, historyHandle, historyLimit)
	if err != nil {
		return err
	}
	if summaries == nil {
		summaries = []db.ComparisonSummary{}
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), server.ComparisonListResponse{Comparisons: summaries, Count: len(summaries)})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLEFT\tRIGHT\tWINNER\tCREATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t@%s\t@%s\t%s\t%s\n", s.ID, s.LeftHandle, s.RightHandle, s.Winner, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runForget(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid comparison id %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	database, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteComparison(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}
