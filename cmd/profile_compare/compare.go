package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/profile-compare/internal/compare"
	"github.com/jonathan/profile-compare/internal/db"
	"github.com/jonathan/profile-compare/internal/export"
	"github.com/jonathan/profile-compare/internal/observability"
	"github.com/jonathan/profile-compare/internal/rendering"
	"github.com/jonathan/profile-compare/internal/schemas"
	"github.com/jonathan/profile-compare/internal/server"
	"github.com/jonathan/profile-compare/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var compareCmd = &cobra.Command{
	Use:   "compare <left> <right>",
	Short: "Compare two profiles metric by metric",
	Long: `Resolve two handles concurrently and compare every display metric.

A side that cannot be resolved is reported with its error; the other side is
still shown. The comparison can be rendered to HTML or PNG, archived to
Postgres and turned into a share link.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var (
	comparePNG     string
	compareHTML    string
	compareShare   bool
	compareSave    bool
	compareTimeout int
)

func init() {
	compareCmd.Flags().StringVar(&comparePNG, "png", "", "Write the share card as PNG to this file or directory (requires Chrome)")
	compareCmd.Flags().StringVar(&compareHTML, "html", "", "Write the share card HTML to this file")
	compareCmd.Flags().BoolVar(&compareShare, "share", false, "Print the share text and post URL")
	compareCmd.Flags().BoolVar(&compareSave, "save", false, "Archive the comparison (requires DATABASE_URL)")
	compareCmd.Flags().IntVar(&compareTimeout, "timeout", 30, "Overall timeout in seconds")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if compareSave && app.cfg.DatabaseURL == "" {
		return fmt.Errorf("--save requires DATABASE_URL to be set")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsOrDefault(compareTimeout))
	defer cancel()

	c, err := compare.Run(ctx, app.core, args[0], args[1])
	if err != nil {
		return err
	}
	app.metrics.ComparisonBuilt(c.Left.Ready() && c.Right.Ready())

	if err := schemas.ValidateComparison(c); err != nil {
		return fmt.Errorf("comparison failed validation: %w", err)
	}

	saved := false
	if compareSave {
		if err := archiveComparison(ctx, c); err != nil {
			return err
		}
		saved = true
	}

	if compareHTML != "" || comparePNG != "" {
		if err := writeCard(ctx, c); err != nil {
			return err
		}
	}

	winner, leftWins, rightWins := compare.Leader(c)
	resp := server.CompareResponse{
		Comparison: c,
		Winner:     winner,
		LeftWins:   leftWins,
		RightWins:  rightWins,
		Saved:      saved,
	}
	if compareShare {
		text, err := rendering.ShareText(c, rendering.ComparisonURL(app.cfg.PublicURL, c.Left.Handle, c.Right.Handle))
		if err != nil {
			return err
		}
		resp.ShareText = text
		resp.ShareURL = rendering.ShareURL(text)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, resp)
	}

	observability.NewPrinter(out).PrintComparison(c)
	fmt.Fprintf(out, "Winner: %s (%d-%d)\n", winnerLabel(c, winner), leftWins, rightWins)
	if saved {
		fmt.Fprintf(out, "Saved as %s\n", c.ID)
	}
	if resp.ShareURL != "" {
		fmt.Fprintf(out, "\n%s\n\nShare: %s\n", resp.ShareText, resp.ShareURL)
	}
	return nil
}

func archiveComparison(ctx context.Context, c *types.Comparison) error {
	database, err := db.Connect(ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := database.SaveComparison(ctx, c); err != nil {
		return fmt.Errorf("failed to save comparison: %w", err)
	}
	app.logger.Info("comparison archived", zap.String("comparison_id", c.ID.String()))
	return nil
}

func writeCard(ctx context.Context, c *types.Comparison) error {
	html, err := rendering.RenderCard(c)
	if err != nil {
		return err
	}

	if compareHTML != "" {
		if err := os.WriteFile(compareHTML, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write card HTML: %w", err)
		}
	}

	if comparePNG != "" {
		path := comparePNG
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, rendering.ImageFileName(c.Left.Handle, c.Right.Handle))
		}
		cfg := export.DefaultConfig()
		cfg.Logger = app.logger
		if err := export.WriteFile(ctx, html, path, cfg); err != nil {
			return err
		}
		app.logger.Info("share card written", zap.String("path", path))
	}
	return nil
}

func winnerLabel(c *types.Comparison, winner types.Winner) string {
	switch winner {
	case types.WinnerLeft:
		return "@" + c.Left.Handle
	case types.WinnerRight:
		return "@" + c.Right.Handle
	case types.WinnerDraw:
		return "draw"
	default:
		return "n/a"
	}
}
