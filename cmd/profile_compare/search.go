package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/profile-compare/internal/observability"
	"github.com/jonathan/profile-compare/internal/server"
	"github.com/jonathan/profile-compare/internal/typeahead"
	"github.com/jonathan/profile-compare/internal/types"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for users by handle or display name",
	Long: `Search for users by handle or display name.

With --interactive, queries are read line by line from stdin and run through a
debounced typeahead session: a new line supersedes the previous search and only
the newest result is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var (
	searchInteractive bool
	searchTimeout     int
)

func init() {
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "Read queries from stdin through a typeahead session")
	searchCmd.Flags().IntVar(&searchTimeout, "timeout", 30, "Overall timeout in seconds (one-shot mode)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchInteractive {
		return runInteractiveSearch(cmd)
	}
	if len(args) == 0 {
		return fmt.Errorf("a query is required (or use --interactive)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), secondsOrDefault(searchTimeout))
	defer cancel()

	query := strings.TrimSpace(args[0])
	candidates := app.core.Search(ctx, query)
	return printCandidates(cmd, query, candidates)
}

// runInteractiveSearch feeds stdin lines into a typeahead session. Each line
// supersedes the previous one. It returns once the last line's result is printed.
func runInteractiveSearch(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg := typeahead.DefaultConfig()
	cfg.Logger = app.logger
	session := typeahead.NewSession(ctx, app.core, cfg)
	defer session.Close()

	type readResult struct {
		last typeahead.Request
		err  error
	}
	readDone := make(chan readResult, 1)
	go func() {
		var last typeahead.Request
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			last = session.Submit(strings.TrimSpace(scanner.Text()))
		}
		readDone <- readResult{last: last, err: scanner.Err()}
	}()

	var final uint64
	var printed uint64
	results := session.Results()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-readDone:
			readDone = nil
			if r.err != nil {
				return fmt.Errorf("failed to read queries: %w", r.err)
			}
			if r.last.Generation == 0 || printed >= r.last.Generation {
				return nil
			}
			final = r.last.Generation
		case result := <-results:
			if err := printCandidates(cmd, result.Query, result.Candidates); err != nil {
				return err
			}
			printed = result.Generation
			if final != 0 && printed >= final {
				return nil
			}
		}
	}
}

func printCandidates(cmd *cobra.Command, query string, candidates []types.SearchCandidate) error {
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), server.SearchResponse{Query: query, Candidates: candidates})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintCandidates(query, candidates)
	return nil
}
