package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profile-compare/internal/compare"
	"github.com/jonathan/profile-compare/internal/types"
)

// SaveComparison stores c under its ID, replacing any earlier copy.
func (db *DB) SaveComparison(ctx context.Context, c *types.Comparison) error {
	if c == nil {
		return fmt.Errorf("failed to save comparison: comparison is nil")
	}
	if c.ID == uuid.Nil {
		return fmt.Errorf("failed to save comparison: missing id")
	}

	content, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison: %w", err)
	}
	winner, _, _ := compare.Leader(c)

	_, err = db.pool.Exec(ctx,
		`INSERT INTO comparisons (id, left_handle, right_handle, winner, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET winner = $4, content = $5`,
		c.ID, types.NormalizeHandle(c.Left.Handle), types.NormalizeHandle(c.Right.Handle), string(winner), content, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save comparison: %w", err)
	}
	return nil
}

// GetComparison loads a saved comparison. It returns nil, nil when id is unknown.
func (db *DB) GetComparison(ctx context.Context, id uuid.UUID) (*types.Comparison, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM comparisons WHERE id = $1`,
		id,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}

	var c types.Comparison
	if err := json.Unmarshal(content, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison: %w", err)
	}
	return &c, nil
}

// ListRecentComparisons returns summaries newest first. handle, when set,
// restricts the list to comparisons that include it on either side.
func (db *DB) ListRecentComparisons(ctx context.Context, handle string, limit int) ([]ComparisonSummary, error) {
	limit = ClampLimit(limit)
	handle = types.NormalizeHandle(handle)

	var (
		rows pgx.Rows
		err  error
	)
	if handle == "" {
		rows, err = db.pool.Query(ctx,
			`SELECT id, left_handle, right_handle, winner, created_at
			 FROM comparisons ORDER BY created_at DESC LIMIT $1`,
			limit,
		)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT id, left_handle, right_handle, winner, created_at
			 FROM comparisons WHERE left_handle = $1 OR right_handle = $1
			 ORDER BY created_at DESC LIMIT $2`,
			handle, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	summaries := []ComparisonSummary{}
	for rows.Next() {
		var s ComparisonSummary
		var winner string
		if err := rows.Scan(&s.ID, &s.LeftHandle, &s.RightHandle, &winner, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		s.Winner = types.Winner(winner)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	return summaries, nil
}

// DeleteComparison removes a saved comparison. Unknown ids are not an error.
func (db *DB) DeleteComparison(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM comparisons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	return nil
}
