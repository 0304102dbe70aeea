package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/compare"
	"github.com/jonathan/profile-compare/internal/db"
	"github.com/jonathan/profile-compare/internal/metrics"
	"github.com/jonathan/profile-compare/internal/rendering"
	"github.com/jonathan/profile-compare/internal/schemas"
	"github.com/jonathan/profile-compare/internal/types"
	"go.uber.org/zap"
)

// ProfileResponse represents the response for /profiles/{handle}
type ProfileResponse struct {
	Profile *types.UserProfile    `json:"profile"`
	Metrics *types.DisplayMetrics `json:"metrics"`
	Band    string                `json:"band"`
}

// SearchResponse represents the response for /search
type SearchResponse struct {
	Query      string                  `json:"query"`
	Candidates []types.SearchCandidate `json:"candidates"`
}

// CompareResponse represents the response for /compare and /comparisons/{id}
type CompareResponse struct {
	Comparison *types.Comparison `json:"comparison"`
	Winner     types.Winner      `json:"winner,omitempty"`
	LeftWins   int               `json:"left_wins"`
	RightWins  int               `json:"right_wins"`
	Saved      bool              `json:"saved"`
	ShareURL   string            `json:"share_url,omitempty"`
	ShareText  string            `json:"share_text,omitempty"`
}

// ComparisonListResponse represents the response for /comparisons
type ComparisonListResponse struct {
	Comparisons []db.ComparisonSummary `json:"comparisons"`
	Count       int                    `json:"count"`
}

// MetricDefinitionResponse describes one comparable metric
type MetricDefinitionResponse struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Max   float64 `json:"max"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"caches":  s.core.CacheSizes(),
		"archive": s.archive != nil,
	})
}

// handleMetricDefinitions lists the comparison rows in display order
func (s *Server) handleMetricDefinitions(w http.ResponseWriter, _ *http.Request) {
	defs := make([]MetricDefinitionResponse, 0, len(metrics.Table))
	for _, def := range metrics.Table {
		defs = append(defs, MetricDefinitionResponse{Key: string(def.Key), Label: def.Label, Max: def.Max})
	}
	s.jsonResponse(w, http.StatusOK, defs)
}

// handleGetProfile resolves a single handle
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.PathValue("handle"))
	if handle == "" {
		s.failure(w, &ErrValidation{Field: "handle", Message: "is required"})
		return
	}

	profile, err := s.core.Resolve(r.Context(), handle)
	if err != nil {
		s.failure(w, err)
		return
	}

	m := s.core.DeriveMetrics(profile)
	s.jsonResponse(w, http.StatusOK, ProfileResponse{
		Profile: profile,
		Metrics: &m,
		Band:    metrics.BandFor(m.Score).Name,
	})
}

// handleSearch returns typeahead candidates
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	candidates := s.core.Search(r.Context(), query)
	if candidates == nil {
		candidates = []types.SearchCandidate{}
	}
	s.jsonResponse(w, http.StatusOK, SearchResponse{Query: query, Candidates: candidates})
}

// handleClearCache drops every cached profile and search result
func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	s.core.ClearCache()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "cleared",
		"caches": s.core.CacheSizes(),
	})
}

// handleCompare builds a comparison and archives it when possible
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	left, right := strings.TrimSpace(q.Get("left")), strings.TrimSpace(q.Get("right"))
	if left == "" {
		s.failure(w, &ErrValidation{Field: "left", Message: "is required"})
		return
	}
	if right == "" {
		s.failure(w, &ErrValidation{Field: "right", Message: "is required"})
		return
	}

	c, err := compare.Run(r.Context(), s.core, left, right)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.metrics.ComparisonBuilt(c.Left.Ready() && c.Right.Ready())

	saved := false
	if s.archive != nil {
		if err := schemas.ValidateComparison(c); err != nil {
			s.logger.Warn("comparison failed schema validation, not archived",
				zap.String("comparison_id", c.ID.String()), zap.Error(err))
		} else if err := s.archive.SaveComparison(r.Context(), c); err != nil {
			s.logger.Warn("failed to archive comparison",
				zap.String("comparison_id", c.ID.String()), zap.Error(err))
		} else {
			saved = true
		}
	}

	s.jsonResponse(w, http.StatusOK, s.compareResponse(c, saved))
}

// handleListComparisons lists archived comparisons
func (s *Server) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.failure(w, &ErrArchiveDisabled{})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.failure(w, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		limit = n
	}

	summaries, err := s.archive.ListRecentComparisons(r.Context(), r.URL.Query().Get("handle"), limit)
	if err != nil {
		s.failure(w, err)
		return
	}
	if summaries == nil {
		summaries = []db.ComparisonSummary{}
	}
	s.jsonResponse(w, http.StatusOK, ComparisonListResponse{Comparisons: summaries, Count: len(summaries)})
}

// handleGetComparison returns an archived comparison
func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadComparison(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, s.compareResponse(c, true))
}

// handleComparisonCard renders the share card of an archived comparison
func (s *Server) handleComparisonCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadComparison(w, r)
	if !ok {
		return
	}

	html, err := rendering.RenderCard(c)
	if err != nil {
		s.failure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		s.logger.Warn("failed to write card", zap.Error(err))
	}
}

func (s *Server) loadComparison(w http.ResponseWriter, r *http.Request) (*types.Comparison, bool) {
	if s.archive == nil {
		s.failure(w, &ErrArchiveDisabled{})
		return nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.failure(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return nil, false
	}

	c, err := s.archive.GetComparison(r.Context(), id)
	if err != nil {
		s.failure(w, err)
		return nil, false
	}
	if c == nil {
		s.failure(w, &ErrComparisonNotFound{ID: id})
		return nil, false
	}
	return c, true
}

func (s *Server) compareResponse(c *types.Comparison, saved bool) CompareResponse {
	winner, leftWins, rightWins := compare.Leader(c)
	resp := CompareResponse{
		Comparison: c,
		Winner:     winner,
		LeftWins:   leftWins,
		RightWins:  rightWins,
		Saved:      saved,
	}
	if s.publicURL != "" {
		link := rendering.ComparisonURL(s.publicURL, c.Left.Handle, c.Right.Handle)
		if text, err := rendering.ShareText(c, link); err == nil {
			resp.ShareText = text
			resp.ShareURL = rendering.ShareURL(text)
		}
	}
	return resp
}
