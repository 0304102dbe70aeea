// Package typeahead runs debounced, cancelable searches for one input box.
//
// Every Submit supersedes the previous one: its context is canceled and any
// result it still produces is discarded. Only the newest request's result is
// ever delivered.
package typeahead

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/types"
	"go.uber.org/zap"
)

// Searcher returns candidates for a query. *resolver.Core satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string) []types.SearchCandidate
}

// Config holds configuration for a Session.
type Config struct {
	// MinQueryLength is the shortest query that reaches the searcher.
	// Shorter queries resolve immediately to an empty result.
	MinQueryLength int
	// Debounce is the delay before a search is issued.
	Debounce time.Duration
	// LongQueryLength is the length from which LongQueryDebounce applies.
	LongQueryLength   int
	LongQueryDebounce time.Duration
	Logger            *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MinQueryLength:    3,
		Debounce:          150 * time.Millisecond,
		LongQueryLength:   12,
		LongQueryDebounce: 50 * time.Millisecond,
		Logger:            zap.NewNop(),
	}
}

// Request identifies one submitted query.
type Request struct {
	ID         uuid.UUID
	Generation uint64
	Query      string
}

// Result is the outcome of the newest request.
type Result struct {
	RequestID  uuid.UUID
	Generation uint64
	Query      string
	Candidates []types.SearchCandidate
}

// Session owns the in-flight search for a single input.
type Session struct {
	parent   context.Context
	searcher Searcher
	config   *Config
	logger   *zap.Logger

	mu         sync.Mutex
	generation uint64
	current    uuid.UUID
	cancel     context.CancelFunc
	closed     bool

	results chan Result
	wg      sync.WaitGroup
}

// NewSession creates a session whose searches are bounded by ctx.
func NewSession(ctx context.Context, searcher Searcher, config *Config) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		parent:   ctx,
		searcher: searcher,
		config:   config,
		logger:   logger.Named("typeahead"),
		results:  make(chan Result, 1),
	}
}

// Results delivers the result of the newest request. An undelivered older
// result is replaced by a newer one. The channel is closed by Close.
func (s *Session) Results() <-chan Result {
	return s.results
}

// Submit supersedes any pending request with query and returns its identity.
// After Close it returns the zero Request.
func (s *Session) Submit(query string) Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Request{}
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.generation++
	req := Request{ID: uuid.New(), Generation: s.generation, Query: query}
	s.current = req.ID

	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx, req, s.Delay(query))
	return req
}

// Generation returns the generation of the newest request.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Delay returns the debounce applied to query.
func (s *Session) Delay(query string) time.Duration {
	n := utf8.RuneCountInString(query)
	switch {
	case n < s.config.MinQueryLength:
		return 0
	case s.config.LongQueryLength > 0 && n >= s.config.LongQueryLength:
		return s.config.LongQueryDebounce
	default:
		return s.config.Debounce
	}
}

// Close cancels the pending request, waits for its goroutine and closes the
// results channel. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.results)
}

func (s *Session) run(ctx context.Context, req Request, delay time.Duration) {
	defer s.wg.Done()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	candidates := []types.SearchCandidate{}
	if utf8.RuneCountInString(req.Query) >= s.config.MinQueryLength {
		candidates = s.searcher.Search(ctx, req.Query)
	}

	if ctx.Err() != nil {
		s.logger.Debug("dropping superseded result",
			zap.String("query", req.Query),
			zap.Uint64("generation", req.Generation),
		)
		return
	}
	s.deliver(Result{
		RequestID:  req.ID,
		Generation: req.Generation,
		Query:      req.Query,
		Candidates: candidates,
	})
}

func (s *Session) deliver(result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || result.Generation != s.generation || result.RequestID != s.current {
		s.logger.Debug("dropping stale result",
			zap.String("query", result.Query),
			zap.Uint64("generation", result.Generation),
		)
		return
	}

	// Only this method sends, and only under mu, so after draining there is room.
	select {
	case <-s.results:
	default:
	}
	s.results <- result
}
