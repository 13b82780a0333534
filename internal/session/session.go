// Package session holds the latest loaded fixtures and their analysis for the HTTP API.
//
// A load replaces the previous state as a whole. Loads are numbered; an older load that
// finishes after a newer one was published is discarded. A failed load changes nothing. Filter changes
// re-analyse the loaded fixtures without fetching again, optionally after a debounce.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/pkg/debounce"
	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/models"
	"github.com/Vodeneev/easepick/internal/provider"
)

// ErrSuperseded is returned by Load when a newer load was published before it finished.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Generation uint64           `json:"generation"`
	Provider   string           `json:"provider"`
	Query      provider.Query   `json:"query"`
	Command    string           `json:"command"`
	Filters    analysis.Filters `json:"filters"`
	Entries    []models.Entry   `json:"-"`
	Result     *analysis.Result `json:"-"`
	LoadedAt   time.Time        `json:"loaded_at"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
}

// Loaded reports whether any load has completed.
func (s Snapshot) Loaded() bool {
	return !s.LoadedAt.IsZero()
}

type Options struct {
	Concurrency int
	Debounce    time.Duration
	Metrics     *metrics.Metrics
}

type Session struct {
	provider  provider.Provider
	opts      Options
	debouncer *debounce.Debouncer
	now       func() time.Time

	mu         sync.RWMutex
	generation uint64 // last started load
	published  uint64 // load whose result is held
	query      provider.Query
	command    string
	filters    analysis.Filters
	entries    []models.Entry
	result     *analysis.Result
	loadedAt   time.Time
	analyzedAt time.Time
}

func New(p provider.Provider, opts Options) *Session {
	return &Session{
		provider:  p,
		opts:      opts,
		debouncer: debounce.New(opts.Debounce),
		now:       time.Now,
		filters:   analysis.Filters{},
		result:    &analysis.Result{B: []analysis.Row{}, C: []analysis.Row{}, D: []analysis.Row{}},
	}
}

// Load fetches the fixtures of q with their odds and analyses them with the current filters.
func (s *Session) Load(ctx context.Context, q provider.Query) (Snapshot, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	entries, err := provider.LoadFixturesWithOdds(ctx, s.provider, q, provider.LoadOptions{
		Concurrency: s.opts.Concurrency,
		Metrics:     s.opts.Metrics,
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen < s.published {
		slog.Info("Discarding superseded load", "generation", gen, "published", s.published)
		return Snapshot{}, ErrSuperseded
	}

	s.published = gen
	s.query = q
	s.entries = entries
	s.loadedAt = s.now()
	s.analyzeLocked()
	return s.snapshotLocked(), nil
}

// SetFilters parses command and re-analyses after the debounce interval.
// A later call within the interval replaces this one.
func (s *Session) SetFilters(command string) {
	s.debouncer.Trigger(func() {
		s.ApplyFilters(command)
	})
}

// ApplyFilters parses command and re-analyses the loaded fixtures immediately.
func (s *Session) ApplyFilters(command string) Snapshot {
	s.debouncer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.command = command
	s.filters = analysis.ParseAnalyzeCommand(command)
	s.analyzeLocked()
	return s.snapshotLocked()
}

func (s *Session) analyzeLocked() {
	s.result = analysis.AnalyzeFixtures(s.entries, s.filters)
	s.analyzedAt = s.now()
	s.opts.Metrics.RecordAnalysis(s.result.Picks, s.result.Flags)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: s.published,
		Provider:   s.provider.Name(),
		Query:      s.query,
		Command:    s.command,
		Filters:    append(analysis.Filters{}, s.filters...),
		Entries:    s.entries,
		Result:     s.result,
		LoadedAt:   s.loadedAt,
		AnalyzedAt: s.analyzedAt,
	}
}

// Close cancels a pending debounced re-analysis.
func (s *Session) Close() {
	s.debouncer.Stop()
}
