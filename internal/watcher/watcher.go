// Package watcher periodically loads a configured query, journals the tier 3 picks and alerts new ones.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/notify"
	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/storage"
	"github.com/Vodeneev/easepick/internal/provider"
)

// Notifier delivers pick alerts and service messages.
type Notifier interface {
	SendPickAlert(ctx context.Context, alert notify.PickAlert) error
	SendText(ctx context.Context, text string) error
	QueueLen() int
}

// RunSummary describes one watcher run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Query      provider.Query `json:"query"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Fixtures   int            `json:"fixtures"`
	Picks      int            `json:"picks"`
	Flags      int            `json:"flags"`
	Stored     int            `json:"stored"`
	Alerts     int            `json:"alerts"`
	Error      string         `json:"error,omitempty"`
}

// Status is the state reported by the HTTP API.
type Status struct {
	Running    bool           `json:"running"`
	Interval   string         `json:"interval"`
	LastRun    *RunSummary    `json:"last_run,omitempty"`
	Query      provider.Query `json:"query"`
	AlertQueue int            `json:"alert_queue"` // messages waiting to be sent to Telegram
}

// alertState is the last alert sent for a fixture.
type alertState struct {
	FactorPick analysis.Side
	Edge       float64
	At         time.Time
}

type Watcher struct {
	provider    provider.Provider
	cfg         config.WatcherConfig
	concurrency int
	journal     storage.PickStorage
	notifier    Notifier
	metrics     *metrics.Metrics
	now         func() time.Time

	asyncTicker  *time.Ticker
	asyncMu      sync.RWMutex
	asyncStopped bool
	asyncCtx     context.Context
	asyncCancel  context.CancelFunc
	runWG        sync.WaitGroup

	stateMu sync.Mutex
	alerted map[int64]alertState
	lastRun *RunSummary
}

type Option func(*Watcher)

// WithJournal stores every tier 3 pick. Without a journal alerts are deduplicated in memory only.
func WithJournal(j storage.PickStorage) Option {
	return func(w *Watcher) { w.journal = j }
}

func WithNotifier(n Notifier) Option {
	return func(w *Watcher) { w.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// WithConcurrency bounds parallel odds requests per run.
func WithConcurrency(n int) Option {
	return func(w *Watcher) { w.concurrency = n }
}

func New(p provider.Provider, cfg config.WatcherConfig, opts ...Option) *Watcher {
	w := &Watcher{
		provider: p,
		cfg:      cfg,
		now:      time.Now,
		alerted:  map[int64]alertState{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.cfg.Interval <= 0 {
		w.cfg.Interval = 15 * time.Minute
	}
	return w
}

// Start runs the watcher when enabled in config and blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if w.cfg.Enabled {
		if err := w.StartAsync(); err != nil {
			return err
		}
	} else {
		log.Println("watcher: disabled in config, start it through the API")
	}

	<-ctx.Done()
	w.StopAsync()
	return nil
}

// StartAsync starts or restarts the periodic processing
func (w *Watcher) StartAsync() error {
	w.asyncMu.Lock()
	defer w.asyncMu.Unlock()

	if w.asyncTicker != nil && !w.asyncStopped {
		log.Println("watcher: already running")
		return nil
	}

	if w.asyncCancel != nil {
		w.asyncCancel()
	}
	w.asyncCtx, w.asyncCancel = context.WithCancel(context.Background())

	w.asyncStopped = false
	if w.asyncTicker != nil {
		w.asyncTicker.Stop()
	}
	w.asyncTicker = time.NewTicker(w.cfg.Interval)

	log.Printf("watcher: starting with interval %v", w.cfg.Interval)
	w.runWG.Add(1)
	go w.runAsyncProcessing(w.asyncCtx, w.asyncTicker)
	return nil
}

func (w *Watcher) runAsyncProcessing(ctx context.Context, ticker *time.Ticker) {
	defer w.runWG.Done()

	// Run immediately on start
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("watcher: stopping")
			return
		case <-ticker.C:
			if w.isStopped() {
				return
			}
			w.RunOnce(ctx)
		}
	}
}

func (w *Watcher) isStopped() bool {
	w.asyncMu.RLock()
	defer w.asyncMu.RUnlock()
	return w.asyncStopped
}

// StopAsync stops the periodic processing and waits for a run in progress to return.
func (w *Watcher) StopAsync() {
	w.asyncMu.Lock()
	if !w.asyncStopped && w.asyncTicker != nil {
		w.asyncStopped = true
		w.asyncTicker.Stop()
		if w.asyncCancel != nil {
			w.asyncCancel()
		}
		log.Println("watcher: stopped")
	}
	w.asyncMu.Unlock()

	w.runWG.Wait()
}

// IsRunning returns true if periodic processing is currently running
func (w *Watcher) IsRunning() bool {
	w.asyncMu.RLock()
	defer w.asyncMu.RUnlock()
	return w.asyncTicker != nil && !w.asyncStopped
}

func (w *Watcher) Status() Status {
	st := Status{
		Running:  w.IsRunning(),
		Interval: w.cfg.Interval.String(),
		Query:    w.query(),
	}
	if w.notifier != nil {
		st.AlertQueue = w.notifier.QueueLen()
	}
	w.stateMu.Lock()
	if w.lastRun != nil {
		last := *w.lastRun
		st.LastRun = &last
	}
	w.stateMu.Unlock()
	return st
}

// query is the configured query; an empty date means the current UTC day.
func (w *Watcher) query() provider.Query {
	q := provider.Query{Date: w.cfg.Date, League: w.cfg.League, Season: w.cfg.Season}
	if q.Date == "" {
		q.Date = w.now().UTC().Format("2006-01-02")
	}
	return q
}

// RunOnce loads, analyses, journals and alerts once.
func (w *Watcher) RunOnce(ctx context.Context) (run RunSummary) {
	run = RunSummary{
		RunID:     uuid.NewString(),
		Query:     w.query(),
		StartedAt: w.now(),
	}
	defer func() {
		run.FinishedAt = w.now()
		last := run
		w.stateMu.Lock()
		w.lastRun = &last
		w.stateMu.Unlock()
	}()

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	slog.Info("Watcher run started", "run_id", run.RunID, "date", run.Query.Date, "league", run.Query.League)
	entries, err := provider.LoadFixturesWithOdds(reqCtx, w.provider, run.Query, provider.LoadOptions{
		Concurrency: w.concurrency,
		Metrics:     w.metrics,
	})
	if err != nil {
		run.Error = err.Error()
		slog.Error("Watcher run failed", "run_id", run.RunID, "error", err)
		w.reportFailure(ctx, run)
		return run
	}

	res := analysis.AnalyzeFixtures(entries, analysis.ParseAnalyzeCommand(w.cfg.Command))
	w.metrics.RecordAnalysis(res.Picks, res.Flags)
	run.Fixtures, run.Picks, run.Flags = res.Len(), res.Picks, res.Flags

	for _, row := range res.D {
		if row.Outcome.Status != analysis.StatusPick {
			continue
		}
		prev, known := w.previousAlert(ctx, row)
		if w.storePick(ctx, run.RunID, row) {
			run.Stored++
		}
		if w.alertPick(ctx, run.RunID, row, prev, known) {
			run.Alerts++
		}
	}

	slog.Info("Watcher run complete",
		"run_id", run.RunID,
		"fixtures", run.Fixtures,
		"picks", run.Picks,
		"flags", run.Flags,
		"stored", run.Stored,
		"alerts", run.Alerts)
	return run
}

// reportFailure tells the alert chat that runs started failing. Consecutive failures are reported once.
func (w *Watcher) reportFailure(ctx context.Context, run RunSummary) {
	if w.notifier == nil {
		return
	}
	w.stateMu.Lock()
	failing := w.lastRun != nil && w.lastRun.Error != ""
	w.stateMu.Unlock()
	if failing {
		return
	}
	text := fmt.Sprintf("⚠️ Watcher run for %s failed: %s", run.Query.Date, run.Error)
	if err := w.notifier.SendText(ctx, text); err != nil {
		slog.Warn("Failed to queue watcher failure message", "run_id", run.RunID, "error", err)
	}
}

func (w *Watcher) storePick(ctx context.Context, runID string, row analysis.Row) bool {
	if w.journal == nil {
		return false
	}
	inserted, err := w.journal.StorePick(ctx, storage.NewPickRecord(runID, row, w.now()))
	w.metrics.RecordJournalWrite(err)
	if err != nil {
		slog.Warn("Failed to journal pick", "fixture_id", row.FixtureID, "error", err)
		return false
	}
	return inserted
}

func (w *Watcher) alertPick(ctx context.Context, runID string, row analysis.Row, prev alertState, known bool) bool {
	if w.notifier == nil {
		return false
	}

	now := w.now()
	send, trigger := shouldAlert(prev, known, row, now,
		time.Duration(w.cfg.AlertCooldownMinutes)*time.Minute, w.cfg.AlertMinIncrease)
	if !send {
		slog.Debug("Skipping duplicate alert", "fixture_id", row.FixtureID, "reason", trigger)
		return false
	}

	if err := w.notifier.SendPickAlert(ctx, notify.PickAlert{RunID: runID, Row: row, Trigger: trigger}); err != nil {
		slog.Warn("Failed to send pick alert", "fixture_id", row.FixtureID, "error", err)
		return false
	}
	w.metrics.RecordAlert()

	w.stateMu.Lock()
	w.alerted[row.FixtureID] = alertState{FactorPick: row.FactorPick, Edge: edgeOf(row), At: now}
	w.stateMu.Unlock()
	return true
}

// previousAlert returns the last alert for the fixture, falling back to the journal after a restart.
// The journal holds the first time a pick was seen, which approximates when it was alerted.
// It must run before the current pick is journalled.
func (w *Watcher) previousAlert(ctx context.Context, row analysis.Row) (alertState, bool) {
	if w.notifier == nil {
		return alertState{}, false
	}
	w.stateMu.Lock()
	prev, ok := w.alerted[row.FixtureID]
	w.stateMu.Unlock()
	if ok || w.journal == nil {
		return prev, ok
	}

	rec, err := w.journal.LastPick(ctx, row.FixtureID)
	if errors.Is(err, storage.ErrNotFound) {
		return alertState{}, false
	}
	if err != nil {
		slog.Warn("Failed to read last pick", "fixture_id", row.FixtureID, "error", err)
		return alertState{}, false
	}
	if rec.Status != string(analysis.StatusPick) {
		return alertState{}, false
	}
	return alertState{FactorPick: analysis.Side(rec.FactorPick), Edge: rec.Edge, At: rec.CreatedAt}, true
}

// shouldAlert decides whether a pick is alerted again, the way value diffs are re-alerted:
// new picks and changed sides always, otherwise after the cooldown or when the edge grew by minIncrease.
func shouldAlert(prev alertState, known bool, row analysis.Row, now time.Time, cooldown time.Duration, minIncrease float64) (bool, string) {
	if !known {
		return true, "new pick"
	}
	if prev.FactorPick != row.FactorPick {
		return true, fmt.Sprintf("side changed %s → %s", prev.FactorPick, row.FactorPick)
	}
	since := now.Sub(prev.At)
	if since > cooldown {
		return true, fmt.Sprintf("still a pick after %.0f minutes", since.Minutes())
	}
	increase := edgeOf(row) - prev.Edge
	if increase >= minIncrease {
		return true, fmt.Sprintf("edge %+.2f", increase)
	}
	return false, fmt.Sprintf("alerted %.0f minutes ago, edge %+.2f < %.2f", since.Minutes(), increase, minIncrease)
}

func edgeOf(row analysis.Row) float64 {
	if row.Edge == nil {
		return 0
	}
	return *row.Edge
}
