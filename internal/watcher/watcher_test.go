package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/notify"
	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/models"
	"github.com/Vodeneev/easepick/internal/pkg/storage"
	"github.com/Vodeneev/easepick/internal/provider"
)

var wednesday = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

type stubProvider struct {
	err     error
	queries []provider.Query
	mu      sync.Mutex
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fixtures(ctx context.Context, q provider.Query) ([]models.Fixture, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	league := models.League{ID: 78, Name: "Bundesliga", Country: "Germany", Logo: "logo.png"}
	return []models.Fixture{
		{ID: 1, Date: wednesday.Add(7 * time.Hour), Venue: models.Venue{Name: "Volksparkstadion"}, League: league,
			Home: models.Team{Name: "Hamburger SV"}, Away: models.Team{Name: "St. Pauli"}},
		{ID: 2, Date: wednesday.Add(8 * time.Hour), Venue: models.Venue{Name: "Allianz Arena"}, League: league,
			Home: models.Team{Name: "FC Bayern"}, Away: models.Team{Name: "Mainz"}},
	}, nil
}

func (s *stubProvider) Odds(ctx context.Context, id int64) (models.Markets, error) {
	if id == 2 {
		return models.Markets{
			models.MarketMatchWinner: {{Label: "Home", Odd: 1.3}, {Label: "Draw", Odd: 5.5}, {Label: "Away", Odd: 9}},
		}, nil
	}
	return models.Markets{
		models.MarketMatchWinner:  {{Label: "Home", Odd: 2.6}, {Label: "Draw", Odd: 3.4}, {Label: "Away", Odd: 2.7}},
		models.MarketBTTS:         {{Label: "Yes", Odd: 1.85}, {Label: "No", Odd: 1.95}},
		models.MarketOverUnder25:  {{Label: "Over 2.5", Odd: 1.9}, {Label: "Under 2.5", Odd: 1.9}},
		models.MarketDoubleChance: {{Label: "1X", Odd: 1.6}, {Label: "12", Odd: 1.3}, {Label: "X2", Odd: 1.4}},
		models.MarketDrawNoBet:    {{Label: "Home", Odd: 1.9}, {Label: "Away", Odd: 1.8}},
	}, nil
}

func (s *stubProvider) LeagueLogo(ctx context.Context, l models.League) string { return l.Logo }

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []notify.PickAlert
	texts  []string
	queued int
}

func (f *fakeNotifier) SendText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeNotifier) QueueLen() int { return f.queued }

func (f *fakeNotifier) SendPickAlert(ctx context.Context, a notify.PickAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() config.WatcherConfig {
	return config.WatcherConfig{
		Interval:             time.Hour,
		AlertCooldownMinutes: 60,
		AlertMinIncrease:     2,
	}
}

func newJournal(t *testing.T) storage.PickStorage {
	t.Helper()
	j, err := storage.NewSQLitePickStorage(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLitePickStorage() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRunOnce(t *testing.T) {
	p := &stubProvider{}
	n := &fakeNotifier{}
	clk := &clock{now: wednesday}
	j := newJournal(t)
	w := New(p, testConfig(), WithJournal(j), WithNotifier(n), WithClock(clk.Now))

	run := w.RunOnce(context.Background())
	if run.Error != "" {
		t.Fatalf("RunOnce() error = %s", run.Error)
	}
	if run.Fixtures != 2 || run.Picks != 1 || run.Flags != 1 || run.Stored != 1 || run.Alerts != 1 {
		t.Errorf("run = %+v", run)
	}
	if run.RunID == "" || run.Query.Date != "2024-05-15" || run.FinishedAt.IsZero() {
		t.Errorf("run metadata = %+v", run)
	}

	alert := n.alerts[0]
	if alert.Row.FixtureID != 1 || alert.Row.FactorPick != analysis.Away || alert.Trigger != "new pick" {
		t.Errorf("alert = %+v", alert)
	}

	rec, err := j.LastPick(context.Background(), 1)
	if err != nil {
		t.Fatalf("LastPick() error = %v", err)
	}
	if rec.RunID != run.RunID || rec.Status != "PICK" || rec.Mode != "D" {
		t.Errorf("journal record = %+v", rec)
	}

	// Same pick within the cooldown: journalled once, alerted once.
	clk.Advance(10 * time.Minute)
	run = w.RunOnce(context.Background())
	if run.Stored != 0 || run.Alerts != 0 || n.count() != 1 {
		t.Errorf("second run = %+v, alerts sent %d", run, n.count())
	}

	if st := w.Status(); st.LastRun == nil || st.LastRun.RunID != run.RunID || st.Running {
		t.Errorf("Status() = %+v", st)
	}
}

func TestRunOnceUsesJournalAfterRestart(t *testing.T) {
	j := newJournal(t)
	clk := &clock{now: wednesday}

	first := New(&stubProvider{}, testConfig(), WithJournal(j), WithNotifier(&fakeNotifier{}), WithClock(clk.Now))
	first.RunOnce(context.Background())

	clk.Advance(30 * time.Minute)
	n := &fakeNotifier{}
	restarted := New(&stubProvider{}, testConfig(), WithJournal(j), WithNotifier(n), WithClock(clk.Now))
	if run := restarted.RunOnce(context.Background()); run.Alerts != 0 {
		t.Errorf("alerts within cooldown after restart = %d, want 0", run.Alerts)
	}

	clk.Advance(2 * time.Hour)
	if run := restarted.RunOnce(context.Background()); run.Alerts != 1 {
		t.Errorf("alerts after cooldown = %d, want 1", run.Alerts)
	}
	if !strings.HasPrefix(n.alerts[0].Trigger, "still a pick after") {
		t.Errorf("trigger = %q", n.alerts[0].Trigger)
	}
}

func TestRunOnceFilters(t *testing.T) {
	cfg := testConfig()
	cfg.Command = "analyze:bayern"
	cfg.Date, cfg.League, cfg.Season = "2024-05-14", 78, 2023
	p := &stubProvider{}
	w := New(p, cfg, WithClock((&clock{now: wednesday}).Now))

	run := w.RunOnce(context.Background())
	if run.Fixtures != 1 || run.Picks != 0 {
		t.Errorf("filtered run = %+v", run)
	}
	if q := p.queries[0]; q != (provider.Query{Date: "2024-05-14", League: 78, Season: 2023}) {
		t.Errorf("query = %+v", q)
	}
}

func TestRunOnceFixturesFailure(t *testing.T) {
	w := New(&stubProvider{err: errors.New("Request failed: 500")}, testConfig())

	run := w.RunOnce(context.Background())
	if !strings.Contains(run.Error, "Request failed: 500") {
		t.Errorf("run.Error = %q", run.Error)
	}
	if w.Status().LastRun.Error == "" {
		t.Errorf("Status() does not report the failed run")
	}
}

func TestRunOnceReportsFailureOnce(t *testing.T) {
	p := &stubProvider{err: errors.New("Request failed: 500")}
	n := &fakeNotifier{queued: 3}
	clk := &clock{now: wednesday}
	w := New(p, testConfig(), WithNotifier(n), WithClock(clk.Now))

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	if len(n.texts) != 1 {
		t.Fatalf("failure messages = %q, want exactly one", n.texts)
	}
	if !strings.Contains(n.texts[0], "Request failed: 500") || !strings.Contains(n.texts[0], "2024-05-15") {
		t.Errorf("failure message = %q", n.texts[0])
	}

	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()
	if run := w.RunOnce(context.Background()); run.Error != "" {
		t.Fatalf("recovered run error = %q", run.Error)
	}
	p.mu.Lock()
	p.err = errors.New("Request failed: 503")
	p.mu.Unlock()
	w.RunOnce(context.Background())
	if len(n.texts) != 2 {
		t.Errorf("failure messages after recovery = %d, want 2", len(n.texts))
	}

	if got := w.Status().AlertQueue; got != 3 {
		t.Errorf("Status().AlertQueue = %d, want 3", got)
	}
}

func TestStartStopAsync(t *testing.T) {
	w := New(&stubProvider{}, testConfig())
	if w.IsRunning() {
		t.Fatal("IsRunning() before start")
	}

	if err := w.StartAsync(); err != nil {
		t.Fatalf("StartAsync() error = %v", err)
	}
	if err := w.StartAsync(); err != nil || !w.IsRunning() {
		t.Fatalf("second StartAsync() = %v, running %v", err, w.IsRunning())
	}

	deadline := time.Now().Add(2 * time.Second)
	for w.Status().LastRun == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if w.Status().LastRun == nil {
		t.Fatal("no immediate run after StartAsync")
	}

	w.StopAsync()
	if w.IsRunning() {
		t.Errorf("IsRunning() after StopAsync")
	}
	w.StopAsync()

	if err := w.StartAsync(); err != nil || !w.IsRunning() {
		t.Errorf("restart = %v, running %v", err, w.IsRunning())
	}
	w.StopAsync()
}

func TestShouldAlert(t *testing.T) {
	edge := func(v float64) analysis.Row {
		return analysis.Row{FactorPick: analysis.Away, Edge: &v}
	}
	now := wednesday
	prev := alertState{FactorPick: analysis.Away, Edge: 5, At: now.Add(-10 * time.Minute)}

	tests := []struct {
		name    string
		prev    alertState
		known   bool
		row     analysis.Row
		want    bool
		trigger string
	}{
		{"new", alertState{}, false, edge(5), true, "new pick"},
		{"side changed", alertState{FactorPick: analysis.Home, At: now}, true, edge(5), true, "side changed Home → Away"},
		{"cooldown expired", alertState{FactorPick: analysis.Away, Edge: 5, At: now.Add(-61 * time.Minute)}, true, edge(5), true, "still a pick after 61 minutes"},
		{"edge increased", prev, true, edge(7.5), true, "edge +2.50"},
		{"exact min increase", prev, true, edge(7), true, "edge +2.00"},
		{"duplicate", prev, true, edge(6), false, "alerted 10 minutes ago, edge +1.00 < 2.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, trigger := shouldAlert(tt.prev, tt.known, tt.row, now, time.Hour, 2)
			if got != tt.want || trigger != tt.trigger {
				t.Errorf("shouldAlert() = %v, %q; want %v, %q", got, trigger, tt.want, tt.trigger)
			}
		})
	}
}
