package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("odds", "200", time.Second)
	m.RecordCacheLookup(true)
	m.RecordHTTPRequest("/ping", "200")
	m.RecordLoad(2, 0, time.Second, nil)
	m.RecordAnalysis(1, 1)
	m.RecordAlert()
	m.RecordJournalWrite(nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil Metrics handler status = %d, want 404", rec.Code)
	}
}

func TestRecordAnalysis(t *testing.T) {
	m := New()
	m.RecordAnalysis(2, 3)
	m.RecordAnalysis(1, 0)

	out := scrape(t, m)
	for _, want := range []string{
		"easepick_analysis_runs_total 2",
		`easepick_outcomes_total{status="PICK"} 3`,
		`easepick_outcomes_total{status="FLAG"} 3`,
		"easepick_last_run_picks 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRecordLoad(t *testing.T) {
	m := New()
	m.RecordLoad(5, 2, time.Second, nil)
	m.RecordLoad(0, 0, 0, errors.New("boom"))

	out := scrape(t, m)
	for _, want := range []string{
		"easepick_last_batch_fixtures 5",
		"easepick_odds_failures_total 2",
		`easepick_fixture_loads_total{result="error"} 1`,
		`easepick_fixture_loads_total{result="ok"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
