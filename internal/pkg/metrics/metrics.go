// Package metrics provides Prometheus metrics for fetching and analysis.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects easepick metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests *prometheus.CounterVec

	// Loader metrics
	FixtureLoads  *prometheus.CounterVec
	OddsFailures  prometheus.Counter
	LastBatchSize prometheus.Gauge
	LoadDuration  prometheus.Histogram

	// Analysis metrics
	AnalysisRuns  prometheus.Counter
	Outcomes      *prometheus.CounterVec
	LastPicks     prometheus.Gauge
	AlertsSent    prometheus.Counter
	JournalWrites *prometheus.CounterVec
}

// New creates a metrics collector with every metric registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easepick_upstream_requests_total",
				Help: "Requests sent to the odds provider",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easepick_upstream_request_duration_seconds",
				Help:    "Latency of odds provider requests",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"endpoint"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easepick_odds_cache_lookups_total",
				Help: "Odds cache lookups by result",
			},
			[]string{"result"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easepick_http_requests_total",
				Help: "Requests served by the HTTP API",
			},
			[]string{"route", "status"},
		),

		FixtureLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easepick_fixture_loads_total",
				Help: "Fixture batch loads by result",
			},
			[]string{"result"},
		),
		OddsFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "easepick_odds_failures_total",
				Help: "Fixtures whose odds could not be fetched",
			},
		),
		LastBatchSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easepick_last_batch_fixtures",
				Help: "Number of fixtures in the last loaded batch",
			},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "easepick_load_duration_seconds",
				Help:    "Time to load fixtures with odds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),

		AnalysisRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "easepick_analysis_runs_total",
				Help: "Analysis runs over a fixture batch",
			},
		),
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easepick_outcomes_total",
				Help: "Comprehensive tier classifications by status",
			},
			[]string{"status"},
		),
		LastPicks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "easepick_last_run_picks",
				Help: "Picks found by the last analysis run",
			},
		),
		AlertsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "easepick_alerts_sent_total",
				Help: "Pick alerts queued for Telegram",
			},
		),
		JournalWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easepick_journal_writes_total",
				Help: "Pick journal writes by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.CacheLookups,
		m.HTTPRequests,
		m.FixtureLoads,
		m.OddsFailures,
		m.LastBatchSize,
		m.LoadDuration,
		m.AnalysisRuns,
		m.Outcomes,
		m.LastPicks,
		m.AlertsSent,
		m.JournalWrites,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// --- Helper methods for recording metrics ---

// RecordRequest records one upstream request.
func (m *Metrics) RecordRequest(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordHTTPRequest records one request served by the API.
func (m *Metrics) RecordHTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
}

// RecordCacheLookup records an odds cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordLoad records a fixture batch load.
func (m *Metrics) RecordLoad(fixtures, oddsFailures int, d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FixtureLoads.WithLabelValues("error").Inc()
		return
	}
	m.FixtureLoads.WithLabelValues("ok").Inc()
	m.OddsFailures.Add(float64(oddsFailures))
	m.LastBatchSize.Set(float64(fixtures))
	m.LoadDuration.Observe(d.Seconds())
}

// RecordAnalysis records the totals of one analysis run.
func (m *Metrics) RecordAnalysis(picks, flags int) {
	if m == nil {
		return
	}
	m.AnalysisRuns.Inc()
	m.Outcomes.WithLabelValues("PICK").Add(float64(picks))
	m.Outcomes.WithLabelValues("FLAG").Add(float64(flags))
	m.LastPicks.Set(float64(picks))
}

// RecordAlert records a queued pick alert.
func (m *Metrics) RecordAlert() {
	if m == nil {
		return
	}
	m.AlertsSent.Inc()
}

// RecordJournalWrite records a journal write result.
func (m *Metrics) RecordJournalWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.JournalWrites.WithLabelValues("error").Inc()
		return
	}
	m.JournalWrites.WithLabelValues("ok").Inc()
}
