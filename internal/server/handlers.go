package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/pkg/export"
	"github.com/Vodeneev/easepick/internal/pkg/format"
	"github.com/Vodeneev/easepick/internal/pkg/models"
	"github.com/Vodeneev/easepick/internal/provider"
	"github.com/Vodeneev/easepick/internal/session"
)

type loadRequest struct {
	Date   string `json:"date"`
	League int    `json:"league"`
	Season int    `json:"season"`
	// Command replaces the filters when present; "" clears them.
	Command *string `json:"command"`
}

type loadResponse struct {
	Message      string         `json:"message"`
	Generation   uint64         `json:"generation"`
	Provider     string         `json:"provider"`
	Demo         bool           `json:"demo"`
	Query        provider.Query `json:"query"`
	Fixtures     int            `json:"fixtures"`
	OddsFailures int            `json:"odds_failures"`
	Analysed     int            `json:"analysed"`
	Picks        int            `json:"picks"`
	Flags        int            `json:"flags"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	q := provider.Query{Date: strings.TrimSpace(req.Date), League: req.League, Season: req.Season}
	if q.Date == "" {
		q.Date = s.now().UTC().Format("2006-01-02")
	}
	if err := q.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if req.Command != nil {
		s.session.ApplyFilters(*req.Command)
	}

	snap, err := s.session.Load(r.Context(), q)
	if err != nil {
		status, message := loadErrorStatus(err)
		respondError(w, status, message, err)
		return
	}

	failures := 0
	for _, e := range snap.Entries {
		if e.Error != "" {
			failures++
		}
	}
	message := fmt.Sprintf("Loaded %d fixtures.", len(snap.Entries))
	if len(snap.Entries) == 0 {
		message = "No fixtures found for the selected filters."
	}

	respondJSON(w, http.StatusOK, loadResponse{
		Message:      message,
		Generation:   snap.Generation,
		Provider:     snap.Provider,
		Demo:         s.cfg.DemoMode(),
		Query:        snap.Query,
		Fixtures:     len(snap.Entries),
		OddsFailures: failures,
		Analysed:     snap.Result.Len(),
		Picks:        snap.Result.Picks,
		Flags:        snap.Result.Flags,
	})
}

// loadErrorStatus maps a load failure to an HTTP status and the message shown to the user.
func loadErrorStatus(err error) (int, string) {
	var statusErr *provider.StatusError
	switch {
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, err.Error()
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, statusErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "fixture load timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "fixture load cancelled"
	}
	return http.StatusBadGateway, "failed to load fixtures"
}

type quoteView struct {
	Label string `json:"label"`
	Odd   string `json:"odd"`
}

type marketView struct {
	Key    models.MarketKey `json:"key"`
	Label  string           `json:"label"`
	Quotes []quoteView      `json:"quotes"`
}

type fixtureView struct {
	ID         int64        `json:"id"`
	Kickoff    string       `json:"kickoff"`
	League     string       `json:"league"`
	LeagueLogo string       `json:"league_logo,omitempty"`
	Home       string       `json:"home"`
	Away       string       `json:"away"`
	Venue      string       `json:"venue,omitempty"`
	Markets    []marketView `json:"markets"`
	Error      string       `json:"error,omitempty"`
}

func newFixtureView(e models.Entry, keys []models.MarketKey, tz string) fixtureView {
	f := e.Fixture
	v := fixtureView{
		ID:         f.ID,
		Kickoff:    format.DateTime(f.Date, tz),
		League:     f.LeagueTitle(),
		LeagueLogo: f.League.Logo,
		Home:       f.Home.Name,
		Away:       f.Away.Name,
		Venue:      f.Venue.Name,
		Markets:    []marketView{},
	}
	if e.Error != "" {
		v.Error = "Odds unavailable: " + e.Error
	}
	for _, key := range keys {
		quotes := e.Markets[key]
		if len(quotes) == 0 {
			continue
		}
		mv := marketView{Key: key, Label: models.MarketLabel(key), Quotes: make([]quoteView, 0, len(quotes))}
		for _, q := range quotes {
			mv.Quotes = append(mv.Quotes, quoteView{Label: q.Label, Odd: format.Odd(q.Odd)})
		}
		v.Markets = append(v.Markets, mv)
	}
	return v
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	tz := r.URL.Query().Get("tz")
	if !format.ValidTimezone(tz) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown timezone %q", tz), nil)
		return
	}
	keys := models.ParseMarketKeys(r.URL.Query().Get("markets"))

	snap := s.session.Snapshot()
	fixtures := make([]fixtureView, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		fixtures = append(fixtures, newFixtureView(e, keys, tz))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"loaded":   snap.Loaded(),
		"query":    snap.Query,
		"markets":  keys,
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

type filtersRequest struct {
	Command   string `json:"command"`
	Immediate bool   `json:"immediate"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if !req.Immediate {
		s.session.SetFilters(req.Command)
		respondJSON(w, http.StatusAccepted, map[string]any{
			"status":  "scheduled",
			"command": req.Command,
			"filters": analysis.ParseAnalyzeCommand(req.Command),
		})
		return
	}

	snap := s.session.ApplyFilters(req.Command)
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "applied",
		"command":  snap.Command,
		"filters":  snap.Filters,
		"analysed": snap.Result.Len(),
		"picks":    snap.Result.Picks,
		"flags":    snap.Result.Flags,
	})
}

// view is the mode and timezone a table is rendered with.
type view struct {
	mode analysis.Mode
	tz   string
}

func parseView(r *http.Request) (view, error) {
	mode, err := analysis.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		return view{}, err
	}
	tz := r.URL.Query().Get("tz")
	if !format.ValidTimezone(tz) {
		return view{}, fmt.Errorf("unknown timezone %q", tz)
	}
	return view{mode: mode, tz: tz}, nil
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	v, err := parseView(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	snap := s.session.Snapshot()
	rows := snap.Result.Rows(v.mode)
	respondJSON(w, http.StatusOK, map[string]any{
		"mode":        v.mode,
		"headers":     analysis.Headers(v.mode),
		"rows":        export.TableRows(v.mode, rows, v.tz),
		"details":     rows,
		"picks":       snap.Result.Picks,
		"flags":       snap.Result.Flags,
		"command":     snap.Command,
		"filters":     snap.Filters,
		"analyzed_at": snap.AnalyzedAt,
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	v, err := parseView(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	data, err := export.CSV(v.mode, s.session.Snapshot().Result.Rows(v.mode), v.tz)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to export analysis", err)
		return
	}
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv;charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(v.mode)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleAnalysisSummary(w http.ResponseWriter, r *http.Request) {
	v, err := parseView(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	text := export.Summary(v.mode, s.session.Snapshot().Result.Rows(v.mode), v.tz)
	if text == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondText(w, "text/plain; charset=utf-8", text)
}

type summaryResponse struct {
	Loaded     bool             `json:"loaded"`
	Provider   string           `json:"provider"`
	Demo       bool             `json:"demo"`
	Query      provider.Query   `json:"query"`
	Command    string           `json:"command"`
	Filters    analysis.Filters `json:"filters"`
	Fixtures   int              `json:"fixtures"`
	Analysed   int              `json:"analysed"`
	Picks      int              `json:"picks"`
	Flags      int              `json:"flags"`
	Banner     string           `json:"banner"`
	LoadedAt   *time.Time       `json:"loaded_at,omitempty"`
	AnalyzedAt *time.Time       `json:"analyzed_at,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	resp := summaryResponse{
		Loaded:   snap.Loaded(),
		Provider: snap.Provider,
		Demo:     s.cfg.DemoMode(),
		Query:    snap.Query,
		Command:  snap.Command,
		Filters:  snap.Filters,
		Fixtures: len(snap.Entries),
		Analysed: snap.Result.Len(),
		Picks:    snap.Result.Picks,
		Flags:    snap.Result.Flags,
	}
	resp.Banner = fmt.Sprintf("Picks: %d | Flags: %d", resp.Picks, resp.Flags)
	if resp.Demo {
		resp.Banner += " | Demo mode"
	}
	if resp.Loaded {
		loadedAt, analyzedAt := snap.LoadedAt, snap.AnalyzedAt
		resp.LoadedAt, resp.AnalyzedAt = &loadedAt, &analyzedAt
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"demo":        s.cfg.DemoMode(),
		"host":        s.cfg.API.Host,
		"diagnostics": s.diagnostics,
	})
}
