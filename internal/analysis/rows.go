package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Vodeneev/easepick/internal/pkg/format"
	"github.com/Vodeneev/easepick/internal/pkg/models"
)

// Mode is the display name of a tier: B (baseline), C (overlay), D (comprehensive).
type Mode string

const (
	ModeB Mode = "B"
	ModeC Mode = "C"
	ModeD Mode = "D"
)

var ErrUnknownMode = errors.New("unknown analysis mode")

// ParseMode accepts "b", "C", " d " etc. Empty input selects mode B.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "B":
		return ModeB, nil
	case "C":
		return ModeC, nil
	case "D":
		return ModeD, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

func (m Mode) Tier() Tier {
	switch m {
	case ModeC:
		return TierOverlay
	case ModeD:
		return TierComprehensive
	}
	return TierBaseline
}

// Column headers, shared by tables, CSV and summaries.
const (
	ColLeagues       = "Leagues"
	ColTime          = "UTC/Local Time"
	ColMarketPick    = "Market pick"
	ColFactorPick    = "Factor pick"
	ColFactorReason  = "Reason for factor pick"
	ColTeamFavour    = "Team Favour side"
	ColConfidence    = "Factor confidence %"
	ColFlagThreshold = "Flag threshold"
	ColEdgeMargin    = "Edge margin"
	ColChecklistTag  = "Checklist tag"
	ColWinnerMode    = "Winner mode %"
	ColValueMode     = "Value mode %"
	ColRemark        = "Remark"
	ColReason        = "Reason"
)

var modeHeaders = map[Mode][]string{
	ModeB: {ColLeagues, ColTime, ColMarketPick, ColFactorPick, ColFactorReason, ColTeamFavour, ColConfidence, ColFlagThreshold, ColEdgeMargin, ColChecklistTag},
	ModeC: {ColWinnerMode, ColValueMode, ColRemark, ColReason},
	ModeD: {ColLeagues, ColTime, ColMarketPick, ColFactorPick, ColFactorReason, ColTeamFavour, ColConfidence, ColFlagThreshold, ColEdgeMargin},
}

// Headers returns the column set of a mode, or nil for an unknown mode.
func Headers(m Mode) []string {
	h, ok := modeHeaders[m]
	if !ok {
		return nil
	}
	return append([]string(nil), h...)
}

var tierLabels = map[Tier]string{
	TierBaseline:      "Market efficiency baseline",
	TierOverlay:       "Fundamental + technical overlay",
	TierComprehensive: "Comprehensive bias + situational filters",
}

func buildReason(tier Tier, notes []string) string {
	label := tierLabels[tier]
	if len(notes) == 0 {
		return label
	}
	return label + " | " + strings.Join(notes, " · ")
}

// checklistTag collects the reason part of every note, or "Baseline" without notes.
func checklistTag(notes []string) string {
	var tags []string
	for _, n := range notes {
		_, reason, ok := strings.Cut(n, "–")
		if !ok {
			continue
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			tags = append(tags, reason)
		}
	}
	if len(tags) == 0 {
		return "Baseline"
	}
	return strings.Join(tags, ", ")
}

// Row is one fixture analysed under one mode.
// Confidence and Edge are raw numbers; rendering is left to the presentation layer.
type Row struct {
	Mode          Mode           `json:"mode"`
	FixtureID     int64          `json:"fixture_id"`
	Fixture       models.Fixture `json:"fixture"`
	League        string         `json:"league"`
	MarketPick    Side           `json:"market_pick"`
	FactorPick    Side           `json:"factor_pick"`
	Reason        string         `json:"reason"`
	TeamFavour    string         `json:"team_favour"`
	Confidence    *float64       `json:"confidence"` // percent
	Edge          *float64       `json:"edge"`
	Outcome       Outcome        `json:"outcome"`
	ChecklistTag  string         `json:"checklist_tag,omitempty"`
	WinnerModePct string         `json:"winner_mode_pct,omitempty"`
	ValueModePct  string         `json:"value_mode_pct,omitempty"`
	Notes         []string       `json:"notes"`
}

func buildRow(mode Mode, f models.Fixture, marketPick Side, baseline Distribution, adj Adjustment, out Outcome) Row {
	tier := mode.Tier()
	factorPick := adj.Probabilities.Argmax()

	favour := "Split"
	switch factorPick {
	case Home:
		favour = f.Home.Name
	case Away:
		favour = f.Away.Name
	}

	var confidence *float64
	if p := adj.Probabilities.Get(factorPick); !math.IsNaN(p) {
		c := p * 100
		confidence = &c
	}

	row := Row{
		Mode:       mode,
		FixtureID:  f.ID,
		Fixture:    f,
		League:     f.LeagueTitle(),
		MarketPick: marketPick,
		FactorPick: factorPick,
		Reason:     buildReason(tier, adj.Notes),
		TeamFavour: favour,
		Confidence: confidence,
		Edge:       out.Edge,
		Outcome:    out,
		Notes:      adj.Notes,
	}
	switch mode {
	case ModeB:
		row.ChecklistTag = checklistTag(adj.Notes)
	case ModeC:
		row.WinnerModePct = fmt.Sprintf("%.1f", baseline.Get(marketPick)*100)
		row.ValueModePct = fmt.Sprintf("%.1f", adj.Probabilities.Get(factorPick)*100)
	}
	return row
}

// Formatter controls how a row is rendered into text cells.
type Formatter struct {
	// Timezone is "utc", "local" or an IANA zone name.
	Timezone string
	// Missing replaces absent numeric values.
	Missing string
}

// Field returns the display value of a column. ok is false when the row has no value for it.
func (r Row) Field(header string, fm Formatter) (value string, ok bool) {
	switch header {
	case ColLeagues:
		return r.League, true
	case ColTime:
		return format.DateTime(r.Fixture.Date, fm.Timezone), true
	case ColMarketPick:
		return string(r.MarketPick), true
	case ColFactorPick:
		return string(r.FactorPick), true
	case ColFactorReason, ColReason:
		return r.Reason, true
	case ColTeamFavour:
		return r.TeamFavour, true
	case ColConfidence:
		if r.Confidence == nil {
			return fm.Missing, false
		}
		return format.Percentage(*r.Confidence / 100), true
	case ColFlagThreshold:
		return r.Outcome.FlagThreshold, true
	case ColEdgeMargin:
		if r.Edge == nil {
			return fm.Missing, false
		}
		return format.Edge(*r.Edge), true
	case ColChecklistTag:
		if r.Mode != ModeB {
			return fm.Missing, false
		}
		return r.ChecklistTag, true
	case ColWinnerMode:
		return r.WinnerModePct, r.Mode == ModeC
	case ColValueMode:
		return r.ValueModePct, r.Mode == ModeC
	case ColRemark:
		return string(r.Outcome.Status), true
	}
	return fm.Missing, false
}

// Values renders the row under the given headers.
func (r Row) Values(headers []string, fm Formatter) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		v, ok := r.Field(h, fm)
		if !ok {
			v = fm.Missing
		}
		out[i] = v
	}
	return out
}
