package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Vodeneev/easepick/internal/analysis"
)

// ErrNotFound is returned when no journal record matches a lookup.
var ErrNotFound = errors.New("not found")

// PickRecord is one journalled classification of a fixture.
type PickRecord struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	FixtureID     int64     `json:"fixture_id"`
	MatchKey      string    `json:"match_key"`
	MatchName     string    `json:"match_name"`
	League        string    `json:"league"`
	Kickoff       time.Time `json:"kickoff"`
	Mode          string    `json:"mode"`
	MarketPick    string    `json:"market_pick"`
	FactorPick    string    `json:"factor_pick"`
	Confidence    float64   `json:"confidence"`
	Edge          float64   `json:"edge"`
	Status        string    `json:"status"`
	FlagThreshold string    `json:"flag_threshold"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewPickRecord converts an analysed row into a journal record.
// Missing confidence or edge values are stored as 0.
func NewPickRecord(runID string, row analysis.Row, now time.Time) *PickRecord {
	rec := &PickRecord{
		RunID:         runID,
		FixtureID:     row.FixtureID,
		MatchKey:      row.Fixture.MatchKey(),
		MatchName:     row.Fixture.Home.Name + " vs " + row.Fixture.Away.Name,
		League:        row.League,
		Kickoff:       row.Fixture.Date.UTC(),
		Mode:          string(row.Mode),
		MarketPick:    string(row.MarketPick),
		FactorPick:    string(row.FactorPick),
		Status:        string(row.Outcome.Status),
		FlagThreshold: row.Outcome.FlagThreshold,
		Reason:        row.Reason,
		CreatedAt:     now.UTC(),
	}
	if row.Confidence != nil {
		rec.Confidence = *row.Confidence
	}
	if row.Edge != nil {
		rec.Edge = *row.Edge
	}
	return rec
}

// PickStorage journals analysed picks.
type PickStorage interface {
	// StorePick stores a record unless the same (match, mode, factor pick, status) is already journalled.
	// Returns true if the record was newly inserted, false if it already existed.
	StorePick(ctx context.Context, rec *PickRecord) (bool, error)

	// RecentPicks returns the newest records first.
	RecentPicks(ctx context.Context, limit int) ([]PickRecord, error)

	// LastPick returns the newest record of a fixture, or ErrNotFound.
	LastPick(ctx context.Context, fixtureID int64) (*PickRecord, error)

	// Close closes the database connection
	Close() error
}

const defaultRecentLimit = 50

func recentLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultRecentLimit
	}
	return limit
}
