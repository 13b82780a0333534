package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

var _ PickStorage = (*SQLitePickStorage)(nil)

// SQLitePickStorage is a file-backed journal for single-machine setups.
// Timestamps are stored as RFC 3339 text in UTC.
type SQLitePickStorage struct {
	db *sql.DB
}

// NewSQLitePickStorage opens (or creates) the journal at path. ":memory:" is accepted.
func NewSQLitePickStorage(path string) (*SQLitePickStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLitePickStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Printf("SQLite pick journal initialized at %s", path)
	return s, nil
}

func (s *SQLitePickStorage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pick_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			fixture_id INTEGER NOT NULL,
			match_key TEXT NOT NULL,
			match_name TEXT NOT NULL,
			league TEXT NOT NULL,
			kickoff TEXT NOT NULL,
			mode TEXT NOT NULL,
			market_pick TEXT NOT NULL,
			factor_pick TEXT NOT NULL,
			confidence REAL NOT NULL,
			edge REAL NOT NULL,
			status TEXT NOT NULL,
			flag_threshold TEXT NOT NULL,
			reason TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(match_key, mode, factor_pick, status)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pick_journal_fixture_id ON pick_journal(fixture_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_pick_journal_created_at ON pick_journal(created_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLitePickStorage) StorePick(ctx context.Context, rec *PickRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO pick_journal (
		run_id, fixture_id, match_key, match_name, league, kickoff,
		mode, market_pick, factor_pick, confidence, edge,
		status, flag_threshold, reason, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.FixtureID,
		rec.MatchKey,
		rec.MatchName,
		rec.League,
		formatTimestamp(rec.Kickoff),
		rec.Mode,
		rec.MarketPick,
		rec.FactorPick,
		rec.Confidence,
		rec.Edge,
		rec.Status,
		rec.FlagThreshold,
		rec.Reason,
		formatTimestamp(rec.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to store pick: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to store pick: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return true, nil
}

const sqliteSelectPicks = `
	SELECT id, run_id, fixture_id, match_key, match_name, league, kickoff,
		mode, market_pick, factor_pick, confidence, edge,
		status, flag_threshold, reason, created_at
	FROM pick_journal
`

func (s *SQLitePickStorage) RecentPicks(ctx context.Context, limit int) ([]PickRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectPicks+` ORDER BY created_at DESC, id DESC LIMIT ?`, recentLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent picks: %w", err)
	}
	return scanSQLitePicks(rows)
}

func (s *SQLitePickStorage) LastPick(ctx context.Context, fixtureID int64) (*PickRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectPicks+` WHERE fixture_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query last pick: %w", err)
	}
	picks, err := scanSQLitePicks(rows)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return nil, ErrNotFound
	}
	return &picks[0], nil
}

func (s *SQLitePickStorage) Close() error {
	return s.db.Close()
}

func scanSQLitePicks(rows *sql.Rows) ([]PickRecord, error) {
	defer rows.Close()

	var picks []PickRecord
	for rows.Next() {
		var rec PickRecord
		var kickoff, createdAt string
		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.FixtureID,
			&rec.MatchKey,
			&rec.MatchName,
			&rec.League,
			&kickoff,
			&rec.Mode,
			&rec.MarketPick,
			&rec.FactorPick,
			&rec.Confidence,
			&rec.Edge,
			&rec.Status,
			&rec.FlagThreshold,
			&rec.Reason,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		if rec.Kickoff, err = parseTimestamp(kickoff); err != nil {
			return nil, fmt.Errorf("failed to parse kickoff: %w", err)
		}
		if rec.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		picks = append(picks, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return picks, nil
}

// timestampLayout sorts lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
