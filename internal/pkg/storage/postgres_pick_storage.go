package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// Ensure PostgresPickStorage implements PickStorage
var _ PickStorage = (*PostgresPickStorage)(nil)

// PostgresPickStorage stores PickRecord rows in PostgreSQL
type PostgresPickStorage struct {
	db *sql.DB
}

// NewPostgresPickStorage opens the journal database and creates the schema if needed.
func NewPostgresPickStorage(dsn string) (*PostgresPickStorage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresPickStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("PostgreSQL pick journal initialized successfully")
	return s, nil
}

func (s *PostgresPickStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS pick_journal (
		id SERIAL PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		fixture_id BIGINT NOT NULL,
		match_key VARCHAR(500) NOT NULL,
		match_name VARCHAR(500) NOT NULL,
		league VARCHAR(200) NOT NULL,
		kickoff TIMESTAMP NOT NULL,
		mode VARCHAR(2) NOT NULL,
		market_pick VARCHAR(10) NOT NULL,
		factor_pick VARCHAR(10) NOT NULL,
		confidence DECIMAL(10, 4) NOT NULL,
		edge DECIMAL(10, 4) NOT NULL,
		status VARCHAR(10) NOT NULL,
		flag_threshold VARCHAR(100) NOT NULL,
		reason TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(match_key, mode, factor_pick, status)
	);

	CREATE INDEX IF NOT EXISTS idx_pick_journal_fixture_id ON pick_journal(fixture_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_pick_journal_created_at ON pick_journal(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StorePick stores a record if it doesn't already exist
func (s *PostgresPickStorage) StorePick(ctx context.Context, rec *PickRecord) (bool, error) {
	query := `
	INSERT INTO pick_journal (
		run_id, fixture_id, match_key, match_name, league, kickoff,
		mode, market_pick, factor_pick, confidence, edge,
		status, flag_threshold, reason, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (match_key, mode, factor_pick, status) DO NOTHING
	RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.RunID,
		rec.FixtureID,
		rec.MatchKey,
		rec.MatchName,
		rec.League,
		rec.Kickoff,
		rec.Mode,
		rec.MarketPick,
		rec.FactorPick,
		rec.Confidence,
		rec.Edge,
		rec.Status,
		rec.FlagThreshold,
		rec.Reason,
		rec.CreatedAt,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		// Record already exists (conflict)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to store pick: %w", err)
	}

	rec.ID = id
	return true, nil
}

const postgresSelectPicks = `
	SELECT id, run_id, fixture_id, match_key, match_name, league, kickoff,
		mode, market_pick, factor_pick, confidence, edge,
		status, flag_threshold, reason, created_at
	FROM pick_journal
`

func (s *PostgresPickStorage) RecentPicks(ctx context.Context, limit int) ([]PickRecord, error) {
	rows, err := s.db.QueryContext(ctx, postgresSelectPicks+` ORDER BY created_at DESC, id DESC LIMIT $1`, recentLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent picks: %w", err)
	}
	return scanPicks(rows)
}

func (s *PostgresPickStorage) LastPick(ctx context.Context, fixtureID int64) (*PickRecord, error) {
	rows, err := s.db.QueryContext(ctx, postgresSelectPicks+` WHERE fixture_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query last pick: %w", err)
	}
	return firstPick(rows)
}

// Close closes the database connection
func (s *PostgresPickStorage) Close() error {
	return s.db.Close()
}

func scanPicks(rows *sql.Rows) ([]PickRecord, error) {
	defer rows.Close()

	var picks []PickRecord
	for rows.Next() {
		var rec PickRecord
		err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.FixtureID,
			&rec.MatchKey,
			&rec.MatchName,
			&rec.League,
			&rec.Kickoff,
			&rec.Mode,
			&rec.MarketPick,
			&rec.FactorPick,
			&rec.Confidence,
			&rec.Edge,
			&rec.Status,
			&rec.FlagThreshold,
			&rec.Reason,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return picks, nil
}

func firstPick(rows *sql.Rows) (*PickRecord, error) {
	picks, err := scanPicks(rows)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return nil, ErrNotFound
	}
	return &picks[0], nil
}
