package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/models"
)

const defaultConcurrency = 4

// Result is the outcome of loading the odds of one fixture.
// Index is the position of the fixture in the input slice.
type Result struct {
	Index int
	Entry models.Entry
}

// LoadOptions tunes the batch loader.
type LoadOptions struct {
	// Concurrency bounds parallel odds requests. Defaults to 4.
	Concurrency int

	// Progress, if set, is called with every finished fixture.
	Progress func(done, total int, r Result)

	Metrics *metrics.Metrics
}

// StreamFixturesWithOdds fetches odds for every fixture with bounded concurrency.
// Results arrive in completion order and the channel is closed when all are done
// or ctx is cancelled. A failed odds request becomes Entry.Error; it never stops the batch.
func StreamFixturesWithOdds(ctx context.Context, p Provider, fixtures []models.Fixture, concurrency int) <-chan Result {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	out := make(chan Result)

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(concurrency)

		for i, f := range fixtures {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				entry := models.Entry{Fixture: f, Markets: models.Markets{}}
				markets, err := p.Odds(ctx, f.ID)
				if err != nil {
					entry.Error = err.Error()
					slog.Warn("Odds request failed", "fixture_id", f.ID, "provider", p.Name(), "error", err)
				} else if markets != nil {
					entry.Markets = markets
				}

				select {
				case out <- Result{Index: i, Entry: entry}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// LoadFixturesWithOdds loads the fixtures of q and their odds, preserving the provider's fixture order.
// Only a failed fixtures request fails the whole batch.
func LoadFixturesWithOdds(ctx context.Context, p Provider, q Query, opts LoadOptions) ([]models.Entry, error) {
	start := time.Now()

	fixtures, err := p.Fixtures(ctx, q)
	if err != nil {
		opts.Metrics.RecordLoad(0, 0, time.Since(start), err)
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	fillLeagueLogos(ctx, p, fixtures)

	entries := make([]models.Entry, len(fixtures))
	done, failed := 0, 0
	for r := range StreamFixturesWithOdds(ctx, p, fixtures, opts.Concurrency) {
		entries[r.Index] = r.Entry
		done++
		if r.Entry.Error != "" {
			failed++
		}
		if opts.Progress != nil {
			opts.Progress(done, len(fixtures), r)
		}
	}
	if err := ctx.Err(); err != nil {
		opts.Metrics.RecordLoad(0, 0, time.Since(start), err)
		return nil, fmt.Errorf("load odds: %w", err)
	}

	opts.Metrics.RecordLoad(len(entries), failed, time.Since(start), nil)
	slog.Info("Fixtures loaded",
		"provider", p.Name(),
		"fixtures", len(entries),
		"odds_failures", failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return entries, nil
}

// fillLeagueLogos looks up missing league logos once per league.
func fillLeagueLogos(ctx context.Context, p Provider, fixtures []models.Fixture) {
	logos := map[int]string{}
	for i := range fixtures {
		league := fixtures[i].League
		if league.Logo != "" || league.ID == 0 {
			continue
		}
		logo, ok := logos[league.ID]
		if !ok {
			logo = p.LeagueLogo(ctx, league)
			logos[league.ID] = logo
		}
		fixtures[i].League.Logo = logo
	}
}
