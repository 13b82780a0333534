package provider

import (
	"context"
	"log/slog"

	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/models"
)

// OddsCache stores mapped markets per fixture.
type OddsCache interface {
	GetOdds(ctx context.Context, fixtureID int64) (models.Markets, bool, error)
	SetOdds(ctx context.Context, fixtureID int64, markets models.Markets) error
}

// CachedProvider serves odds from an OddsCache before asking the wrapped provider.
// Cache errors are logged and treated as misses.
type CachedProvider struct {
	Provider
	cache   OddsCache
	metrics *metrics.Metrics
}

// WithOddsCache wraps p with cache. A nil cache returns p unchanged.
func WithOddsCache(p Provider, cache OddsCache, m *metrics.Metrics) Provider {
	if cache == nil {
		return p
	}
	return &CachedProvider{Provider: p, cache: cache, metrics: m}
}

func (c *CachedProvider) Odds(ctx context.Context, fixtureID int64) (models.Markets, error) {
	markets, ok, err := c.cache.GetOdds(ctx, fixtureID)
	if err != nil {
		slog.Warn("Odds cache read failed", "fixture_id", fixtureID, "error", err)
	}
	if ok {
		c.metrics.RecordCacheLookup(true)
		return markets, nil
	}
	c.metrics.RecordCacheLookup(false)

	markets, err = c.Provider.Odds(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	// Empty markets are not cached: odds are often published later.
	if len(markets) > 0 {
		if err := c.cache.SetOdds(ctx, fixtureID, markets); err != nil {
			slog.Warn("Odds cache write failed", "fixture_id", fixtureID, "error", err)
		}
	}
	return markets, nil
}
