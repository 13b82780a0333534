// Package app builds the runtime dependencies selected by the configuration.
package app

import (
	"fmt"
	"log/slog"

	"github.com/Vodeneev/easepick/internal/notify"
	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/pkg/storage"
	"github.com/Vodeneev/easepick/internal/provider"
	"github.com/Vodeneev/easepick/internal/provider/apifootball"
	"github.com/Vodeneev/easepick/internal/provider/demo"
)

// NewProvider chooses the demo or the live provider once at startup.
// The returned cleanup func releases the odds cache and is never nil.
func NewProvider(cfg *config.Config, m *metrics.Metrics) (provider.Provider, func()) {
	if cfg.DemoMode() {
		slog.Warn("Using demo provider", "demo_flag", cfg.API.Demo)
		return demo.New(), func() {}
	}

	client := apifootball.NewClient(cfg.API.Key,
		apifootball.WithHost(cfg.API.Host),
		apifootball.WithRapidAPIKey(cfg.API.RapidAPIKey),
		apifootball.WithBookmaker(cfg.API.Bookmaker),
		apifootball.WithTimeout(cfg.API.Timeout),
		apifootball.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		apifootball.WithMetrics(m),
	)
	slog.Info("Using live provider", "host", cfg.API.Host, "bookmaker", cfg.API.Bookmaker)

	if !cfg.Cache.Enabled {
		return client, func() {}
	}
	cache, err := storage.NewRedisOddsCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
	if err != nil {
		slog.Warn("Odds cache unavailable, requesting odds without cache", "addr", cfg.Cache.Addr, "error", err)
		return client, func() {}
	}
	slog.Info("Odds cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	return provider.WithOddsCache(client, cache, m), func() {
		if err := cache.Close(); err != nil {
			slog.Warn("Failed to close odds cache", "error", err)
		}
	}
}

// NewJournal opens the configured pick journal. It returns nil when no driver is set.
func NewJournal(cfg *config.Config) (storage.PickStorage, error) {
	switch cfg.Journal.Driver {
	case "":
		return nil, nil
	case "postgres":
		j, err := storage.NewPostgresPickStorage(cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "sqlite":
		j, err := storage.NewSQLitePickStorage(cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, fmt.Errorf("unknown journal driver %q", cfg.Journal.Driver)
}

// NewNotifier connects the Telegram bot used for alerts.
// It returns nil when the bot token or the chat id is missing.
func NewNotifier(cfg *config.Config) (*notify.TelegramNotifier, error) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		return nil, nil
	}
	return notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
}
