package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vodeneev/easepick/internal/app"
	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/logging"
	"github.com/Vodeneev/easepick/internal/pkg/metrics"
	"github.com/Vodeneev/easepick/internal/server"
	"github.com/Vodeneev/easepick/internal/session"
	"github.com/Vodeneev/easepick/internal/watcher"
)

const (
	defaultConfigPath = "configs/analyzer.yaml"
)

func main() {
	fmt.Println("Starting EasePick analyzer...")

	var configPath string
	var addr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address, overrides server.addr (e.g. :8080)")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	_, err = logging.SetupLogger(&cfg.Logging, "analyzer")
	if err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	} else {
		slog.Info("Logging initialized", "service", "analyzer")
	}

	for _, name := range cfg.ApplyEnv(os.Getenv) {
		slog.Info("Using setting from environment", "var", name)
	}

	diags, err := cfg.Validate()
	for _, d := range diags {
		if d.Level == config.LevelError {
			slog.Error("Invalid configuration", "message", d.Message)
		} else {
			slog.Warn("Configuration warning", "message", d.Message)
		}
	}
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}

	m := metrics.New()

	p, closeProvider := app.NewProvider(cfg, m)
	defer closeProvider()

	journal, err := app.NewJournal(cfg)
	if err != nil {
		log.Fatalf("analyzer: failed to open pick journal: %v", err)
	}
	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				log.Printf("analyzer: error closing pick journal: %v", err)
			}
		}()
		log.Printf("analyzer: pick journal enabled (%s)", cfg.Journal.Driver)
	}

	notifier, err := app.NewNotifier(cfg)
	if err != nil {
		log.Printf("analyzer: warning: telegram alerts disabled: %v", err)
	}

	opts := []watcher.Option{
		watcher.WithMetrics(m),
		watcher.WithConcurrency(cfg.API.Concurrency),
	}
	if journal != nil {
		opts = append(opts, watcher.WithJournal(journal))
	}
	if notifier != nil {
		defer notifier.Stop()
		opts = append(opts, watcher.WithNotifier(notifier))
	}
	w := watcher.New(p, cfg.Watcher, opts...)

	sess := session.New(p, session.Options{
		Concurrency: cfg.API.Concurrency,
		Debounce:    cfg.Server.Debounce,
		Metrics:     m,
	})
	defer sess.Close()

	srv := server.New(cfg, sess, server.Options{
		Watcher:     w,
		Journal:     journal,
		Metrics:     m,
		Diagnostics: diags,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping analyzer...")
		cancel()
	}()

	slog.Info("Analyzer started", "provider", p.Name(), "addr", cfg.Server.Addr, "watcher", cfg.Watcher.Enabled)
	serve(ctx, cancel, srv, w)

	slog.Info("EasePick analyzer stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		log.Printf("analyzer: %s not found, using defaults", path)
		return config.Default(), nil
	}
	fmt.Printf("Loading config from: %s\n", path)
	return config.Load(path)
}

type httpServer interface {
	Run(ctx context.Context) error
}

type backgroundWatcher interface {
	Start(ctx context.Context) error
}

// serve runs the HTTP server and the watcher until ctx is cancelled or either fails,
// and returns once the server has finished shutting down.
func serve(ctx context.Context, cancel context.CancelFunc, srv httpServer, w backgroundWatcher) {
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := srv.Run(ctx); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if err := w.Start(ctx); err != nil {
		slog.Error("Watcher failed", "error", err)
		cancel()
	}

	<-serverDone
}
