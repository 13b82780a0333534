package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/easepick/internal/bot"
	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/logging"
)

const (
	defaultAnalyzerURL = "http://localhost:8080"
)

func main() {
	var configPath string
	var token string
	var analyzerURL string
	var allowedUsers string

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file (optional, can be set via CONFIG_PATH env var)")
	flag.StringVar(&token, "token", "", "Telegram bot token (required, or set TELEGRAM_BOT_TOKEN env var)")
	flag.StringVar(&analyzerURL, "analyzer-url", "", "Analyzer service URL (or set ANALYZER_URL env var)")
	flag.StringVar(&allowedUsers, "allowed-users", "", "Comma-separated list of allowed user IDs (optional)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)

	if _, err := logging.SetupLogger(&cfg.Logging, "telegram-bot"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}

	if token == "" {
		token = cfg.Telegram.BotToken
	}
	if token == "" {
		log.Fatal("Telegram bot token is required. Set -token flag or TELEGRAM_BOT_TOKEN env var")
	}
	if analyzerURL == "" {
		analyzerURL = cfg.Telegram.AnalyzerURL
	}
	if analyzerURL == "" {
		analyzerURL = defaultAnalyzerURL
	}

	allowed := cfg.Telegram.AllowedUserIDs
	if allowedUsers != "" {
		allowed = nil
		for _, idStr := range strings.Split(allowedUsers, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err == nil {
				allowed = append(allowed, id)
			}
		}
	}

	log.Printf("Starting Telegram bot...")
	log.Printf("Analyzer URL: %s", analyzerURL)

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	api.Debug = false
	slog.Info("Authorized on account", "username", api.Self.UserName, "allowed_users", len(allowed))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping bot...")
		cancel()
	}()

	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b := bot.New(api, bot.NewClient(analyzerURL, cfg.API.Timeout*4), allowed)
	b.Run(ctx, updates)
	log.Println("Telegram bot stopped")
}
