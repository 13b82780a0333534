package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost        = "https://v3.football.api-sports.io"
	DefaultBookmaker   = 8
	DefaultAddr        = ":8080"
	DefaultConcurrency = 4
	DefaultDebounce    = 400 * time.Millisecond
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Journal  JournalConfig  `yaml:"journal"`
	Telegram TelegramConfig `yaml:"telegram"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type APIConfig struct {
	Host        string        `yaml:"host"`
	Key         string        `yaml:"key"`
	RapidAPIKey string        `yaml:"rapid_api_key"`
	Demo        bool          `yaml:"demo"`
	Bookmaker   int           `yaml:"bookmaker"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second
	Burst       int           `yaml:"burst"`
	Concurrency int           `yaml:"concurrency"` // parallel odds requests per load
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	Debounce          time.Duration `yaml:"debounce"` // delay before filter changes are re-analysed
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type JournalConfig struct {
	Driver string `yaml:"driver"` // "postgres", "sqlite" or empty (disabled)
	DSN    string `yaml:"dsn"`    // postgres DSN or sqlite file path
}

type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	ChatID         int64   `yaml:"chat_id"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	AnalyzerURL    string  `yaml:"analyzer_url"` // used by the bot to reach the analyzer service
}

type WatcherConfig struct {
	Enabled              bool          `yaml:"enabled"`
	Interval             time.Duration `yaml:"interval"`
	Date                 string        `yaml:"date"` // empty means "today" at every run
	League               int           `yaml:"league"`
	Season               int           `yaml:"season"`
	Command              string        `yaml:"command"`
	AlertCooldownMinutes int           `yaml:"alert_cooldown_minutes"`
	AlertMinIncrease     float64       `yaml:"alert_min_increase"` // edge points
}

type LoggingConfig struct {
	Level string `yaml:"level"` // DEBUG, INFO, WARN, ERROR
	File  string `yaml:"file"`  // optional JSON log file
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document and applies defaults. Environment overrides are not applied.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.API.Host == "" {
		c.API.Host = DefaultHost
	}
	if c.API.Bookmaker <= 0 {
		c.API.Bookmaker = DefaultBookmaker
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.RateLimit <= 0 {
		c.API.RateLimit = 5
	}
	if c.API.Burst <= 0 {
		c.API.Burst = 5
	}
	if c.API.Concurrency <= 0 {
		c.API.Concurrency = DefaultConcurrency
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.Debounce <= 0 {
		c.Server.Debounce = DefaultDebounce
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Watcher.Interval <= 0 {
		c.Watcher.Interval = 15 * time.Minute
	}
	if c.Watcher.AlertCooldownMinutes <= 0 {
		c.Watcher.AlertCooldownMinutes = 60
	}
	if c.Watcher.AlertMinIncrease <= 0 {
		c.Watcher.AlertMinIncrease = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
}

// ApplyEnv overrides secrets and endpoints from the environment.
// It returns the names of the variables that were applied.
func (c *Config) ApplyEnv(getenv func(string) string) []string {
	if getenv == nil {
		getenv = os.Getenv
	}
	var applied []string
	set := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
			applied = append(applied, name)
		}
	}

	set("API_FOOTBALL_KEY", &c.API.Key)
	set("RAPIDAPI_KEY", &c.API.RapidAPIKey)
	set("API_FOOTBALL_HOST", &c.API.Host)
	set("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	set("ANALYZER_URL", &c.Telegram.AnalyzerURL)

	if dsn := strings.TrimSpace(getenv("POSTGRES_DSN")); dsn != "" {
		c.Journal.Driver = "postgres"
		c.Journal.DSN = dsn
		applied = append(applied, "POSTGRES_DSN")
	}
	if raw := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); raw != "" {
		if chatID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Telegram.ChatID = chatID
			applied = append(applied, "TELEGRAM_CHAT_ID")
		}
	}
	if addr := strings.TrimSpace(getenv("REDIS_ADDR")); addr != "" {
		c.Cache.Enabled = true
		c.Cache.Addr = addr
		applied = append(applied, "REDIS_ADDR")
	}
	return applied
}

// DemoMode reports whether the canned demo provider is used instead of the live API.
func (c *Config) DemoMode() bool {
	return c.API.Demo || strings.TrimSpace(c.API.Key) == ""
}

type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Diagnostic is a startup finding about the configuration.
type Diagnostic struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Validate reports configuration diagnostics. The returned error is non-nil when any
// diagnostic is an error and the service must not start.
func (c *Config) Validate() ([]Diagnostic, error) {
	var diags []Diagnostic
	warn := func(format string, args ...interface{}) {
		diags = append(diags, Diagnostic{Level: LevelWarning, Message: fmt.Sprintf(format, args...)})
	}
	fail := func(format string, args ...interface{}) {
		diags = append(diags, Diagnostic{Level: LevelError, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case c.API.Demo:
		warn("demo mode enabled in config, serving canned fixtures")
	case strings.TrimSpace(c.API.Key) == "":
		warn("API key is missing, running in demo mode")
	}

	if u, err := url.Parse(c.API.Host); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fail("invalid API host %q", c.API.Host)
	}

	switch c.Journal.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Journal.DSN == "" {
			fail("journal driver %q requires a dsn", c.Journal.Driver)
		}
	default:
		fail("unknown journal driver %q", c.Journal.Driver)
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		fail("cache is enabled but cache.addr is empty")
	}

	if c.Watcher.Enabled {
		if c.Journal.Driver == "" {
			warn("watcher enabled without a journal, alerts are not deduplicated across restarts")
		}
		if c.Watcher.Date != "" {
			if _, err := time.Parse("2006-01-02", c.Watcher.Date); err != nil {
				fail("invalid watcher date %q, expected YYYY-MM-DD", c.Watcher.Date)
			}
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == 0) && c.Watcher.Enabled {
		warn("telegram alerts need both bot_token and chat_id, alerts disabled")
	}

	for _, d := range diags {
		if d.Level == LevelError {
			return diags, fmt.Errorf("invalid configuration: %s", d.Message)
		}
	}
	return diags, nil
}
