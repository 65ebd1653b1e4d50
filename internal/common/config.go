package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Data        DataConfig    `toml:"data"`
	Logging     LoggingConfig `toml:"logging"`
	Backend     BackendConfig `toml:"backend"`
	EODHD       EODHDConfig   `toml:"eodhd"`
	Update      UpdateConfig  `toml:"update"`
	Stream      StreamConfig  `toml:"stream"`
}

// DataConfig configures the local snapshot root directory.
type DataConfig struct {
	Root string `toml:"root" validate:"required"` // Root directory for JSON snapshots and logo images
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// BackendConfig configures the Ascentrade GraphQL backend connection.
type BackendConfig struct {
	URL       string `toml:"url" validate:"required,url"`
	TokenPath string `toml:"token_path" validate:"required"` // File containing the x-auth-token value
	Timeout   string `toml:"timeout"`                        // e.g., "60s"
}

// EODHDConfig configures the EODHD API client.
type EODHDConfig struct {
	APIKey          string `toml:"api_key" validate:"required"`
	BaseURL         string `toml:"base_url"`          // Override for testing; empty = production API
	RateLimit       int    `toml:"rate_limit"`        // Requests per second
	APILimitReserve int    `toml:"api_limit_reserve"` // Daily API calls kept in reserve by the oldest-first loop
}

// UpdateConfig controls which phases of the update cycle run.
type UpdateConfig struct {
	DailyRun     bool     `toml:"daily_run"`      // Bulk quotes/splits/dividends after each trading day
	Days         []string `toml:"days"`           // ISO dates for first-run bulk backfill
	Delisted     bool     `toml:"delisted"`       // Fetch the delisted ticker list on first run
	InitialRun   bool     `toml:"initial_run"`    // Anchor ETF + constituents full update on first run
	AddNewTicker bool     `toml:"add_new_ticker"` // Allow securities not yet known to the backend
	TopStocks    bool     `toml:"top_stocks"`     // Full update of the top US stocks list each cycle
	TopETFs      bool     `toml:"top_etfs"`       // Full update of the top US ETFs list each cycle
	Oldest       bool     `toml:"oldest"`         // Opportunistic oldest-first refresh bounded by API budget
	Schedule     string   `toml:"schedule"`       // Cron expression for the daily run
}

// StreamConfig configures the optional live trade stream.
type StreamConfig struct {
	Enabled bool     `toml:"enabled"`
	Symbols []string `toml:"symbols"`
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Data: DataConfig{
			Root: "./data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Backend: BackendConfig{
			URL:       "http://localhost:8080/graphql",
			TokenPath: "./auth.token",
			Timeout:   "60s",
		},
		EODHD: EODHDConfig{
			RateLimit:       10,
			APILimitReserve: 10000,
		},
		Update: UpdateConfig{
			DailyRun:     true,
			AddNewTicker: false,
			Schedule:     "0 2 * * *",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EODSYNC_ENV"); env != "" {
		config.Environment = env
	}
	if root := os.Getenv("EODSYNC_DATA_ROOT"); root != "" {
		config.Data.Root = root
	}
	if level := os.Getenv("EODSYNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if url := os.Getenv("EODSYNC_BACKEND_URL"); url != "" {
		config.Backend.URL = url
	}
	if tokenPath := os.Getenv("EODSYNC_BACKEND_TOKEN_PATH"); tokenPath != "" {
		config.Backend.TokenPath = tokenPath
	}
	if apiKey := os.Getenv("EODSYNC_EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	}
	if reserve := os.Getenv("EODSYNC_EODHD_API_LIMIT_RESERVE"); reserve != "" {
		config.EODHD.APILimitReserve = ParseInt(reserve, config.EODHD.APILimitReserve)
	}
	if days := os.Getenv("EODSYNC_UPDATE_DAYS"); days != "" {
		config.Update.Days = strings.Split(strings.ReplaceAll(days, " ", ""), ",")
	}
	if schedule := os.Getenv("EODSYNC_UPDATE_SCHEDULE"); schedule != "" {
		config.Update.Schedule = schedule
	}

	// Boolean phase toggles
	boolOverride(&config.Update.DailyRun, "EODSYNC_UPDATE_DAILY_RUN")
	boolOverride(&config.Update.Delisted, "EODSYNC_UPDATE_DELISTED")
	boolOverride(&config.Update.InitialRun, "EODSYNC_UPDATE_INITIAL_RUN")
	boolOverride(&config.Update.AddNewTicker, "EODSYNC_UPDATE_ADD_NEW_TICKER")
	boolOverride(&config.Update.TopStocks, "EODSYNC_UPDATE_TOP_STOCKS")
	boolOverride(&config.Update.TopETFs, "EODSYNC_UPDATE_TOP_ETFS")
	boolOverride(&config.Update.Oldest, "EODSYNC_UPDATE_OLDEST")
	boolOverride(&config.Stream.Enabled, "EODSYNC_STREAM_ENABLED")
}

func boolOverride(target *bool, envKey string) {
	if v := os.Getenv(envKey); v != "" {
		*target = ParseBool(v)
	}
}

// Validate checks the configuration for required fields and consistency
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
		return fmt.Errorf("invalid backend timeout %q: %w", c.Backend.Timeout, err)
	}
	if c.EODHD.APILimitReserve < 0 {
		return fmt.Errorf("eodhd api_limit_reserve must not be negative")
	}
	return nil
}

// BackendTimeout returns the parsed backend HTTP timeout.
func (c *Config) BackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// BackfillDates parses the configured first-run backfill dates.
// Unparseable entries are returned in the second value so the caller can log them.
func (c *Config) BackfillDates() ([]time.Time, []string) {
	var dates []time.Time
	var invalid []string
	for _, s := range c.Update.Days {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		dates = append(dates, t)
	}
	return dates, invalid
}

// ParseInt parses an integer from a string, returning def on failure.
func ParseInt(value string, def int) int {
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return n
}
