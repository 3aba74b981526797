package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/dyike/CortexSI/pkg/dataflows"
	"github.com/dyike/CortexSI/pkg/errors"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	ResultsDir string `json:"results_dir"`

	TelegramChannels     []string `json:"telegram_channels"`
	TelegramChannelsFile string   `json:"telegram_channels_file"`
	TelegramDaysBack     int      `json:"telegram_days_back"`

	RedditEnabled    bool     `json:"reddit_enabled"`
	RedditSubreddits []string `json:"reddit_subreddits"`
	RedditUserAgent  string   `json:"reddit_user_agent"`

	NaverEnabled bool `json:"naver_enabled"`

	LimitPerSource    int    `json:"limit_per_source"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	TelegramDelayMs   int    `json:"telegram_delay_ms"`
	RedditDelayMs     int    `json:"reddit_delay_ms"`
	NaverDelayMs      int    `json:"naver_delay_ms"`
	UserAgent         string `json:"user_agent"`

	LogLevel string `json:"log_level"`
	LogEnv   string `json:"log_env"`
	Debug    bool   `json:"debug"`

	// Watch mode
	MetricsAddr   string   `json:"metrics_addr"`
	WatchSchedule string   `json:"watch_schedule"`
	WatchTickers  []string `json:"watch_tickers"`
}

// DefaultConfig returns defaults rooted at the working directory, overridden
// by .env and CORTEXSI_* variables.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()
	return cfg
}

// DefaultConfigWithRoot returns defaults only, with directories under root.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir: root,
		ResultsDir: filepath.Join(root, "results"),

		TelegramChannels:     []string{},
		TelegramChannelsFile: filepath.Join(root, "config", "telegram_channels.json"),
		TelegramDaysBack:     7,

		RedditEnabled:    true,
		RedditSubreddits: []string{},
		RedditUserAgent:  "CortexSI/1.0",

		NaverEnabled: true,

		LimitPerSource:    100,
		RequestTimeoutSec: 15,
		TelegramDelayMs:   1000,
		RedditDelayMs:     1000,
		NaverDelayMs:      300,

		LogLevel: "info",
		LogEnv:   "development",

		MetricsAddr:   ":9090",
		WatchSchedule: "0 9-15 * * 1-5",
		WatchTickers:  []string{},
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("CORTEXSI_PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("CORTEXSI_RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}

	if val := os.Getenv("CORTEXSI_TELEGRAM_CHANNELS"); val != "" {
		c.TelegramChannels = splitList(val)
	}
	if val := os.Getenv("CORTEXSI_TELEGRAM_CHANNELS_FILE"); val != "" {
		c.TelegramChannelsFile = val
	}
	envInt("CORTEXSI_TELEGRAM_DAYS_BACK", &c.TelegramDaysBack)

	envBool("CORTEXSI_REDDIT_ENABLED", &c.RedditEnabled)
	if val := os.Getenv("CORTEXSI_REDDIT_SUBREDDITS"); val != "" {
		c.RedditSubreddits = splitList(val)
	}
	if val := os.Getenv("CORTEXSI_REDDIT_USER_AGENT"); val != "" {
		c.RedditUserAgent = val
	}

	envBool("CORTEXSI_NAVER_ENABLED", &c.NaverEnabled)

	envInt("CORTEXSI_LIMIT_PER_SOURCE", &c.LimitPerSource)
	envInt("CORTEXSI_REQUEST_TIMEOUT_SEC", &c.RequestTimeoutSec)
	envInt("CORTEXSI_TELEGRAM_DELAY_MS", &c.TelegramDelayMs)
	envInt("CORTEXSI_REDDIT_DELAY_MS", &c.RedditDelayMs)
	envInt("CORTEXSI_NAVER_DELAY_MS", &c.NaverDelayMs)
	if val := os.Getenv("CORTEXSI_USER_AGENT"); val != "" {
		c.UserAgent = val
	}

	if val := os.Getenv("CORTEXSI_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("CORTEXSI_LOG_ENV"); val != "" {
		c.LogEnv = val
	}
	envBool("CORTEXSI_DEBUG", &c.Debug)

	if val, ok := os.LookupEnv("CORTEXSI_METRICS_ADDR"); ok {
		c.MetricsAddr = val
	}
	if val := os.Getenv("CORTEXSI_WATCH_SCHEDULE"); val != "" {
		c.WatchSchedule = val
	}
	if val := os.Getenv("CORTEXSI_WATCH_TICKERS"); val != "" {
		c.WatchTickers = splitList(val)
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			*dst = v
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			*dst = v
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	errs := &errors.MultiError{}
	if strings.TrimSpace(c.ResultsDir) == "" {
		errs.Add(errors.Wrap(errors.ErrInvalidInput, "results_dir is empty"))
	}
	if c.LimitPerSource <= 0 {
		errs.Add(errors.Wrapf(errors.ErrInvalidInput, "limit_per_source must be positive, got %d", c.LimitPerSource))
	}
	if c.RequestTimeoutSec <= 0 {
		errs.Add(errors.Wrapf(errors.ErrInvalidInput, "request_timeout_sec must be positive, got %d", c.RequestTimeoutSec))
	}
	if c.TelegramDaysBack < 0 {
		errs.Add(errors.Wrapf(errors.ErrInvalidInput, "telegram_days_back must not be negative, got %d", c.TelegramDaysBack))
	}
	delays := []struct {
		name  string
		value int
	}{
		{"telegram_delay_ms", c.TelegramDelayMs},
		{"reddit_delay_ms", c.RedditDelayMs},
		{"naver_delay_ms", c.NaverDelayMs},
	}
	for _, d := range delays {
		if d.value < 0 {
			errs.Add(errors.Wrapf(errors.ErrInvalidInput, "%s must not be negative, got %d", d.name, d.value))
		}
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		errs.Add(errors.Wrapf(errors.ErrInvalidInput, "unknown log_level %q", c.LogLevel))
	}
	if c.WatchSchedule != "" {
		if _, err := cron.ParseStandard(c.WatchSchedule); err != nil {
			errs.Add(errors.Wrapf(errors.ErrInvalidInput, "watch_schedule %q: %v", c.WatchSchedule, err))
		}
	}
	return errs.ToError()
}

// HTTPClientConfig is the client setup shared by all sources.
func (c Config) HTTPClientConfig() dataflows.ClientConfig {
	cfg := dataflows.DefaultClientConfig()
	cfg.Timeout = time.Duration(c.RequestTimeoutSec) * time.Second
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	return cfg
}

// RequestIntervals returns the telegram, reddit and naver politeness delays.
func (c Config) RequestIntervals() (telegram, reddit, naver time.Duration) {
	return time.Duration(c.TelegramDelayMs) * time.Millisecond,
		time.Duration(c.RedditDelayMs) * time.Millisecond,
		time.Duration(c.NaverDelayMs) * time.Millisecond
}

// TelegramMaxAge converts days back into a cut-off age; zero means no cut-off.
func (c Config) TelegramMaxAge() time.Duration {
	return time.Duration(c.TelegramDaysBack) * 24 * time.Hour
}

// ResolveTelegramChannels merges configured channels with the catalog file.
// A missing catalog file is not an error.
func (c Config) ResolveTelegramChannels() ([]string, *ChannelCatalog, error) {
	channels := append([]string{}, c.TelegramChannels...)
	if c.TelegramChannelsFile == "" {
		return channels, nil, nil
	}
	catalog, err := LoadChannelCatalog(c.TelegramChannelsFile)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return channels, nil, nil
		}
		return nil, nil, err
	}
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		seen[ch] = true
	}
	for _, ch := range catalog.All() {
		if !seen[ch] {
			seen[ch] = true
			channels = append(channels, ch)
		}
	}
	return channels, catalog, nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
