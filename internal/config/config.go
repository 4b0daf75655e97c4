// Package config loads crawler settings from defaults, an optional config
// file, a .env file, CATALOG_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-crawler/pkg/client"
	"github.com/Sternrassler/catalog-crawler/pkg/crawl"
	"github.com/Sternrassler/catalog-crawler/pkg/dictionary"
	"github.com/Sternrassler/catalog-crawler/pkg/logging"
	"github.com/Sternrassler/catalog-crawler/pkg/pagination"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CATALOG_WORKERS=8.
const EnvPrefix = "CATALOG"

// Keys.
const (
	KeyBaseURL        = "base_url"
	KeyOutDir         = "out_dir"
	KeyDictOut        = "dict_out"
	KeyPin            = "pin"
	KeyWorkers        = "workers"
	KeySkipDump       = "skip_dump"
	KeyLayout         = "layout"
	KeyResume         = "resume"
	KeyRedisURL       = "redis_url"
	KeyCheckpointTTL  = "checkpoint_ttl"
	KeyMetricsAddr    = "metrics_addr"
	KeyLogLevel       = "log_level"
	KeyLogPretty      = "log_pretty"
	KeyUserAgent      = "user_agent"
	KeyRequestTimeout = "request_timeout"
	KeyMaxAttempts    = "max_attempts"
	KeyInitialBackoff = "initial_backoff"
	KeyPageDelay      = "page_delay"
	KeyMaxPages       = "max_pages"
	KeyProgressEvery  = "progress_every"
)

// Config holds every crawler setting.
type Config struct {
	BaseURL        string
	OutDir         string
	DictOut        string
	Pin            string
	Workers        int
	SkipDump       bool
	Layout         dictionary.Mode
	Resume         bool
	RedisURL       string
	CheckpointTTL  time.Duration
	MetricsAddr    string
	LogLevel       string
	LogPretty      bool
	UserAgent      string
	RequestTimeout time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	PageDelay      time.Duration
	MaxPages       int
	ProgressEvery  int
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	clientDefaults := client.DefaultConfig()
	crawlDefaults := crawl.DefaultConfig()

	v.SetDefault(KeyBaseURL, clientDefaults.BaseURL)
	v.SetDefault(KeyOutDir, "data/full")
	v.SetDefault(KeyDictOut, crawlDefaults.DictOut)
	v.SetDefault(KeyPin, crawlDefaults.Pin)
	v.SetDefault(KeyWorkers, crawlDefaults.Workers)
	v.SetDefault(KeySkipDump, false)
	v.SetDefault(KeyLayout, string(dictionary.ModeAuto))
	v.SetDefault(KeyResume, false)
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyCheckpointTTL, "168h")
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyLogLevel, string(logging.LevelInfo))
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyUserAgent, clientDefaults.UserAgent)
	v.SetDefault(KeyRequestTimeout, clientDefaults.Timeout.String())
	v.SetDefault(KeyMaxAttempts, clientDefaults.Retry.MaxAttempts)
	v.SetDefault(KeyInitialBackoff, clientDefaults.Retry.InitialBackoff.String())
	v.SetDefault(KeyPageDelay, pagination.DefaultConfig().PageDelay.String())
	v.SetDefault(KeyMaxPages, 0)
	v.SetDefault(KeyProgressEvery, crawlDefaults.ProgressEvery)
}

// New returns a viper instance with defaults and environment binding. When
// configFile is set it must exist; otherwise catalog-crawler.{yaml,json,toml}
// is looked up in the working directory and skipped when absent.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("catalog-crawler")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// LoadDotEnv loads KEY=value files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the settings from v and validates them.
func Load(v *viper.Viper) (Config, error) {
	layout, err := dictionary.ParseMode(v.GetString(KeyLayout))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyLayout, err)
	}

	cfg := Config{
		BaseURL:        strings.TrimSpace(v.GetString(KeyBaseURL)),
		OutDir:         strings.TrimSpace(v.GetString(KeyOutDir)),
		DictOut:        strings.TrimSpace(v.GetString(KeyDictOut)),
		Pin:            strings.TrimSpace(v.GetString(KeyPin)),
		Workers:        v.GetInt(KeyWorkers),
		SkipDump:       v.GetBool(KeySkipDump),
		Layout:         layout,
		Resume:         v.GetBool(KeyResume),
		RedisURL:       strings.TrimSpace(v.GetString(KeyRedisURL)),
		CheckpointTTL:  v.GetDuration(KeyCheckpointTTL),
		MetricsAddr:    strings.TrimSpace(v.GetString(KeyMetricsAddr)),
		LogLevel:       v.GetString(KeyLogLevel),
		LogPretty:      v.GetBool(KeyLogPretty),
		UserAgent:      v.GetString(KeyUserAgent),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		MaxAttempts:    v.GetInt(KeyMaxAttempts),
		InitialBackoff: v.GetDuration(KeyInitialBackoff),
		PageDelay:      v.GetDuration(KeyPageDelay),
		MaxPages:       v.GetInt(KeyMaxPages),
		ProgressEvery:  v.GetInt(KeyProgressEvery),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL (got %q)", KeyBaseURL, c.BaseURL)
	}
	if c.OutDir == "" {
		return fmt.Errorf("%s must be set", KeyOutDir)
	}
	if c.DictOut == "" {
		return fmt.Errorf("%s must be set", KeyDictOut)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%s must be > 0", KeyWorkers)
	}
	if c.Resume && c.RedisURL == "" {
		return fmt.Errorf("%s requires %s", KeyResume, KeyRedisURL)
	}
	if c.CheckpointTTL < 0 {
		return fmt.Errorf("%s must be >= 0", KeyCheckpointTTL)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("%s must be one of debug, info, warn, error (got %q)", KeyLogLevel, c.LogLevel)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be > 0", KeyRequestTimeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%s must be >= 1", KeyMaxAttempts)
	}
	if c.InitialBackoff < 0 {
		return fmt.Errorf("%s must be >= 0", KeyInitialBackoff)
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("%s must be >= 0", KeyPageDelay)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("%s must be >= 0", KeyMaxPages)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("%s must be >= 0", KeyProgressEvery)
	}
	return nil
}

// Client returns the catalog client configuration.
func (c Config) Client() client.Config {
	retry := client.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxAttempts
	retry.InitialBackoff = c.InitialBackoff

	return client.Config{
		BaseURL:   c.BaseURL,
		UserAgent: c.UserAgent,
		Timeout:   c.RequestTimeout,
		Retry:     retry,
	}
}

// Dumper returns the sheet dumper configuration.
func (c Config) Dumper() pagination.Config {
	return pagination.Config{
		PageDelay: c.PageDelay,
		MaxPages:  c.MaxPages,
	}
}

// Crawl returns the orchestrator configuration.
func (c Config) Crawl() crawl.Config {
	return crawl.Config{
		Pin:           c.Pin,
		Workers:       c.Workers,
		DictOut:       c.DictOut,
		SkipDump:      c.SkipDump,
		ProgressEvery: c.ProgressEvery,
	}
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(strings.ToLower(c.LogLevel))
	cfg.Pretty = c.LogPretty
	return cfg
}
