package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-crawler/pkg/dictionary"
	"github.com/Sternrassler/catalog-crawler/pkg/logging"
)

func load(t *testing.T, configFile string) Config {
	t.Helper()
	v, err := New(configFile)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := load(t, "")

	if cfg.BaseURL != "https://xivapi.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.OutDir != "data/full" || cfg.DictOut != "public/dictionary.json" {
		t.Errorf("paths = %q, %q", cfg.OutDir, cfg.DictOut)
	}
	if cfg.Pin != "7.31" || cfg.Workers != 4 || cfg.ProgressEvery != 20 {
		t.Errorf("pin/workers/progress = %q/%d/%d", cfg.Pin, cfg.Workers, cfg.ProgressEvery)
	}
	if cfg.Layout != dictionary.ModeAuto {
		t.Errorf("Layout = %q, want auto", cfg.Layout)
	}
	if cfg.RequestTimeout != 60*time.Second || cfg.MaxAttempts != 4 || cfg.InitialBackoff != 500*time.Millisecond {
		t.Errorf("timeout/attempts/backoff = %s/%d/%s", cfg.RequestTimeout, cfg.MaxAttempts, cfg.InitialBackoff)
	}
	if cfg.PageDelay != 120*time.Millisecond {
		t.Errorf("PageDelay = %s, want 120ms", cfg.PageDelay)
	}
	if cfg.CheckpointTTL != 168*time.Hour {
		t.Errorf("CheckpointTTL = %s", cfg.CheckpointTTL)
	}
	if cfg.SkipDump || cfg.Resume {
		t.Error("SkipDump and Resume should default to false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_WORKERS", "8")
	t.Setenv("CATALOG_PIN", "7.4")
	t.Setenv("CATALOG_LAYOUT", "split")
	t.Setenv("CATALOG_PAGE_DELAY", "250ms")
	t.Setenv("CATALOG_SKIP_DUMP", "true")

	cfg := load(t, "")

	if cfg.Workers != 8 || cfg.Pin != "7.4" || cfg.Layout != dictionary.ModeSplit {
		t.Errorf("workers/pin/layout = %d/%q/%q", cfg.Workers, cfg.Pin, cfg.Layout)
	}
	if cfg.PageDelay != 250*time.Millisecond || !cfg.SkipDump {
		t.Errorf("page delay/skip dump = %s/%v", cfg.PageDelay, cfg.SkipDump)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crawler.yaml")
	content := `
base_url: http://localhost:8080
out_dir: /tmp/store
workers: 2
max_attempts: 6
layout: combined
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := load(t, path)

	if cfg.BaseURL != "http://localhost:8080" || cfg.OutDir != "/tmp/store" {
		t.Errorf("base/out = %q, %q", cfg.BaseURL, cfg.OutDir)
	}
	if cfg.Workers != 2 || cfg.MaxAttempts != 6 || cfg.Layout != dictionary.ModeCombined {
		t.Errorf("workers/attempts/layout = %d/%d/%q", cfg.Workers, cfg.MaxAttempts, cfg.Layout)
	}
	if cfg.Logging().Level != logging.LevelDebug {
		t.Errorf("logging level = %q", cfg.Logging().Level)
	}
}

func TestNew_MissingConfigFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("New() error = nil for missing explicit config file")
	}
}

func TestLoad_InvalidLayout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_LAYOUT", "mixed")

	v, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := Load(v); err == nil || !strings.Contains(err.Error(), "layout") {
		t.Errorf("Load() error = %v, want layout error", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CATALOG_WORKERS=11\nCATALOG_PIN=6.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// registered so t restores the environment afterwards
	t.Setenv("CATALOG_WORKERS", "")
	os.Unsetenv("CATALOG_WORKERS")
	t.Setenv("CATALOG_PIN", "already-set")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	cfg := load(t, "")
	if cfg.Workers != 11 {
		t.Errorf("Workers = %d, want 11 from .env", cfg.Workers)
	}
	if cfg.Pin != "already-set" {
		t.Errorf("Pin = %q, .env must not override the environment", cfg.Pin)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			BaseURL:        "https://xivapi.com",
			OutDir:         "data/full",
			DictOut:        "public/dictionary.json",
			Workers:        4,
			LogLevel:       "info",
			RequestTimeout: time.Minute,
			MaxAttempts:    4,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "xivapi.com" }, wantErr: KeyBaseURL},
		{name: "ftp base url", mutate: func(c *Config) { c.BaseURL = "ftp://x" }, wantErr: KeyBaseURL},
		{name: "empty out dir", mutate: func(c *Config) { c.OutDir = "" }, wantErr: KeyOutDir},
		{name: "empty dict out", mutate: func(c *Config) { c.DictOut = "" }, wantErr: KeyDictOut},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: KeyWorkers},
		{name: "resume without redis", mutate: func(c *Config) { c.Resume = true }, wantErr: KeyRedisURL},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: KeyLogLevel},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: KeyRequestTimeout},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, wantErr: KeyMaxAttempts},
		{name: "negative delay", mutate: func(c *Config) { c.PageDelay = -time.Second }, wantErr: KeyPageDelay},
		{name: "negative max pages", mutate: func(c *Config) { c.MaxPages = -1 }, wantErr: KeyMaxPages},
		{name: "negative progress", mutate: func(c *Config) { c.ProgressEvery = -1 }, wantErr: KeyProgressEvery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	cfg := Config{
		BaseURL:        "http://localhost",
		UserAgent:      "test/1.0",
		RequestTimeout: time.Second,
		MaxAttempts:    2,
		InitialBackoff: 10 * time.Millisecond,
		PageDelay:      time.Millisecond,
		MaxPages:       3,
		Pin:            "7.31",
		Workers:        5,
		DictOut:        "out.json",
		SkipDump:       true,
		ProgressEvery:  10,
		LogLevel:       "WARN",
		LogPretty:      true,
	}

	cc := cfg.Client()
	if cc.BaseURL != cfg.BaseURL || cc.Retry.MaxAttempts != 2 || cc.Retry.InitialBackoff != 10*time.Millisecond || cc.Retry.BackoffMultiplier != 2.0 {
		t.Errorf("Client() = %+v", cc)
	}
	if dc := cfg.Dumper(); dc.PageDelay != time.Millisecond || dc.MaxPages != 3 {
		t.Errorf("Dumper() = %+v", dc)
	}
	if cr := cfg.Crawl(); cr.Workers != 5 || !cr.SkipDump || cr.DictOut != "out.json" || cr.ProgressEvery != 10 {
		t.Errorf("Crawl() = %+v", cr)
	}
	if lc := cfg.Logging(); lc.Level != logging.LevelWarn || !lc.Pretty {
		t.Errorf("Logging() = %+v", lc)
	}
}
