package main

import (
	"fmt"

	"github.com/Sternrassler/catalog-crawler/internal/config"
	"github.com/Sternrassler/catalog-crawler/pkg/logging"
	"github.com/spf13/cobra"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"base-url":        config.KeyBaseURL,
	"out-dir":         config.KeyOutDir,
	"dict-out":        config.KeyDictOut,
	"pin":             config.KeyPin,
	"workers":         config.KeyWorkers,
	"skip-dump":       config.KeySkipDump,
	"layout":          config.KeyLayout,
	"resume":          config.KeyResume,
	"redis-url":       config.KeyRedisURL,
	"metrics-addr":    config.KeyMetricsAddr,
	"log-level":       config.KeyLogLevel,
	"log-pretty":      config.KeyLogPretty,
	"user-agent":      config.KeyUserAgent,
	"request-timeout": config.KeyRequestTimeout,
	"max-attempts":    config.KeyMaxAttempts,
	"initial-backoff": config.KeyInitialBackoff,
	"page-delay":      config.KeyPageDelay,
	"max-pages":       config.KeyMaxPages,
}

// app is filled by the root PersistentPreRunE before any command runs.
type app struct {
	configFile string
	envFiles   []string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "catalog-crawler",
		Short: "Dump the catalog and build the multilingual name dictionary",
		Long: `catalog-crawler lists every sheet of the catalog, dumps each sheet's pages
into <out-dir>/<sheet>.jsonl with a fixed pool of workers, and then builds
the deduplicated en/de/fr dictionary from the store.

Settings come from flags, CATALOG_* environment variables, a .env file and
an optional catalog-crawler.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), cmd.OutOrStdout(), a.cfg)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./catalog-crawler.yaml if present)")
	pf.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files to load")
	pf.String("out-dir", "", "sheet store directory (default data/full)")
	pf.String("dict-out", "", "dictionary output path (default public/dictionary.json)")
	pf.String("layout", "", "store layout: auto, split or combined (default auto)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("log-pretty", false, "human-readable console logs")

	addCrawlFlags(cmd)

	cmd.AddCommand(newCrawlCmd(a), newBuildCmd(a), newDedupeCmd(a))
	return cmd
}

func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("base-url", "", "catalog base URL")
	f.String("pin", "", "catalog version pin (empty for latest)")
	f.Int("workers", 0, "sheets dumped concurrently (default 4)")
	f.Bool("skip-dump", false, "only build the dictionary from the existing store")
	f.Bool("resume", false, "skip sheets already dumped for this pin (requires --redis-url)")
	f.String("redis-url", "", "redis:// URL of the checkpoint ledger")
	f.String("metrics-addr", "", "serve /metrics and /health on this address")
	f.String("user-agent", "", "User-Agent header")
	f.Duration("request-timeout", 0, "per-request timeout (default 60s)")
	f.Int("max-attempts", 0, "attempts per request (default 4)")
	f.Duration("initial-backoff", 0, "wait after the first failed attempt (default 500ms)")
	f.Duration("page-delay", 0, "minimum spacing between page requests (default 120ms)")
	f.Int("max-pages", 0, "stop each sheet after this many pages (0 = no limit)")
}

func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}

	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}

	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging())
	return nil
}
