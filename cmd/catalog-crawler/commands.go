package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/catalog-crawler/internal/config"
	"github.com/Sternrassler/catalog-crawler/pkg/checkpoint"
	"github.com/Sternrassler/catalog-crawler/pkg/client"
	"github.com/Sternrassler/catalog-crawler/pkg/crawl"
	"github.com/Sternrassler/catalog-crawler/pkg/dictionary"
	"github.com/Sternrassler/catalog-crawler/pkg/metrics"
	"github.com/Sternrassler/catalog-crawler/pkg/pagination"
	"github.com/Sternrassler/catalog-crawler/pkg/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCrawlCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Dump every sheet, then build the dictionary (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), cmd.OutOrStdout(), a.cfg)
		},
	}
	addCrawlFlags(cmd)
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the dictionary from an existing store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			builder := dictionary.NewBuilder(a.cfg.OutDir, a.cfg.Layout)
			stats, err := builder.BuildFile(cmd.Context(), a.cfg.DictOut)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dictionary: %d entries (%s layout, %d files, %d rows) -> %s\n",
				stats.Entries, stats.Mode, stats.Files, stats.Rows, a.cfg.DictOut)
			return nil
		},
	}
}

func newDedupeCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Write a copy of the dictionary keeping the first entry per English name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.DictOut
			}
			if out == "" {
				out = dictionary.DedupedPath(in)
			}

			before, after, err := dictionary.DedupeFile(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deduped: %d -> %d entries -> %s\n", before, after, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "dictionary to read (default --dict-out)")
	cmd.Flags().StringVar(&out, "out", "", "output path (default <in>.deduped.json)")
	return cmd
}

func runCrawl(ctx context.Context, w io.Writer, cfg config.Config) error {
	logger := log.With().Str("component", "cli").Logger()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	c, err := client.New(cfg.Client())
	if err != nil {
		return err
	}
	builder := dictionary.NewBuilder(cfg.OutDir, cfg.Layout)

	var (
		lister crawl.Lister
		dumper crawl.Dumper
		s      *store.Store
	)
	if !cfg.SkipDump {
		s, err = store.New(cfg.OutDir)
		if err != nil {
			return err
		}
		lister = c
		dumper = pagination.NewSheetDumper(c, s, cfg.Dumper())
	}

	crawler := crawl.New(lister, dumper, builder, cfg.Crawl())

	if cfg.Resume && s != nil {
		redisClient, err := checkpoint.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Checkpoint ledger unavailable, crawling every sheet")
		} else {
			defer redisClient.Close()
			key := checkpoint.Key{Pin: cfg.Pin, Root: cfg.OutDir}
			crawler.SetLedger(checkpoint.NewRedisLedger(redisClient, key, cfg.CheckpointTTL), s)
			logger.Info().Str("key", key.String()).Msg("Resuming from checkpoint ledger")
		}
	}

	report, err := crawler.Run(ctx)
	printReport(w, cfg, report)
	return err
}

func printReport(w io.Writer, cfg config.Config, r crawl.Report) {
	if !cfg.SkipDump {
		fmt.Fprintf(w, "run %s: %d sheets, %d succeeded, %d skipped, %d failed (%d pages, %d rows)\n",
			r.RunID, r.Total, r.Succeeded, r.Skipped, len(r.Failed), r.Pages, r.Rows)
		for _, f := range r.Failed {
			fmt.Fprintf(w, "  failed %s: %v\n", f.Sheet, f.Err)
		}
	}
	if r.Dictionary.Mode != "" {
		fmt.Fprintf(w, "dictionary: %d entries (%s layout) -> %s\n", r.Dictionary.Entries, r.Dictionary.Mode, cfg.DictOut)
	}
}
