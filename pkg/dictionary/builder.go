package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for dictionary builds.
var (
	dictionaryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_dictionary_entries",
		Help: "Number of entries in the last built dictionary",
	})

	dictionarySkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_dictionary_skipped_total",
		Help: "Rows or identifiers left out of the dictionary by reason",
	}, []string{"reason"})
)

// Skip reasons.
const (
	SkipMalformed = "malformed"
	SkipMissingID = "missing_id"
	SkipNoName    = "no_name"
	SkipDuplicate = "duplicate"
)

// Stats describes one build.
type Stats struct {
	Mode     Mode
	Files    int
	Rows     int
	Skipped  map[string]int
	Entries  int
	Duration time.Duration
}

func (s *Stats) skip(reason string) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	s.Skipped[reason]++
	dictionarySkipped.WithLabelValues(reason).Inc()
}

func (s *Stats) skipN(reason string, n int) {
	for i := 0; i < n; i++ {
		s.skip(reason)
	}
}

// strategy reads a store layout and feeds the collector.
type strategy interface {
	collect(ctx context.Context, root string, c *collector) error
}

// Builder derives the dictionary from a sheet store. A build is
// sequential and starts from scratch; it never reads a previous artifact.
type Builder struct {
	root   string
	mode   Mode
	logger zerolog.Logger
}

// NewBuilder creates a builder over root. ModeAuto detects the layout at
// the start of every Build.
func NewBuilder(root string, mode Mode) *Builder {
	if mode == "" {
		mode = ModeAuto
	}
	return &Builder{
		root:   root,
		mode:   mode,
		logger: log.With().Str("component", "dictionary").Logger(),
	}
}

// Build reads the store and returns the ordered, deduplicated dictionary.
func (b *Builder) Build(ctx context.Context) (Dictionary, Stats, error) {
	start := time.Now()

	mode := b.mode
	if mode == ModeAuto {
		detected, err := DetectMode(b.root)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("detect layout: %w", err)
		}
		mode = detected
	}

	var strat strategy
	switch mode {
	case ModeSplit:
		strat = splitStrategy{logger: b.logger}
	case ModeCombined:
		strat = combinedStrategy{logger: b.logger}
	default:
		return nil, Stats{}, fmt.Errorf("unsupported layout %q", mode)
	}

	b.logger.Info().
		Str("mode", string(mode)).
		Str("root", b.root).
		Msg("Building dictionary")

	stats := Stats{Mode: mode}
	c := newCollector(&stats)
	if err := strat.collect(ctx, b.root, c); err != nil {
		return nil, stats, err
	}

	stats.Entries = len(c.entries)
	stats.Duration = time.Since(start)
	dictionaryEntries.Set(float64(stats.Entries))

	b.logger.Info().
		Str("mode", string(mode)).
		Int("files", stats.Files).
		Int("rows", stats.Rows).
		Int("entries", stats.Entries).
		Interface("skipped", stats.Skipped).
		Dur("duration", stats.Duration).
		Msg("Dictionary built")

	return c.entries, stats, nil
}

// BuildFile builds the dictionary and writes it to path.
func (b *Builder) BuildFile(ctx context.Context, path string) (Stats, error) {
	dict, stats, err := b.Build(ctx)
	if err != nil {
		return stats, err
	}
	if err := WriteFile(path, dict); err != nil {
		return stats, err
	}

	b.logger.Info().
		Str("path", path).
		Int("entries", len(dict)).
		Msg("Dictionary written")
	return stats, nil
}
