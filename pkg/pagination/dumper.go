package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-crawler/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PagesFetched counts pages fetched by all dumps.
var PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "catalog_pages_fetched_total",
	Help: "Total number of sheet pages fetched",
})

// Config holds sheet dumper configuration
type Config struct {
	// PageDelay is the minimum pause after one page response before the next request
	PageDelay time.Duration
	// MaxPages stops a dump after this many pages (0 = no limit)
	MaxPages int
}

// DefaultConfig returns the default dumper configuration
func DefaultConfig() Config {
	return Config{
		PageDelay: ratelimit.DefaultPageDelay,
	}
}

// PageFetcher fetches a single page of a sheet and reports whether another follows
type PageFetcher interface {
	FetchPage(ctx context.Context, sheet string, page int, pin string) (rows []json.RawMessage, hasNext bool, err error)
}

// Sink receives the rows of each fetched page
type Sink interface {
	Append(sheet string, rows []json.RawMessage) error
}

// Result summarizes one sheet dump
type Result struct {
	Sheet    string
	Pages    int
	Rows     int
	Duration time.Duration
}

// SheetDumper drives a PageFetcher across all pages of a sheet
type SheetDumper struct {
	fetcher PageFetcher
	sink    Sink
	config  Config
	logger  zerolog.Logger
}

// NewSheetDumper creates a new sheet dumper
func NewSheetDumper(fetcher PageFetcher, sink Sink, config Config) *SheetDumper {
	if config.PageDelay < 0 {
		config.PageDelay = 0
	}
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}

	return &SheetDumper{
		fetcher: fetcher,
		sink:    sink,
		config:  config,
		logger:  log.With().Str("component", "sheet-dumper").Logger(),
	}
}

// Dump fetches pages 1..n of sheet until a page reports no continuation,
// appending each page's rows to the sink. An error from any page ends the
// dump; the returned Result still counts the pages stored before it.
func (d *SheetDumper) Dump(ctx context.Context, sheet, pin string) (Result, error) {
	start := time.Now()
	result := Result{Sheet: sheet}
	pacer := ratelimit.NewPacer(d.config.PageDelay)

	for page := 1; ; page++ {
		if err := pacer.Wait(ctx); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("dump %s page %d: %w", sheet, page, err)
		}

		rows, hasNext, err := d.fetcher.FetchPage(ctx, sheet, page, pin)
		pacer.Done()
		if err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("dump %s page %d: %w", sheet, page, err)
		}
		PagesFetched.Inc()

		if len(rows) > 0 {
			if err := d.sink.Append(sheet, rows); err != nil {
				result.Duration = time.Since(start)
				return result, fmt.Errorf("dump %s page %d: %w", sheet, page, err)
			}
		}
		result.Pages++
		result.Rows += len(rows)

		d.logger.Debug().
			Str("sheet", sheet).
			Int("page", page).
			Int("rows", len(rows)).
			Bool("has_next", hasNext).
			Msg("Page stored")

		if !hasNext {
			break
		}
		if d.config.MaxPages > 0 && page >= d.config.MaxPages {
			d.logger.Warn().
				Str("sheet", sheet).
				Int("max_pages", d.config.MaxPages).
				Msg("Page limit reached, stopping dump")
			break
		}
	}

	result.Duration = time.Since(start)
	d.logger.Info().
		Str("sheet", sheet).
		Int("pages", result.Pages).
		Int("rows", result.Rows).
		Dur("duration", result.Duration).
		Msg("Sheet dump complete")

	return result, nil
}
