// Package crawl orchestrates a full catalog crawl: list the sheets, dump
// them with a fixed pool of workers, then build the dictionary once every
// dump has finished.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/catalog-crawler/pkg/checkpoint"
	"github.com/Sternrassler/catalog-crawler/pkg/dictionary"
	"github.com/Sternrassler/catalog-crawler/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SheetsTotal counts finished sheets by outcome.
var SheetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_sheets_total",
	Help: "Total number of sheets processed by outcome",
}, []string{"outcome"}) // "success", "failed", "skipped"

// Sheet outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Lister returns the names of all sheets in the catalog.
type Lister interface {
	ListSheets(ctx context.Context, pin string) ([]string, error)
}

// Dumper dumps every page of one sheet.
type Dumper interface {
	Dump(ctx context.Context, sheet, pin string) (pagination.Result, error)
}

// Builder turns the finished store into the dictionary artifact.
type Builder interface {
	BuildFile(ctx context.Context, path string) (dictionary.Stats, error)
}

// Discarder drops the partial store of a sheet before it is dumped again.
type Discarder interface {
	Remove(sheet string) error
}

// Config holds crawl configuration
type Config struct {
	// Pin is the catalog version to crawl ("" for latest)
	Pin string
	// Workers is the number of sheets dumped concurrently
	Workers int
	// DictOut is the dictionary artifact path
	DictOut string
	// SkipDump only runs the dictionary build against the existing store
	SkipDump bool
	// ProgressEvery logs progress after this many finished sheets (0 = never)
	ProgressEvery int
}

// DefaultConfig returns the default crawl configuration
func DefaultConfig() Config {
	return Config{
		Pin:           "7.31",
		Workers:       4,
		DictOut:       "public/dictionary.json",
		ProgressEvery: 20,
	}
}

// Crawler runs crawls. It is safe to reuse across runs but not to run
// concurrently with itself.
type Crawler struct {
	lister    Lister
	dumper    Dumper
	builder   Builder
	ledger    checkpoint.Ledger
	discarder Discarder
	config    Config
	logger    zerolog.Logger
}

// New creates a crawler. Without SetLedger every sheet is dumped.
func New(lister Lister, dumper Dumper, builder Builder, config Config) *Crawler {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.ProgressEvery < 0 {
		config.ProgressEvery = 0
	}

	return &Crawler{
		lister:  lister,
		dumper:  dumper,
		builder: builder,
		ledger:  checkpoint.Nop{},
		config:  config,
		logger:  log.With().Str("component", "crawler").Logger(),
	}
}

// SetLedger enables resuming. Sheets the ledger marks done are skipped;
// any other sheet is discarded from the store (when discarder is not nil)
// before its dump so a previous partial dump is not duplicated.
func (c *Crawler) SetLedger(ledger checkpoint.Ledger, discarder Discarder) {
	if ledger == nil {
		ledger = checkpoint.Nop{}
	}
	c.ledger = ledger
	c.discarder = discarder
}

// SheetFailure is a sheet whose dump failed.
type SheetFailure struct {
	Sheet string
	Err   error
}

// Report summarizes a crawl.
type Report struct {
	RunID      string
	Total      int
	Succeeded  int
	Skipped    int
	Failed     []SheetFailure
	Pages      int
	Rows       int
	Dictionary dictionary.Stats
	Duration   time.Duration
}

// outcome is what one worker reports for one sheet.
type outcome struct {
	sheet   string
	result  pagination.Result
	skipped bool
	err     error
}

// Run executes a crawl. Only a failure to list the sheets, a cancelled
// context or a failed dictionary build is returned as an error; failed
// sheets are collected in the report.
func (c *Crawler) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	logger := c.logger.With().Str("run_id", report.RunID).Logger()

	if !c.config.SkipDump {
		if err := c.crawl(ctx, logger, &report); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
	} else {
		logger.Info().Msg("Skipping dump, building dictionary from existing store")
	}

	stats, err := c.builder.BuildFile(ctx, c.config.DictOut)
	report.Dictionary = stats
	report.Duration = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("build dictionary: %w", err)
	}

	logger.Info().
		Int("sheets", report.Total).
		Int("succeeded", report.Succeeded).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Int("entries", stats.Entries).
		Dur("duration", report.Duration).
		Msg("Crawl complete")

	return report, nil
}

func (c *Crawler) crawl(ctx context.Context, logger zerolog.Logger, report *Report) error {
	sheets, err := c.lister.ListSheets(ctx, c.config.Pin)
	if err != nil {
		return fmt.Errorf("discover sheets: %w", err)
	}
	report.Total = len(sheets)

	logger.Info().
		Int("sheets", len(sheets)).
		Int("workers", c.config.Workers).
		Str("pin", c.config.Pin).
		Msg("Starting crawl")

	sheetQueue := make(chan string, len(sheets))
	outcomes := make(chan outcome, len(sheets))

	for _, sheet := range sheets {
		sheetQueue <- sheet
	}
	close(sheetQueue)

	var wg sync.WaitGroup
	for i := 0; i < c.config.Workers; i++ {
		wg.Add(1)
		go c.worker(ctx, logger, sheetQueue, outcomes, &wg, i)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	finished := 0
	for o := range outcomes {
		finished++
		switch {
		case o.skipped:
			report.Skipped++
			SheetsTotal.WithLabelValues(OutcomeSkipped).Inc()
		case o.err != nil:
			report.Failed = append(report.Failed, SheetFailure{Sheet: o.sheet, Err: o.err})
			SheetsTotal.WithLabelValues(OutcomeFailed).Inc()
			logger.Error().
				Err(o.err).
				Str("sheet", o.sheet).
				Msg("Sheet dump failed")
		default:
			report.Succeeded++
			report.Pages += o.result.Pages
			report.Rows += o.result.Rows
			SheetsTotal.WithLabelValues(OutcomeSuccess).Inc()
		}

		if c.config.ProgressEvery > 0 && finished%c.config.ProgressEvery == 0 {
			logger.Info().
				Int("finished", finished).
				Int("total", len(sheets)).
				Int("failed", len(report.Failed)).
				Float64("progress_pct", float64(finished)/float64(len(sheets))*100).
				Msg("Crawl progress")
		}
	}

	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Sheet < report.Failed[j].Sheet
	})

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl interrupted after %d of %d sheets: %w", finished, len(sheets), err)
	}
	return nil
}

// worker dumps sheets from the queue. A failed sheet is reported and the
// worker moves on to the next one.
func (c *Crawler) worker(ctx context.Context, logger zerolog.Logger, sheetQueue <-chan string, outcomes chan<- outcome, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for sheet := range sheetQueue {
		outcomes <- c.process(ctx, logger, sheet)
		processed++
	}

	if processed > 0 {
		logger.Debug().
			Int("worker_id", workerID).
			Int("sheets_processed", processed).
			Msg("Worker completed")
	}
}

func (c *Crawler) process(ctx context.Context, logger zerolog.Logger, sheet string) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{sheet: sheet, err: err}
	}

	done, err := c.ledger.IsDone(ctx, sheet)
	if err != nil {
		logger.Warn().Err(err).Str("sheet", sheet).Msg("Checkpoint lookup failed, dumping sheet")
	}
	if done {
		logger.Debug().Str("sheet", sheet).Msg("Sheet already dumped, skipping")
		return outcome{sheet: sheet, skipped: true}
	}

	if c.discarder != nil {
		if err := c.discarder.Remove(sheet); err != nil {
			return outcome{sheet: sheet, err: fmt.Errorf("discard partial store: %w", err)}
		}
	}

	result, err := c.dumper.Dump(ctx, sheet, c.config.Pin)
	if err != nil {
		return outcome{sheet: sheet, result: result, err: err}
	}

	if err := c.ledger.MarkDone(ctx, sheet); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Str("sheet", sheet).Msg("Checkpoint update failed")
	}
	return outcome{sheet: sheet, result: result}
}
