package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	catalogRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	catalogRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16},
	}, []string{"error_class"})

	catalogRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the wait after the first failure. The wait after
	// attempt n (0-based) is InitialBackoff * BackoffMultiplier^n.
	InitialBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: four
// attempts, waiting 0.5s, 1s and 2s in between.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// backoffFor returns the wait after the given 0-based attempt.
func (c RetryConfig) backoffFor(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	return time.Duration(backoff)
}

// attemptError is what a single attempt reports back to retryWithBackoff.
type attemptError struct {
	class  ErrorClass
	status int
	err    error
}

// retryWithBackoff runs fn until it succeeds or the attempts run out.
// Every failure is retried: the catalog answers transient outages with
// 4xx as often as with 5xx.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, url string, logger zerolog.Logger, fn func() *attemptError) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var last *attemptError
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		last = fn()
		if last == nil {
			if attempt > 0 {
				logger.Info().
					Str("url", url).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		// If this was the last attempt, don't wait
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		class := string(last.class)
		catalogRetriesTotal.WithLabelValues(class).Inc()

		backoff := cfg.backoffFor(attempt)
		catalogRetryBackoffSeconds.WithLabelValues(class).Observe(backoff.Seconds())

		logger.Debug().
			Err(last.err).
			Str("url", url).
			Str("error_class", class).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("url", url).
				Int("attempt", attempt+1).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	catalogRetryExhaustedTotal.WithLabelValues(string(last.class)).Inc()
	logger.Warn().
		Err(last.err).
		Str("url", url).
		Str("error_class", string(last.class)).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return &FetchError{
		URL:        url,
		Attempts:   cfg.MaxAttempts,
		StatusCode: last.status,
		ErrorClass: last.class,
		Err:        last.err,
	}
}
