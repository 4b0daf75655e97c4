// Package metrics exposes the crawler's Prometheus metrics over HTTP.
// The metrics themselves are defined next to the code that updates them
// (client, pagination, store, crawl, checkpoint, dictionary) and register
// through promauto on the default registry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by the crawler.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects what Registry holds for /metrics.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the mux served by Serve: /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Serve listens on addr until ctx is cancelled, then shuts the server down.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return serve(ctx, ln)
}

func serve(ctx context.Context, ln net.Listener) error {
	logger := log.With().Str("component", "metrics").Logger()
	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	}
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{status} (Counter): Requests by HTTP status (or "network_error")
//   - catalog_request_duration_seconds (Histogram): Request duration
//
// Retry Metrics (pkg/client):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted all attempts
//
// Crawl Metrics (pkg/pagination, pkg/store, pkg/crawl):
//   - catalog_pages_fetched_total (Counter): Sheet pages fetched
//   - catalog_records_stored_total (Counter): Raw rows appended to sheet stores
//   - catalog_sheets_total{outcome} (Counter): Sheets by outcome (success, failed, skipped)
//
// Checkpoint Metrics (pkg/checkpoint):
//   - catalog_checkpoint_hits_total (Counter): Sheets skipped on resume
//   - catalog_checkpoint_errors_total{operation} (Counter): Ledger errors
//
// Dictionary Metrics (pkg/dictionary):
//   - catalog_dictionary_entries (Gauge): Entries in the last built dictionary
//   - catalog_dictionary_skipped_total{reason} (Counter): Rows left out by reason
//
// Example Prometheus Queries:
//
//   # Sheet failure ratio
//   sum(catalog_sheets_total{outcome="failed"}) / sum(catalog_sheets_total)
//
//   # Retry rate by class
//   sum by (error_class) (rate(catalog_retries_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
