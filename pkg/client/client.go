// Package client provides the catalog HTTP client: single GET requests
// with bounded retry and exponential backoff, decoded into sheet lists
// and pages.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for catalog client operations.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog requests by status",
	}, []string{"status"})

	catalogRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// DefaultBaseURL is the public catalog endpoint.
const DefaultBaseURL = "https://xivapi.com"

// Client is the catalog client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog, without trailing slash.
	BaseURL string

	// UserAgent header sent with every request (optional).
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry policy applied to every request.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "catalog-crawler/0.1.0",
		Timeout:   60 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		logger:  log.With().Str("component", "catalog-client").Logger(),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetJSON performs a GET request against path with the given query
// parameters and decodes the JSON body into out. Transport failures,
// non-2xx responses and bodies that do not decode into out are retried;
// once the attempts run out a *FetchError is returned.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	return retryWithBackoff(ctx, c.config.Retry, target, c.logger, func() *attemptError {
		body, status, aerr := c.do(ctx, target)
		if aerr != nil {
			return aerr
		}
		if err := json.Unmarshal(body, out); err != nil {
			c.logger.Warn().
				Err(err).
				Str("url", target).
				Msg("Catalog response did not decode")
			return &attemptError{class: ErrorClassDecode, status: status, err: fmt.Errorf("decode body: %w", err)}
		}
		return nil
	})
}

// do executes a single attempt and returns the body and status of a 2xx response.
func (c *Client) do(ctx context.Context, target string) ([]byte, int, *attemptError) {
	start := time.Now()
	defer func() {
		catalogRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, &attemptError{class: ErrorClassClient, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, 0, &attemptError{class: ErrorClassNetwork, err: err}
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		class := classifyStatus(resp.StatusCode)
		c.logger.Warn().
			Str("url", target).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Catalog request error")
		return nil, resp.StatusCode, &attemptError{
			class:  class,
			status: resp.StatusCode,
			err:    &StatusError{StatusCode: resp.StatusCode, Status: resp.Status},
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &attemptError{class: ErrorClassNetwork, err: fmt.Errorf("read body: %w", err)}
	}
	return body, resp.StatusCode, nil
}

// ListSheets returns the names of all sheets in the catalog. The pin, when
// non-empty, is sent as the version parameter.
func (c *Client) ListSheets(ctx context.Context, pin string) ([]string, error) {
	params := url.Values{}
	if pin != "" {
		params.Set("version", pin)
	}

	var list SheetList
	if err := c.GetJSON(ctx, "Content", params, &list); err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	return list.Names, nil
}

// FetchPage fetches one page of a sheet with language=all so that each row
// carries every locale. It reports the raw rows and whether another page
// follows.
func (c *Client) FetchPage(ctx context.Context, sheet string, page int, pin string) ([]json.RawMessage, bool, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("language", "all")
	if pin != "" {
		params.Set("version", pin)
	}

	var p Page
	if err := c.GetJSON(ctx, url.PathEscape(sheet), params, &p); err != nil {
		return nil, false, err
	}
	return p.Results, p.HasNext(), nil
}
