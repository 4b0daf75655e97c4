// Package testutil provides testing utilities for the catalog crawler.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MockCatalog is a configurable mock catalog server for testing.
//
// GET /Content answers with the configured sheet names. GET /<sheet>
// answers page N (1-based) of the configured rows for that sheet.
type MockCatalog struct {
	server *httptest.Server

	mu       sync.RWMutex
	sheets   []string
	pages    map[string][][]map[string]any
	failures map[string]int
	broken   map[string]bool
	requests map[string]int
	queries  []url.Values
}

// NewMockCatalog creates a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		pages:    make(map[string][][]map[string]any),
		failures: make(map[string]int),
		broken:   make(map[string]bool),
		requests: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// AddSheet registers a sheet and its pages of rows.
func (m *MockCatalog) AddSheet(name string, pages ...[]map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets = append(m.sheets, name)
	m.pages[name] = pages
}

// FailNext makes the next n requests to path answer 503.
func (m *MockCatalog) FailNext(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = n
}

// Break makes every request to path answer 500.
func (m *MockCatalog) Break(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broken[path] = true
}

// RequestCount returns the number of requests made to path.
func (m *MockCatalog) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[path]
}

// Queries returns the query parameters of every request, in arrival order.
func (m *MockCatalog) Queries() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]url.Values, len(m.queries))
	copy(out, m.queries)
	return out
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	m.mu.Lock()
	m.requests[path]++
	m.queries = append(m.queries, r.URL.Query())
	fail := m.broken[path]
	if !fail && m.failures[path] > 0 {
		m.failures[path]--
		fail = true
	}
	m.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if path == "/Content" {
		m.mu.RLock()
		body, _ := json.Marshal(m.sheets)
		m.mu.RUnlock()
		_, _ = w.Write(body)
		return
	}

	sheet := strings.TrimPrefix(path, "/")
	m.mu.RLock()
	pages, ok := m.pages[sheet]
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	var rows []map[string]any
	if page <= len(pages) {
		rows = pages[page-1]
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	var next any
	if page < len(pages) {
		next = page + 1
	}

	body, err := json.Marshal(map[string]any{
		"Results": rows,
		"Pagination": map[string]any{
			"Page":     page,
			"PageNext": next,
		},
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error": %q}`, err.Error())
		return
	}
	_, _ = w.Write(body)
}
