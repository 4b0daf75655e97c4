package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-crawler/internal/testutil"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	cfg.Retry.InitialBackoff = time.Millisecond
	return cfg
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{name: "valid config", mutate: func(*Config) {}, expectError: false},
		{name: "empty base url", mutate: func(c *Config) { c.BaseURL = "" }, expectError: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, expectError: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if (err != nil) != tt.expectError {
				t.Errorf("New() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestClient_GetJSON_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), "thing", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if !out.OK {
		t.Error("Expected decoded payload from 4th attempt")
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("Expected 4 calls, got %d", got)
	}
}

func TestClient_GetJSON_FailsAfterFourAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var out map[string]any
	err = c.GetJSON(context.Background(), "thing", nil, &out)
	if !errors.Is(err, ErrTransientFetch) {
		t.Fatalf("Expected ErrTransientFetch, got %v", err)
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fe.StatusCode)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("Expected 4 calls, got %d", got)
	}
}

func TestClient_GetJSON_InvalidBodyIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`<html>maintenance</html>`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var out []any
	if err := c.GetJSON(context.Background(), "x", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected 2 calls, got %d", got)
	}
}

func TestClient_FetchPage_WrongShapeIsTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"Results":{"ID":1},"Pagination":{"PageNext":null}}`))
	}))
	defer server.Close()

	c, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, _, err = c.FetchPage(context.Background(), "Item", 1, "")
	if !errors.Is(err, ErrTransientFetch) {
		t.Fatalf("FetchPage() error = %v, want ErrTransientFetch", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.ErrorClass != ErrorClassDecode {
		t.Errorf("FetchPage() error = %v, want decode FetchError", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("Expected 4 calls, got %d", got)
	}
}

func TestClient_ListSheets(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "bare array", body: `["Item","Action"]`, want: []string{"Item", "Action"}},
		{name: "results object", body: `{"Results":["Item","Status"]}`, want: []string{"Item", "Status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versions := make(chan string, 1)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/Content" {
					t.Errorf("path = %q, want /Content", r.URL.Path)
				}
				select {
				case versions <- r.URL.Query().Get("version"):
				default:
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := New(testConfig(server.URL))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			got, err := c.ListSheets(context.Background(), "7.31")
			if err != nil {
				t.Fatalf("ListSheets() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListSheets() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ListSheets()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if version := <-versions; version != "7.31" {
				t.Errorf("version param = %q, want 7.31", version)
			}
		})
	}
}

func TestClient_FetchPage(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()

	mock.AddSheet("Item",
		[]map[string]any{{"ID": 1, "Name_en": "Fire"}, {"ID": 2, "Name_en": "Ice"}},
		[]map[string]any{{"ID": 3, "Name_en": "Wind"}},
	)

	c, err := New(testConfig(mock.URL()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rows, next, err := c.FetchPage(context.Background(), "Item", 1, "7.31")
	if err != nil {
		t.Fatalf("FetchPage(1) error = %v", err)
	}
	if len(rows) != 2 || !next {
		t.Errorf("FetchPage(1) = %d rows, next=%v; want 2 rows, next=true", len(rows), next)
	}

	var first map[string]any
	if err := json.Unmarshal(rows[0], &first); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if first["Name_en"] != "Fire" {
		t.Errorf("row[0].Name_en = %v, want Fire", first["Name_en"])
	}

	rows, next, err = c.FetchPage(context.Background(), "Item", 2, "7.31")
	if err != nil {
		t.Fatalf("FetchPage(2) error = %v", err)
	}
	if len(rows) != 1 || next {
		t.Errorf("FetchPage(2) = %d rows, next=%v; want 1 row, next=false", len(rows), next)
	}

	for _, q := range mock.Queries() {
		if q.Get("language") != "all" {
			t.Errorf("language = %q, want all", q.Get("language"))
		}
		if q.Get("version") != "7.31" {
			t.Errorf("version = %q, want 7.31", q.Get("version"))
		}
	}
}

func TestPage_HasNext(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "next page", body: `{"Results":[],"Pagination":{"PageNext":2}}`, want: true},
		{name: "null", body: `{"Results":[],"Pagination":{"PageNext":null}}`, want: false},
		{name: "zero", body: `{"Results":[],"Pagination":{"PageNext":0}}`, want: false},
		{name: "missing pagination", body: `{"Results":[]}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Page
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := p.HasNext(); got != tt.want {
				t.Errorf("HasNext() = %v, want %v", got, tt.want)
			}
		})
	}
}
