package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:     url,
		APIKey:      "test-key",
		MaxRetries:  retries,
		BaseBackoff: time.Millisecond,
		Timeout:     2 * time.Second,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
	if _, err := NewClient(Config{BaseURL: "ftp://example.org"}, nil); err == nil {
		t.Fatalf("expected scheme error, got nil")
	}
}

func TestQuerySuccess(t *testing.T) {
	t.Parallel()

	var gotParams map[string]any
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/get_genes_for_disease" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &gotParams); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"name":"TP53","db_ns":"HGNC","db_id":"11998"},{"name":"EGFR","db_ns":"HGNC","db_id":"3236"}]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", 0)
	out, err := c.Query(context.Background(), Query{
		Endpoint: "get_genes_for_disease",
		Params:   map[string]any{"disease": []string{"MESH", "D001943"}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if _, ok := gotParams["disease"]; !ok {
		t.Fatalf("params not forwarded: %v", gotParams)
	}

	items, ok := out.([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("unexpected result %#v", out)
	}
	first := items[0].(*document.Record)
	if keys := first.Keys(); keys[0] != "name" || keys[1] != "db_ns" || keys[2] != "db_id" {
		t.Fatalf("key order lost: %v", keys)
	}
}

func TestQueryRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	out, err := c.Query(context.Background(), Query{Endpoint: "health"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	if v, _ := out.(*document.Record).Get("ok"); v != true {
		t.Fatalf("unexpected result %v", out)
	}
}

func TestQueryGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	_, err := c.Query(context.Background(), Query{Endpoint: "get_drugs_for_target"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusBadGateway || se.Endpoint != "get_drugs_for_target" {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestQueryClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"unknown gene"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.Query(context.Background(), Query{Endpoint: "get_gene"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if !se.NotFound() || se.Message != "unknown gene" {
		t.Fatalf("unexpected status error %+v", se)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", n)
	}
}

func TestQueryHonoursContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Query(ctx, Query{Endpoint: "slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestQueryValidation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "http://127.0.0.1:1", 0)
	if _, err := c.Query(context.Background(), Query{}); err == nil {
		t.Fatalf("expected endpoint error")
	}
	if _, err := c.Query(context.Background(), Query{Endpoint: "x", Params: map[string]any{"f": func() {}}}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	resp := &http.Response{Header: http.Header{}}
	if d := parseRetryAfter(resp); d != 0 {
		t.Fatalf("expected 0, got %s", d)
	}
	resp.Header.Set("Retry-After", "3")
	if d := parseRetryAfter(resp); d != 3*time.Second {
		t.Fatalf("expected 3s, got %s", d)
	}
	resp.Header.Set("Retry-After", "86400")
	if d := parseRetryAfter(resp); d != maxRetryAfter {
		t.Fatalf("expected cap, got %s", d)
	}
}

func TestComputeBackoffBounds(t *testing.T) {
	t.Parallel()

	for attempt := 0; attempt < 20; attempt++ {
		d := computeBackoff(10*time.Millisecond, attempt)
		if d < 0 || d > 60*time.Second {
			t.Fatalf("attempt %d: backoff %s out of bounds", attempt, d)
		}
	}
}

func TestShouldRetryStatus(t *testing.T) {
	t.Parallel()

	for status, want := range map[int]bool{
		0: true, 200: false, 400: false, 404: false, 408: true, 429: true, 500: true, 503: true,
	} {
		if got := shouldRetryStatus(status); got != want {
			t.Fatalf("status %d: got %v want %v", status, got, want)
		}
	}
}
