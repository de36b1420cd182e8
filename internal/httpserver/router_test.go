package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/cache"
)

func newTestRouter(t *testing.T) (*chi.Mux, *cache.Service) {
	t.Helper()
	c, err := cache.New(cache.Config{Enabled: true, MaxSize: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	r := chi.NewRouter()
	SetupRouter(r, zaptest.NewLogger(t), c)
	return r, c
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	r, c := newTestRouter(t)
	c.Set("query_gene|pathways|HGNC:6407", "x")
	c.Get("query_gene|pathways|HGNC:6407")
	c.Get("missing")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/cache?top=1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var got cache.DetailedStats
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Hits != 1 || got.Misses != 1 || got.Size != 1 {
		t.Fatalf("unexpected stats %+v", got)
	}
	if len(got.HotKeys) != 1 || got.HotKeys[0].Key != "query_gene|pathways|HGNC:6407" {
		t.Fatalf("unexpected hot keys %+v", got.HotKeys)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/cache?top=-1", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCacheResetEndpoint(t *testing.T) {
	r, c := newTestRouter(t)
	c.Set("k", 1)
	c.Get("k")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/debug/cache/reset", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if st := c.Stats(); st.Hits != 0 || st.Size != 1 {
		t.Fatalf("expected counters reset and entries kept, got %+v", st)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/cache/reset", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
