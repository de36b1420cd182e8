// Package httpserver serves the operational endpoints next to the MCP stdio
// transport: health, Prometheus metrics and cache statistics.
package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/cache"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/metrics"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/middleware"
	"github.com/ejmockler/indra-cogex-mcp-sub002/pkg/logging/logging"
)

// CacheStats is the part of the cache the ops endpoints read.
type CacheStats interface {
	DetailedStats(topN int) cache.DetailedStats
	ResetStats()
}

const defaultTopKeys = 10

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, stats CacheStats) {
	r.Use(metrics.Middleware)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(middleware.MaxBodySize(64 * 1024))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/debug/cache", func(r chi.Router) {
		r.Get("/", cacheStats(stats))
		r.Post("/reset", resetCacheStats(stats))
	})
}

func cacheStats(stats CacheStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top := defaultTopKeys
		if v := r.URL.Query().Get("top"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "top must be a non-negative integer", http.StatusBadRequest)
				return
			}
			top = n
		}
		writeJSON(w, r, stats.DetailedStats(top))
	}
}

func resetCacheStats(stats CacheStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		before := stats.DetailedStats(0)
		stats.ResetStats()
		logging.L(r.Context()).Info("cache statistics reset",
			zap.Uint64("hits", before.Hits),
			zap.Uint64("misses", before.Misses),
		)
		writeJSON(w, r, map[string]any{"reset": true, "previous": before.Stats})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.L(r.Context()).Warn("write response failed", zap.Error(err))
	}
}
