package handlers

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/format"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/metrics"
)

const defaultHotKeys = 10

// CacheStatus reports cache statistics. reset=true zeroes the counters after
// the snapshot is taken.
func (h *Handlers) CacheStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	typ, err := format.ParseType(req.GetString("response_format", string(format.Markdown)))
	if err != nil {
		metrics.ObserveTool("cache_status", "", "invalid", time.Since(start))
		return mcp.NewToolResultError(err.Error()), nil
	}

	top := req.GetInt("top", defaultHotKeys)
	if top < 0 {
		top = 0
	}
	stats := h.cache.DetailedStats(top)

	reset := req.GetBool("reset", false)
	if reset {
		h.cache.ResetStats()
		h.logger.Info("cache statistics reset")
	}

	out := document.NewRecord().
		Set("cache", stats).
		Set("reset", reset)

	text, err := h.formatter.Format(out, typ)
	if err != nil {
		metrics.ObserveTool("cache_status", "", "error", time.Since(start))
		return mcp.NewToolResultError(err.Error()), nil
	}
	metrics.ObserveTool("cache_status", "", "ok", time.Since(start))
	h.logger.Debug("cache_status", zap.Int("entries", stats.Size))
	return mcp.NewToolResultText(text), nil
}
