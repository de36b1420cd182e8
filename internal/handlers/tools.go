package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/backend"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/cache"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/format"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/metrics"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/pagination"
	"github.com/ejmockler/indra-cogex-mcp-sub002/pkg/logging/logging"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Handlers holds dependencies for the MCP tools.
type Handlers struct {
	backend   backend.Adapter
	cache     *cache.Service
	formatter *format.Formatter
	resolver  Resolver
	timeout   time.Duration
	logger    *zap.Logger
}

type Deps struct {
	Backend   backend.Adapter
	Cache     *cache.Service
	Formatter *format.Formatter
	Resolver  Resolver      // default: CURIEResolver
	Timeout   time.Duration // per tool call, 0 means none
	Logger    *zap.Logger
}

func New(d Deps) (*Handlers, error) {
	if d.Backend == nil {
		return nil, errors.New("handlers: backend is required")
	}
	if d.Cache == nil {
		return nil, errors.New("handlers: cache is required")
	}
	if d.Formatter == nil {
		return nil, errors.New("handlers: formatter is required")
	}
	if d.Resolver == nil {
		d.Resolver = CURIEResolver{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handlers{
		backend:   d.Backend,
		cache:     d.Cache,
		formatter: d.Formatter,
		resolver:  d.Resolver,
		timeout:   d.Timeout,
		logger:    d.Logger.Named("tools"),
	}, nil
}

// toolError is a failure reported to the client as a tool result.
type toolError struct {
	status string
	msg    string
}

func (e *toolError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &toolError{status: "invalid", msg: fmt.Sprintf(format, args...)}
}

// Query returns the MCP handler for a catalogue tool.
func (h *Handlers) Query(tool Tool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		modeName := req.GetString("mode", "")

		ctx = logging.WithLogger(ctx, h.logger.With(
			zap.String("tool", tool.Name),
			zap.String("mode", modeName),
		))
		if h.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}

		text, err := h.run(ctx, tool, req)
		status := "ok"
		if err != nil {
			status = classify(err)
		}
		metrics.ObserveTool(tool.Name, modeName, status, time.Since(start))

		logger := logging.L(ctx)
		if err != nil {
			logger.Warn("tool_call", zap.String("status", status), zap.Duration("duration", time.Since(start)), zap.Error(err))
			return mcp.NewToolResultError(message(err, h.timeout)), nil
		}
		logger.Info("tool_call",
			zap.String("status", status),
			zap.Int("chars", len(text)),
			zap.Duration("duration", time.Since(start)),
		)
		return mcp.NewToolResultText(text), nil
	}
}

func (h *Handlers) run(ctx context.Context, tool Tool, req mcp.CallToolRequest) (string, error) {
	modeName, err := req.RequireString("mode")
	if err != nil {
		return "", invalid("%s", err.Error())
	}
	mode, ok := tool.Mode(modeName)
	if !ok {
		return "", invalid("unknown mode %q for %s; expected one of %v", modeName, tool.Name, tool.ModeNames())
	}

	typ, err := format.ParseType(req.GetString("response_format", string(format.Markdown)))
	if err != nil {
		return "", invalid("%s", err.Error())
	}

	ref, err := req.RequireString("entity")
	if err != nil {
		return "", invalid("%s", err.Error())
	}
	entity, err := h.resolver.Resolve(ctx, ref)
	if err != nil {
		return "", &toolError{status: "invalid", msg: err.Error()}
	}

	params := map[string]any{mode.Param: entity.Pair()}
	keyParts := []any{mode.Name, entity.CURIE()}
	var targetCURIE string

	if mode.TargetParam != "" {
		targetRef, err := req.RequireString("target")
		if err != nil {
			return "", invalid("%s", err.Error())
		}
		target, err := h.resolver.Resolve(ctx, targetRef)
		if err != nil {
			return "", &toolError{status: "invalid", msg: err.Error()}
		}
		params[mode.TargetParam] = target.Pair()
		targetCURIE = target.CURIE()
		keyParts = append(keyParts, targetCURIE)
	}

	ctx = logging.WithFields(ctx, zap.String("entity", entity.CURIE()))

	// offset and limit stay out of the key so every page is served from one entry
	key := cache.MakeKey(tool.Name, keyParts...)
	result, err := cache.Load(ctx, h.cache, key, func(ctx context.Context) (any, error) {
		return h.backend.Query(ctx, backend.Query{Endpoint: mode.Endpoint, Params: params})
	})
	if err != nil {
		return "", err
	}

	out := document.NewRecord().
		Set("tool", tool.Name).
		Set("mode", mode.Name).
		Set("entity", entity.CURIE())
	if targetCURIE != "" {
		out.Set("target", targetCURIE)
	}

	if mode.List {
		offset, limit := pagination.Normalize(
			req.GetInt("offset", 0),
			req.GetInt("limit", DefaultLimit),
			DefaultLimit, MaxLimit,
		)
		page, desc := pagination.Page(asList(result), offset, limit)
		out.Set("summary", format.PaginationSummary(desc)).
			Set("results", page).
			Set("pagination", desc)
	} else {
		out.Set("result", result)
	}

	return h.formatter.Format(out, typ)
}

// asList views a backend answer as a sequence.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{t}
	}
}

func classify(err error) string {
	var te *toolError
	switch {
	case errors.As(err, &te):
		return te.status
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// message is the text the client sees for a failed call.
func message(err error, timeout time.Duration) string {
	var te *toolError
	if errors.As(err, &te) {
		return te.msg
	}
	var se *backend.StatusError
	if errors.As(err, &se) {
		if se.NotFound() {
			return "No data found: " + se.Error()
		}
		return "Knowledge graph query failed: " + se.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Query timed out after %s; try a narrower query.", timeout)
	}
	return "Query failed: " + err.Error()
}
