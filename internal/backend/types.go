// Package backend talks to the knowledge-graph REST service. Responses are
// decoded into order-preserving documents so key order survives caching and
// rendering.
package backend

import (
	"context"
	"fmt"
)

// Query is one call to a backend endpoint, e.g. "get_genes_for_disease".
type Query struct {
	Endpoint string
	Params   map[string]any
}

// Adapter executes queries against the knowledge graph. The result is a
// decoded document: *document.Record, []any or a scalar.
type Adapter interface {
	Query(ctx context.Context, q Query) (any, error)
}

// AdapterFunc adapts a plain function to Adapter.
type AdapterFunc func(ctx context.Context, q Query) (any, error)

func (f AdapterFunc) Query(ctx context.Context, q Query) (any, error) { return f(ctx, q) }

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// NotFound reports a 404, which tools surface as "no such entity".
func (e *StatusError) NotFound() bool { return e.StatusCode == 404 }

// errorResponse covers the error bodies the service sends: FastAPI style
// {"detail": "..."} and {"error": {"message": "..."}}.
type errorResponse struct {
	Detail any `json:"detail"`
	Error  *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (r errorResponse) message() string {
	if r.Error != nil && r.Error.Message != "" {
		return r.Error.Message
	}
	switch d := r.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}
