package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/backend"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/cache"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/format"
)

type fakeBackend struct {
	calls atomic.Int32
	last  atomic.Value // backend.Query
	fn    func(q backend.Query) (any, error)
}

func (f *fakeBackend) Query(_ context.Context, q backend.Query) (any, error) {
	f.calls.Add(1)
	f.last.Store(q)
	return f.fn(q)
}

func genes(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = document.NewRecord().
			Set("name", "GENE"+string(rune('A'+i%26))).
			Set("db_ns", "HGNC").
			Set("db_id", json.Number("1000"))
	}
	return out
}

func newTestHandlers(t *testing.T, fb *fakeBackend, limit int) (*Handlers, *cache.Service) {
	t.Helper()
	c, err := cache.New(cache.Config{Enabled: true, MaxSize: 100, TTL: time.Hour})
	require.NoError(t, err)

	h, err := New(Deps{
		Backend:   fb,
		Cache:     c,
		Formatter: format.New(limit, nil),
		Timeout:   time.Second,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return h, c
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func tool(t *testing.T, name string) Tool {
	t.Helper()
	for _, tl := range Catalog() {
		if tl.Name == name {
			return tl
		}
	}
	t.Fatalf("no tool %s", name)
	return Tool{}
}

func TestQueryPagesFromOneCachedResult(t *testing.T) {
	fb := &fakeBackend{fn: func(backend.Query) (any, error) { return genes(45), nil }}
	h, c := newTestHandlers(t, fb, 0)
	handler := h.Query(tool(t, "query_disease"))
	ctx := context.Background()

	res, err := handler(ctx, callReq(map[string]any{
		"mode": "genes", "entity": "mesh:D001943", "response_format": "json",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	v, err := document.Decode([]byte(resultText(t, res)))
	require.NoError(t, err)
	rec := v.(*document.Record)
	assert.Equal(t, []string{"tool", "mode", "entity", "summary", "results", "pagination"}, rec.Keys())

	entity, _ := rec.Get("entity")
	assert.Equal(t, "MESH:D001943", entity)

	results, _ := rec.Get("results")
	assert.Len(t, results, 20)

	pag, _ := rec.Get("pagination")
	next, _ := pag.(*document.Record).Get("next_offset")
	assert.Equal(t, json.Number("20"), next)

	q := fb.last.Load().(backend.Query)
	assert.Equal(t, "get_genes_for_disease", q.Endpoint)
	assert.Equal(t, []string{"MESH", "D001943"}, q.Params["disease"])

	// last page comes from the cache
	res, err = handler(ctx, callReq(map[string]any{
		"mode": "genes", "entity": "MESH:D001943", "offset": 40, "limit": 20,
	}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "Showing 41-45 of 45 results.")
	assert.Contains(t, text, "## Results")

	assert.EqualValues(t, 1, fb.calls.Load())
	st := c.Stats()
	assert.EqualValues(t, 1, st.Hits)
	assert.EqualValues(t, 1, st.Misses)
}

func TestQueryLimitIsCapped(t *testing.T) {
	fb := &fakeBackend{fn: func(backend.Query) (any, error) { return genes(150), nil }}
	h, _ := newTestHandlers(t, fb, 0)

	res, err := h.Query(tool(t, "query_gene"))(context.Background(), callReq(map[string]any{
		"mode": "diseases", "entity": "hgnc:11998", "limit": 500, "response_format": "json",
	}))
	require.NoError(t, err)

	v, err := document.Decode([]byte(resultText(t, res)))
	require.NoError(t, err)
	results, _ := v.(*document.Record).Get("results")
	assert.Len(t, results, MaxLimit)
}

func TestQueryRejectsBadInput(t *testing.T) {
	fb := &fakeBackend{fn: func(backend.Query) (any, error) { return genes(1), nil }}
	h, _ := newTestHandlers(t, fb, 0)
	handler := h.Query(tool(t, "query_gene"))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing mode", args: map[string]any{"entity": "hgnc:1"}, want: "mode"},
		{name: "unknown mode", args: map[string]any{"mode": "nope", "entity": "hgnc:1"}, want: "unknown mode"},
		{name: "free text entity", args: map[string]any{"mode": "diseases", "entity": "tumor protein"}, want: "CURIE"},
		{name: "unknown format", args: map[string]any{"mode": "diseases", "entity": "hgnc:1", "response_format": "xml"}, want: "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := handler(context.Background(), callReq(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
	assert.EqualValues(t, 0, fb.calls.Load())
}

func TestQueryBackendErrors(t *testing.T) {
	fb := &fakeBackend{fn: func(q backend.Query) (any, error) {
		return nil, &backend.StatusError{Endpoint: q.Endpoint, StatusCode: 404, Message: "unknown drug"}
	}}
	h, c := newTestHandlers(t, fb, 0)
	handler := h.Query(tool(t, "query_drug"))

	for i := 0; i < 2; i++ {
		res, err := handler(context.Background(), callReq(map[string]any{"mode": "targets", "entity": "chebi:0"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "No data found")
	}
	// failures are not cached
	assert.EqualValues(t, 2, fb.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCheckRelationship(t *testing.T) {
	fb := &fakeBackend{fn: func(backend.Query) (any, error) { return true, nil }}
	h, _ := newTestHandlers(t, fb, 0)

	res, err := h.Query(tool(t, "check_relationship"))(context.Background(), callReq(map[string]any{
		"mode": "drug_target", "entity": "chebi:45783", "target": "hgnc:76",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	text := resultText(t, res)
	assert.Contains(t, text, "**Target**: HGNC:76")
	assert.Contains(t, text, "**Result**: true")

	q := fb.last.Load().(backend.Query)
	assert.Equal(t, "is_drug_target", q.Endpoint)
	assert.Equal(t, []string{"CHEBI", "45783"}, q.Params["drug"])
	assert.Equal(t, []string{"HGNC", "76"}, q.Params["target"])
}

func TestQueryTruncatesLongResponses(t *testing.T) {
	fb := &fakeBackend{fn: func(backend.Query) (any, error) { return genes(100), nil }}
	h, _ := newTestHandlers(t, fb, 300)

	res, err := h.Query(tool(t, "query_pathway"))(context.Background(), callReq(map[string]any{
		"mode": "genes", "entity": "reactome:R-HSA-1", "limit": 100,
	}))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resultText(t, res), format.TruncationNotice(300)))
}

func TestCacheStatus(t *testing.T) {
	fb := &fakeBackend{fn: func(backend.Query) (any, error) { return genes(3), nil }}
	h, c := newTestHandlers(t, fb, 0)
	handler := h.Query(tool(t, "query_gene"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := handler(ctx, callReq(map[string]any{"mode": "pathways", "entity": "hgnc:6407"}))
		require.NoError(t, err)
	}

	res, err := h.CacheStatus(ctx, callReq(map[string]any{"response_format": "json", "reset": true}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	v, err := document.Decode([]byte(resultText(t, res)))
	require.NoError(t, err)
	stats, _ := v.(*document.Record).Get("cache")
	rec := stats.(*document.Record)

	hits, _ := rec.Get("hits")
	assert.Equal(t, json.Number("2"), hits)
	hot, _ := rec.Get("hot_keys")
	first := hot.([]any)[0].(*document.Record)
	key, _ := first.Get("key")
	assert.Equal(t, "query_gene|pathways|HGNC:6407", key)

	assert.EqualValues(t, 0, c.Stats().Hits)
	assert.Equal(t, 1, c.Len())
}

func TestCURIEResolver(t *testing.T) {
	r := CURIEResolver{}
	ctx := context.Background()

	e, err := r.Resolve(ctx, " hgnc:11998 ")
	require.NoError(t, err)
	assert.Equal(t, Entity{Namespace: "HGNC", ID: "11998"}, e)
	assert.Equal(t, "HGNC:11998", e.CURIE())

	e, err = r.Resolve(ctx, "go:GO:0006915")
	require.NoError(t, err)
	assert.Equal(t, "GO:0006915", e.CURIE())

	_, err = r.Resolve(ctx, "TP53")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestCatalogModesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, tl := range Catalog() {
		assert.False(t, seen[tl.Name], "duplicate tool %s", tl.Name)
		seen[tl.Name] = true

		modes := map[string]bool{}
		for _, m := range tl.Modes {
			assert.False(t, modes[m.Name], "duplicate mode %s.%s", tl.Name, m.Name)
			modes[m.Name] = true
			assert.NotEmpty(t, m.Endpoint)
			assert.NotEmpty(t, m.Param)
		}
	}
	assert.Len(t, seen, 10)
}

func TestNewServerListsTools(t *testing.T) {
	h, _ := newTestHandlers(t, &fakeBackend{fn: func(backend.Query) (any, error) { return nil, nil }}, 0)
	s := NewServer("test", h)

	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	resp, ok := msg.(mcp.JSONRPCResponse)
	require.True(t, ok, "unexpected message %#v", msg)

	result, ok := resp.Result.(mcp.ListToolsResult)
	require.True(t, ok, "unexpected result %T", resp.Result)
	assert.Len(t, result.Tools, len(Catalog())+1)
}
