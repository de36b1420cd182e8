package cache

import (
	"encoding/json"
	"fmt"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
)

// estimateSize approximates the bytes a value holds, for the memory figures
// in DetailedStats. It walks document shapes and falls back to the JSON
// encoding length for anything else.
func estimateSize(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		return len(t)
	case []byte:
		return len(t)
	case json.Number:
		return len(t)
	case bool:
		return 1
	case int, int64, uint64, float64:
		return 8
	case int32, uint32, float32:
		return 4
	case *document.Record:
		if t == nil {
			return 0
		}
		n := 0
		t.Range(func(k string, val any) bool {
			n += len(k) + estimateSize(val)
			return true
		})
		return n
	case []any:
		n := 0
		for _, item := range t {
			n += estimateSize(item)
		}
		return n
	case map[string]any:
		n := 0
		for k, val := range t {
			n += len(k) + estimateSize(val)
		}
		return n
	default:
		if b, err := json.Marshal(v); err == nil {
			return len(b)
		}
		return len(fmt.Sprint(v))
	}
}
