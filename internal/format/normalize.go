package format

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
)

// maxDepth bounds recursion on self-referencing values.
const maxDepth = 64

// normalize converts v into the document model: *document.Record, []any,
// string, bool, nil, json.Number or a Go number. It never fails; values it
// cannot represent become their fmt string.
func normalize(v any) any {
	return normalizeDepth(v, 0)
}

func normalizeDepth(v any, depth int) any {
	if depth > maxDepth {
		return fmt.Sprint(v)
	}

	switch t := v.(type) {
	case nil:
		return nil
	case Serializable:
		return normalizeDepth(t.Serialize(), depth+1)
	case *document.Record:
		if t == nil {
			return nil
		}
		out := document.NewRecord(t.Len())
		t.Range(func(k string, val any) bool {
			out.Set(k, normalizeDepth(val, depth+1))
			return true
		})
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeDepth(item, depth+1)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := document.NewRecord(len(keys))
		for _, k := range keys {
			out.Set(k, normalizeDepth(t[k], depth+1))
		}
		return out
	case string, bool, json.Number:
		return t
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return t
	case float32:
		return normalizeFloat(float64(t))
	case float64:
		return normalizeFloat(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case time.Duration:
		return t.String()
	case error:
		return t.Error()
	}

	return normalizeReflect(v, depth)
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

func normalizeReflect(v any, depth int) any {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalizeDepth(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// byte slices keep their JSON (base64) form
			break
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeDepth(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		entries := make([]mapEntry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, v := iter.Key().Interface(), iter.Value().Interface()
			entries = append(entries, mapEntry{
				name:  fmt.Sprint(k),
				tie:   fmt.Sprintf("%T", k),
				value: v,
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].name != entries[j].name {
				return entries[i].name < entries[j].name
			}
			return entries[i].tie < entries[j].tie
		})
		out := document.NewRecord(len(entries))
		seen := make(map[string]int, len(entries))
		for _, e := range entries {
			name := e.name
			// keys that print alike (1 and "1", several NaNs) keep separate entries
			if n := seen[e.name]; n > 0 {
				name = fmt.Sprintf("%s#%d", e.name, n+1)
			}
			seen[e.name]++
			out.Set(name, normalizeDepth(e.value, depth+1))
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float())
	}

	// Structs and anything else that knows its JSON form keep that form,
	// including field order.
	b, err := document.Encode(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	decoded, err := document.Decode(b)
	if err != nil {
		return fmt.Sprint(v)
	}
	return decoded
}

type mapEntry struct {
	name  string
	tie   string
	value any
}
