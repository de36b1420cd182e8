package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
)

const maxHeadingLevel = 6

// renderJSON writes normalized data as indented JSON in key order.
func renderJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		// normalize leaves nothing the encoder rejects; keep a readable fallback anyway
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// markdown renders one response. A cases.Caser is stateful, so every render
// gets its own.
type markdown struct {
	title cases.Caser
}

func renderMarkdown(v any) string {
	m := &markdown{title: cases.Title(language.English)}
	return strings.TrimRight(m.value(v, 1), "\n")
}

func (m *markdown) value(v any, level int) string {
	switch t := v.(type) {
	case *document.Record:
		return m.record(t, level)
	case []any:
		return m.list(t, level)
	default:
		return scalar(v)
	}
}

func (m *markdown) record(r *document.Record, level int) string {
	if r.Len() == 0 {
		return "*No data*\n"
	}

	var b strings.Builder
	r.Range(func(key string, val any) bool {
		label := m.heading(key)
		switch val.(type) {
		case *document.Record, []any:
			b.WriteString(strings.Repeat("#", headingLevel(level+1)))
			b.WriteString(" ")
			b.WriteString(label)
			b.WriteString("\n\n")
			b.WriteString(m.value(val, level+1))
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "**%s**: %s\n", label, scalar(val))
		}
		return true
	})
	return b.String()
}

func (m *markdown) list(items []any, level int) string {
	if len(items) == 0 {
		return "*No items*\n"
	}

	var b strings.Builder
	for _, item := range items {
		switch t := item.(type) {
		case *document.Record:
			b.WriteString(m.record(t, level))
			b.WriteString("\n")
		case []any:
			for _, line := range strings.Split(strings.TrimRight(m.list(t, level), "\n"), "\n") {
				if line == "" {
					b.WriteString("\n")
					continue
				}
				b.WriteString("  ")
				b.WriteString(line)
				b.WriteString("\n")
			}
		default:
			b.WriteString("- ")
			b.WriteString(scalar(item))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// heading turns "p_value" into "P Value".
func (m *markdown) heading(key string) string {
	return m.title.String(strings.ReplaceAll(key, "_", " "))
}

func headingLevel(level int) int {
	if level > maxHeadingLevel {
		return maxHeadingLevel
	}
	return level
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "N/A"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t.String()
		}
		if f, err := t.Float64(); err == nil {
			return formatFloat(f)
		}
		return t.String()
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat keeps tiny magnitudes (p-values) in scientific notation, where
// six fixed decimals would print them as zero.
func formatFloat(f float64) string {
	if f != 0 && math.Abs(f) < 1e-4 {
		return strconv.FormatFloat(f, 'e', 3, 64)
	}
	return humanize.Ftoa(f)
}
