package cache

import (
	"testing"
)

func TestMakeKey(t *testing.T) {
	offset := 20
	var missing *int
	var nilMap map[string]string

	tests := []struct {
		name  string
		parts []any
		want  string
	}{
		{name: "prefix only", want: "query_gene"},
		{name: "mixed parts", parts: []any{"features", 10, true}, want: "query_gene|features|10|true"},
		{name: "nil dropped", parts: []any{"features", nil, "HGNC:6407"}, want: "query_gene|features|HGNC:6407"},
		{name: "nil pointer and map dropped", parts: []any{missing, nilMap, "x"}, want: "query_gene|x"},
		{name: "pointer dereferenced", parts: []any{&offset}, want: "query_gene|20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeKey("query_gene", tt.parts...); got != tt.want {
				t.Fatalf("MakeKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseToolKey(t *testing.T) {
	parts, ok := parseToolKey(MakeKey("query_drug", "targets", "CHEBI:45783", 0))
	if !ok {
		t.Fatalf("expected key to parse")
	}
	if parts.tool != "query_drug" || parts.mode != "targets" || parts.entity != "CHEBI:45783|0" {
		t.Fatalf("unexpected parts %+v", parts)
	}
	if _, ok := parseToolKey("plain"); ok {
		t.Fatalf("expected plain key to be rejected")
	}
}
