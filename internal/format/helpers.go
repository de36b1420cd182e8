package format

import (
	"fmt"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/pagination"
)

// EntityRef renders an entity as its name followed by its compact identifier.
func EntityRef(name, curie string) string {
	switch {
	case name == "" && curie == "":
		return "unknown entity"
	case name == "":
		return "`" + curie + "`"
	case curie == "":
		return name
	default:
		return fmt.Sprintf("%s (`%s`)", name, curie)
	}
}

// PaginationSummary renders a one-line description of a page.
func PaginationSummary(d pagination.Descriptor) string {
	if d.Count == 0 {
		if d.TotalCount == 0 {
			return "No results."
		}
		return fmt.Sprintf("No results at offset %d (%d total).", d.Offset, d.TotalCount)
	}

	s := fmt.Sprintf("Showing %d-%d of %d results.", d.Offset+1, d.Offset+d.Count, d.TotalCount)
	if d.HasMore && d.NextOffset != nil {
		s += fmt.Sprintf(" More available: use offset=%d.", *d.NextOffset)
	}
	return s
}
