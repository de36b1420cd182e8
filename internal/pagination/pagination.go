// Package pagination computes the offset/limit descriptor shared by every
// list-returning tool mode.
package pagination

// Descriptor describes one page of a larger result set.
type Descriptor struct {
	Count      int  `json:"count"`
	TotalCount int  `json:"total_count"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset"`
}

// Paginate builds the descriptor for items, which must already be the page
// starting at offset. It does not slice; len(items) <= limit is the caller's
// responsibility.
func Paginate[T any](items []T, totalCount, offset, limit int) Descriptor {
	count := len(items)
	d := Descriptor{
		Count:      count,
		TotalCount: totalCount,
		Offset:     offset,
		Limit:      limit,
		HasMore:    offset+count < totalCount,
	}
	if d.HasMore {
		next := offset + count
		d.NextOffset = &next
	}
	return d
}

// Slice returns items[offset:offset+limit] clamped to the bounds of items.
// A negative offset is treated as zero and a non-positive limit yields an
// empty page.
func Slice[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	return items[offset:end]
}

// Page slices all and describes the resulting page in one step.
func Page[T any](all []T, offset, limit int) ([]T, Descriptor) {
	if offset < 0 {
		offset = 0
	}
	page := Slice(all, offset, limit)
	return page, Paginate(page, len(all), offset, limit)
}

// Normalize clamps tool input: a negative offset becomes 0, a non-positive
// limit becomes defaultLimit and limits above maxLimit are capped.
func Normalize(offset, limit, defaultLimit, maxLimit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}
