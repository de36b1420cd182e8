package format

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// breakpoint is a place where text may be cut. keep is the number of
// separator bytes that stay with the kept text.
type breakpoint struct {
	sep  string
	keep int
}

// Tried in this order; the first one that falls in the last fifth of the
// budget wins.
var breakpoints = []breakpoint{
	{sep: "\n\n", keep: 0},
	{sep: "\n", keep: 0},
	{sep: ". ", keep: 1},
	{sep: ", ", keep: 0},
	{sep: " ", keep: 0},
}

// TruncationNotice is appended to every truncated response.
func TruncationNotice(maxChars int) string {
	return fmt.Sprintf("\n\n---\n*Response truncated at %d characters. Use offset/limit or a narrower query to see the rest.*", maxChars)
}

// Truncate cuts s to at most maxChars characters at the best natural break and
// appends the truncation notice. It reports whether s was cut. The notice is
// not counted against maxChars.
func Truncate(s string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}

	window := prefixRunes(s, maxChars)
	cut := len(window)
	for _, bp := range breakpoints {
		idx := strings.LastIndex(window, bp.sep)
		if idx < 0 {
			continue
		}
		if utf8.RuneCountInString(window[:idx])*5 >= maxChars*4 {
			cut = idx + bp.keep
			break
		}
	}

	return window[:cut] + TruncationNotice(maxChars), true
}

// prefixRunes returns the first n runes of s.
func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
