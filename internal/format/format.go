// Package format renders tool results as JSON or Markdown text and keeps the
// rendered text inside a character budget.
//
// Characters are counted as Unicode code points, not bytes.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Type selects the response encoding.
type Type string

const (
	// JSON is the structured, machine-parseable encoding.
	JSON Type = "json"
	// Markdown is the narrative encoding meant for a reader.
	Markdown Type = "markdown"
)

// ErrUnknownFormat is the sentinel wrapped by every *FormatError.
var ErrUnknownFormat = errors.New("unknown response format")

// FormatError reports a response format selector that is neither JSON nor
// Markdown. It is a caller bug, not a data problem.
type FormatError struct {
	Type string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format: unknown response format %q (want %q or %q)", e.Type, JSON, Markdown)
}

func (e *FormatError) Unwrap() error { return ErrUnknownFormat }

// ParseType maps a user supplied selector to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", &FormatError{Type: s}
	}
}

// Serializable is implemented by domain values that know their own
// plain-data representation (records, slices, scalars).
type Serializable interface {
	Serialize() any
}

// Response renders data in the requested encoding and truncates it to
// maxChars. When truncation happens the returned text is the truncated
// content followed by TruncationNotice(maxChars), so it can exceed maxChars by
// the length of the notice. maxChars <= 0 disables truncation.
func Response(data any, t Type, maxChars int) (string, error) {
	out, err := render(data, t)
	if err != nil {
		return "", err
	}
	out, _ = Truncate(out, maxChars)
	return out, nil
}

func render(data any, t Type) (string, error) {
	switch t {
	case JSON:
		return renderJSON(normalize(data)), nil
	case Markdown:
		return renderMarkdown(normalize(data)), nil
	default:
		return "", &FormatError{Type: string(t)}
	}
}

// Formatter carries the configured character limit so handlers do not pass it
// around.
type Formatter struct {
	limit  int
	logger *zap.Logger
}

// New returns a Formatter enforcing limit characters per response.
func New(limit int, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{limit: limit, logger: logger.Named("format")}
}

// Limit returns the configured character budget.
func (f *Formatter) Limit() int { return f.limit }

// Format renders data with the configured limit.
func (f *Formatter) Format(data any, t Type) (string, error) {
	out, err := render(data, t)
	if err != nil {
		return "", err
	}
	truncated, ok := Truncate(out, f.limit)
	if ok {
		f.logger.Debug("response truncated",
			zap.String("format", string(t)),
			zap.Int("rendered_chars", utf8.RuneCountInString(out)),
			zap.Int("limit", f.limit),
		)
	}
	return truncated, nil
}
