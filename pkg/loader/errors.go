package loader

import (
	"fmt"
	"strings"
)

// ParseError reports a CSV file that cannot be imported at all:
// unreadable, empty, or missing required headers.
type ParseError struct {
	Path    string
	Missing []string
	Err     error
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing required column(s): %s", e.Path, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a single bad row. The row is skipped, the import continues.
type ValidationError struct {
	Line    int
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("line %d: %s %q: %s", e.Line, e.Field, e.Value, e.Message)
}
