package patterns

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is returned for entries that are neither a literal nor a
	// regular expression, or that carry unknown flags.
	ErrInvalidEntry = errors.New("invalid redaction entry")

	// ErrCompile is returned when an entry's final expression is not valid RE2.
	ErrCompile = errors.New("pattern does not compile")
)

// PatternError wraps a failure for a single entry.
type PatternError struct {
	// Index is the entry position in its set, or -1 when unknown.
	Index   int
	Source  string
	Err     error
	Details string
}

func (e *PatternError) Error() string {
	msg := fmt.Sprintf("patterns: entry %q", e.Source)
	if e.Index >= 0 {
		msg = fmt.Sprintf("patterns: entry %d (%q)", e.Index, e.Source)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %v", msg, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func (e *PatternError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
