package redact

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound is returned when the document to redact does not exist.
	ErrInputNotFound = errors.New("input PDF not found")

	// ErrRedactionFailed is returned when the document cannot be read, edited or written.
	ErrRedactionFailed = errors.New("redaction failed")

	// ErrTextLayer is returned when a page's text cannot be read for searching.
	ErrTextLayer = errors.New("text layer unavailable")

	// ErrEmptyMatch is returned for a pattern that matches empty text on a page.
	// Such a pattern is skipped for that page.
	ErrEmptyMatch = errors.New("pattern matched empty text")
)

// RedactionError wraps errors with the operation and page that failed.
type RedactionError struct {
	// Op is the operation that failed (e.g., "Redact", "ReadTextLayer").
	Op string

	// Page is the 1-based page number, or 0 when the failure is not page specific.
	Page int

	Err     error
	Details string
}

func (e *RedactionError) Error() string {
	where := e.Op
	if e.Page > 0 {
		where = fmt.Sprintf("%s (page %d)", e.Op, e.Page)
	}
	if e.Details != "" {
		return fmt.Sprintf("redact: %s failed: %s: %v", where, e.Details, e.Err)
	}
	return fmt.Sprintf("redact: %s failed: %v", where, e.Err)
}

func (e *RedactionError) Unwrap() error {
	return e.Err
}

func (e *RedactionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRedactionError wraps err unless it already is a *RedactionError.
func WrapRedactionError(op string, page int, err error, details string) error {
	if err == nil {
		return nil
	}

	var redactErr *RedactionError
	if errors.As(err, &redactErr) {
		return err
	}

	return &RedactionError{Op: op, Page: page, Err: err, Details: details}
}
