// Package cleanup removes boilerplate that survives OCR.
package cleanup

import (
	"regexp"
	"strings"
)

// DefaultToken is the trademark stripped from every kept line.
const DefaultToken = "UpToDate"

// DefaultMarker matches a copyright notice with a year.
var DefaultMarker = regexp.MustCompile(`(?i)Copyright ©\s*\d{4}`)

// Cleaner drops copyright blocks and strips a trademark token.
type Cleaner struct {
	marker *regexp.Regexp
	token  *regexp.Regexp
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithMarker replaces the copyright marker expression.
func WithMarker(re *regexp.Regexp) Option {
	return func(c *Cleaner) { c.marker = re }
}

// WithToken replaces the token removed from kept lines. Matching is
// case-insensitive and whole-word.
func WithToken(token string) Option {
	return func(c *Cleaner) { c.token = tokenPattern(token) }
}

func tokenPattern(token string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
}

// New returns a Cleaner with the default marker and token unless overridden.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		marker: DefaultMarker,
		token:  tokenPattern(DefaultToken),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCleaner = New()

// Clean runs the default Cleaner.
func Clean(text string) string {
	return defaultCleaner.Clean(text)
}

// Clean scans text line by line. A line matching the marker is dropped
// together with the line after it, and the last kept line is dropped too
// when it equals the raw line just before the marker. Every other line is
// kept with the token removed.
//
// The previous-line check compares text, not position: if the token was
// stripped from that line when it was kept, the two no longer match and the
// line stays.
func (c *Cleaner) Clean(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if c.marker.MatchString(line) {
			if len(out) > 0 && i > 0 && lines[i-1] == out[len(out)-1] {
				out = out[:len(out)-1]
			}
			i++ // skip the line after the marker as well
			continue
		}

		out = append(out, c.token.ReplaceAllString(line, ""))
	}

	return strings.Join(out, "\n")
}
