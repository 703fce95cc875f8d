package patterns

import (
	"regexp"

	"github.com/rs/zerolog"
)

// Expression returns the RE2 expression for one entry, prefixed with its
// inline flag group.
func Expression(e Entry, caseSensitive bool) (string, error) {
	var body string
	switch e.Kind {
	case KindLiteral:
		body = regexp.QuoteMeta(e.Source)
	case KindRegex:
		body = e.Source
	default:
		return "", &PatternError{Index: -1, Source: e.Source, Err: ErrInvalidEntry, Details: e.Problem}
	}

	flags := ""
	if !caseSensitive || e.IgnoreCase {
		flags += "i"
	}
	if e.Kind == KindRegex {
		if e.DotAll {
			flags += "s"
		}
		if e.Multiline {
			flags += "m"
		}
	}

	if flags == "" {
		return body, nil
	}
	return "(?" + flags + ")" + body, nil
}

// Compile normalizes entries in order. Invalid entries and expressions that
// RE2 rejects are logged and left out; the rest keep their relative order.
func Compile(entries []Entry, caseSensitive bool, log zerolog.Logger) []Compiled {
	compiled := make([]Compiled, 0, len(entries))
	for i, e := range entries {
		expr, err := Expression(e, caseSensitive)
		if err != nil {
			log.Warn().
				Int("index", i).
				Str("source", e.Source).
				Str("problem", e.Problem).
				Msg("Skipping invalid redaction pattern")
			continue
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			perr := &PatternError{Index: i, Source: e.Source, Err: ErrCompile, Details: err.Error()}
			log.Warn().
				Err(perr).
				Str("expression", expr).
				Msg("Skipping redaction pattern that does not compile")
			continue
		}

		compiled = append(compiled, Compiled{Entry: e, Expression: expr, Re: re})
	}
	return compiled
}

// Compile normalizes every entry of the set with the set's case flag.
func (s *Set) Compile(log zerolog.Logger) []Compiled {
	if s == nil {
		return nil
	}
	return Compile(s.Entries, s.CaseSensitive, log)
}
