// Package patterns turns redaction entries into regular expressions.
//
// An entry is either a literal string, which is escaped so it matches
// verbatim, or a regular expression in RE2 syntax. Each entry is normalized
// into a single expression whose inline flag group carries the effective
// case-sensitivity, dotall and multiline settings:
//
//	literal "Ref", case-insensitive run      -> (?i)Ref
//	regex "ACK.*?review\." with dotall flag  -> (?is)ACK.*?review\.
//
// Entry flags can widen the global case setting but never narrow it: a
// case-insensitive run compiles every entry with (?i), a case-sensitive run
// keeps (?i) only on entries that ask for it.
//
// The "unicode" flag is accepted so existing pattern files load, and is
// otherwise ignored: RE2 matches runes, but \w, \b and \s stay ASCII. Use
// \p{L} and friends where Unicode classes matter.
package patterns

import (
	"regexp"
	"strings"
)

// Kind tells literal entries apart from regular expressions.
type Kind int

const (
	// KindInvalid marks an entry that could not be classified. Compile skips it.
	KindInvalid Kind = iota
	KindLiteral
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindRegex:
		return "regex"
	default:
		return "invalid"
	}
}

// Flag names accepted in pattern files.
const (
	FlagIgnoreCase = "ignorecase"
	FlagMultiline  = "multiline"
	FlagDotAll     = "dotall"
	FlagUnicode    = "unicode"
)

// Entry is one redaction rule. Entries are immutable once a Set is built.
type Entry struct {
	Kind   Kind
	Source string

	IgnoreCase bool
	Multiline  bool
	DotAll     bool
	Unicode    bool

	// Problem describes why an entry is KindInvalid.
	Problem string
}

// Literal builds an entry that matches s verbatim.
func Literal(s string) Entry {
	return Entry{Kind: KindLiteral, Source: s}
}

// Regex builds a regular expression entry with the given flag names.
// Unknown flag names produce an invalid entry.
func Regex(expr string, flags ...string) Entry {
	e := Entry{Kind: KindRegex, Source: expr}
	if err := e.applyFlags(flags); err != nil {
		return Entry{Kind: KindInvalid, Source: expr, Problem: err.Error()}
	}
	return e
}

func (e *Entry) applyFlags(flags []string) error {
	for _, f := range flags {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FlagIgnoreCase, "i":
			e.IgnoreCase = true
		case FlagMultiline, "m":
			e.Multiline = true
		case FlagDotAll, "s":
			e.DotAll = true
		case FlagUnicode, "u":
			e.Unicode = true
		default:
			return &PatternError{Index: -1, Source: e.Source, Err: ErrInvalidEntry, Details: "unknown flag " + f}
		}
	}
	return nil
}

// Compiled is an entry together with its final expression.
type Compiled struct {
	Entry      Entry
	Expression string
	Re         *regexp.Regexp
}

// Set is an ordered list of entries plus the global case flag.
type Set struct {
	CaseSensitive bool
	Entries       []Entry
}

// Len returns the number of entries, including invalid ones.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
