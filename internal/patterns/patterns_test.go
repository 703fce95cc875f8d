package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpression(t *testing.T) {
	tests := []struct {
		name          string
		entry         Entry
		caseSensitive bool
		want          string
	}{
		{name: "literal insensitive run", entry: Literal("Ref"), want: "(?i)Ref"},
		{name: "literal sensitive run", entry: Literal("Ref"), caseSensitive: true, want: "Ref"},
		{name: "literal is escaped", entry: Literal("a.b(c)*"), caseSensitive: true, want: `a\.b\(c\)\*`},
		{name: "regex gets global i", entry: Regex(`Topic \d+`), want: `(?i)Topic \d+`},
		{name: "entry widens case", entry: Regex(`Topic \d+`, FlagIgnoreCase), caseSensitive: true, want: `(?i)Topic \d+`},
		{name: "dotall and multiline", entry: Regex(`A.*B`, FlagDotAll, FlagMultiline), caseSensitive: true, want: `(?sm)A.*B`},
		{name: "all flags", entry: Regex(`A.*B`, FlagIgnoreCase, FlagDotAll, FlagMultiline), want: `(?ism)A.*B`},
		{name: "unicode not emitted", entry: Regex(`\w+`, FlagUnicode), caseSensitive: true, want: `\w+`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expression(tt.entry, tt.caseSensitive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteralMatchesVerbatimUnderBothCaseFlags(t *testing.T) {
	literals := []string{
		"Ref",
		`Use of UpToDate is subject to the Terms of Us"`,
		"2025© UpToDate, Inc. and its affiliates and/or licensors. All Rights Reserved",
		`a.b(c)*[d]+?{2}|e^$\`,
	}

	for _, lit := range literals {
		for _, caseSensitive := range []bool{false, true} {
			compiled := Compile([]Entry{Literal(lit)}, caseSensitive, zerolog.Nop())
			require.Len(t, compiled, 1)

			text := "before " + lit + " after"
			loc := compiled[0].Re.FindStringIndex(text)
			require.NotNil(t, loc, "literal %q (case sensitive %v)", lit, caseSensitive)
			assert.Equal(t, lit, text[loc[0]:loc[1]])
		}
	}

	// metacharacters must not act as operators
	compiled := Compile([]Entry{Literal("a.b")}, true, zerolog.Nop())
	require.Len(t, compiled, 1)
	assert.False(t, compiled[0].Re.MatchString("axb"))
}

func TestCaseFlagOnlyWidens(t *testing.T) {
	sensitive := Compile([]Entry{Literal("Ref")}, true, zerolog.Nop())
	require.Len(t, sensitive, 1)
	assert.False(t, sensitive[0].Re.MatchString("REF"))

	insensitive := Compile([]Entry{Literal("Ref")}, false, zerolog.Nop())
	require.Len(t, insensitive, 1)
	assert.True(t, insensitive[0].Re.MatchString("REF"))

	e := Literal("Ref")
	e.IgnoreCase = true
	widened := Compile([]Entry{e}, true, zerolog.Nop())
	require.Len(t, widened, 1)
	assert.True(t, widened[0].Re.MatchString("rEf"))
}

func TestCompileSkipsInvalidAndKeepsOrder(t *testing.T) {
	entries := []Entry{
		Literal("first"),
		{Kind: KindInvalid, Problem: "entry has neither literal nor regex"},
		Regex(`(?=lookahead)`),
		Regex(`x`, "bogus-flag"),
		Literal("first"),
		Regex(`third\d`),
	}

	compiled := Compile(entries, false, zerolog.Nop())
	require.Len(t, compiled, 3)
	assert.Equal(t, "(?i)first", compiled[0].Expression)
	assert.Equal(t, "(?i)first", compiled[1].Expression)
	assert.Equal(t, `(?i)third\d`, compiled[2].Expression)
}

func TestExpressionRejectsInvalidEntry(t *testing.T) {
	_, err := Expression(Entry{Kind: KindInvalid, Source: "x"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestParse(t *testing.T) {
	data := []byte(`
case_sensitive: true
patterns:
  - literal: 'Ref'
  - regex: 'Topic \d+'
    flags: [ignorecase]
  - literal: 'both'
    regex: 'both'
  - flags: [dotall]
  - regex: 'x'
    flags: [sticky]
`)
	set, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, set.CaseSensitive)
	require.Equal(t, 5, set.Len())

	assert.Equal(t, KindLiteral, set.Entries[0].Kind)
	assert.Equal(t, KindRegex, set.Entries[1].Kind)
	assert.True(t, set.Entries[1].IgnoreCase)
	assert.Equal(t, KindInvalid, set.Entries[2].Kind)
	assert.Equal(t, KindInvalid, set.Entries[3].Kind)
	assert.Equal(t, KindInvalid, set.Entries[4].Kind)

	compiled := set.Compile(zerolog.Nop())
	require.Len(t, compiled, 2)
	assert.Equal(t, "Ref", compiled[0].Expression)
	assert.Equal(t, `(?i)Topic \d+`, compiled[1].Expression)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("patterns: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - literal: 'Confidential'\n"), 0o644))

	set, err := LoadOrDefault(path)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "Confidential", set.Entries[0].Source)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultSet(t *testing.T) {
	set := Default()
	assert.False(t, set.CaseSensitive)
	require.Equal(t, 19, set.Len())

	compiled := set.Compile(zerolog.Nop())
	require.Len(t, compiled, 19, "every built-in pattern must compile")

	samples := []string{
		"Use of UpToDate is subject to the Terms of Use",
		"as shown previously(Smith 2019; Jones 2020)a",
		"AUTHORS: Jane Doe, MD\n",
		"This topic last updated: Jan 5, 2024.",
		"Topic 1234 Version 12.0",
		"ACKNOWLEDGMENT: The editorial staff thank\nthe authors of prior versions of this topic review.",
		"literature REVIEW current through: Feb 2025",
	}
	for _, sample := range samples {
		matched := false
		for _, c := range compiled {
			if c.Re.MatchString(sample) {
				matched = true
				break
			}
		}
		assert.True(t, matched, "no built-in pattern matched %q", sample)
	}

	// Default hands out independent copies
	set.Entries[0].Source = "changed"
	assert.Equal(t, "Ref", Default().Entries[0].Source)
}
