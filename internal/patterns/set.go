package patterns

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_patterns.yaml
var defaultPatterns []byte

type fileFormat struct {
	CaseSensitive bool        `yaml:"case_sensitive"`
	Patterns      []fileEntry `yaml:"patterns"`
}

type fileEntry struct {
	Literal *string  `yaml:"literal"`
	Regex   *string  `yaml:"regex"`
	Flags   []string `yaml:"flags"`
}

func (f fileEntry) entry() Entry {
	switch {
	case f.Literal != nil && f.Regex != nil:
		return Entry{Kind: KindInvalid, Source: *f.Literal, Problem: "entry has both literal and regex"}
	case f.Literal != nil:
		e := Literal(*f.Literal)
		if err := e.applyFlags(f.Flags); err != nil {
			return Entry{Kind: KindInvalid, Source: *f.Literal, Problem: err.Error()}
		}
		return e
	case f.Regex != nil:
		return Regex(*f.Regex, f.Flags...)
	default:
		return Entry{Kind: KindInvalid, Problem: "entry has neither literal nor regex"}
	}
}

// Parse reads a YAML pattern set. Malformed entries do not fail the parse;
// they are kept as KindInvalid so Compile can report and skip them.
func Parse(data []byte) (*Set, error) {
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse pattern set: %w", err)
	}

	set := &Set{
		CaseSensitive: ff.CaseSensitive,
		Entries:       make([]Entry, 0, len(ff.Patterns)),
	}
	for _, fe := range ff.Patterns {
		set.Entries = append(set.Entries, fe.entry())
	}
	return set, nil
}

// Load reads a YAML pattern set from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern set %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in boilerplate pattern set. Each call returns a
// fresh copy.
func Default() *Set {
	set, err := Parse(defaultPatterns)
	if err != nil {
		panic(fmt.Sprintf("embedded pattern set is malformed: %v", err))
	}
	return set
}

// LoadOrDefault loads path, or returns the built-in set when path is empty.
func LoadOrDefault(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
