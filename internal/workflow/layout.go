package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output directory names under the output base.
const (
	ExtractedDir = "extracted_pdfs"
	RedactedDir  = "redacted_pdfs"
	TextDir      = "text_output"
	ReportFile   = "report.json"
)

// Layout is the output tree of a run.
type Layout struct {
	Base      string
	Extracted string
	Redacted  string
	Text      string
}

// NewLayout returns the layout rooted at base.
func NewLayout(base string) Layout {
	return Layout{
		Base:      base,
		Extracted: filepath.Join(base, ExtractedDir),
		Redacted:  filepath.Join(base, RedactedDir),
		Text:      filepath.Join(base, TextDir),
	}
}

// Create makes every directory of the layout.
func (l Layout) Create() error {
	for _, dir := range []string{l.Base, l.Extracted, l.Redacted, l.Text} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// RedactedPath is where the redacted copy of the PDF name goes.
func (l Layout) RedactedPath(name string) string {
	return filepath.Join(l.Redacted, "redacted_"+name)
}

// TextPath is where the cleaned text of the PDF name goes.
func (l Layout) TextPath(name string) string {
	return filepath.Join(l.Text, strings.TrimSuffix(name, filepath.Ext(name))+".txt")
}

func (l Layout) ReportPath() string {
	return filepath.Join(l.Base, ReportFile)
}
