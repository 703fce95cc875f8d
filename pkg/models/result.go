package models

import "time"

// FileState is the position of one input PDF in the processing pipeline.
type FileState string

const (
	StateExtracted        FileState = "extracted"
	StateMetadataStripped FileState = "metadata_stripped"
	StateRedacted         FileState = "redacted"
	StateTextExtracted    FileState = "text_extracted"
	StateCleaned          FileState = "cleaned"
	StateWritten          FileState = "written"
	StateSkipped          FileState = "skipped"
)

// FileResult records what happened to one PDF from the archive.
type FileResult struct {
	// Identity
	Name  string    `json:"name"`  // Base name of the extracted PDF
	State FileState `json:"state"` // Final state: written or skipped

	// Failure (set only when State is skipped)
	FailedStep FileState `json:"failed_step,omitempty"` // Step that was being attempted
	Error      string    `json:"error,omitempty"`

	// Outputs
	ExtractedPath string `json:"extracted_path"`
	RedactedPath  string `json:"redacted_path,omitempty"`
	TextPath      string `json:"text_path,omitempty"`

	// Counters
	Pages      int  `json:"pages"`
	Redactions int  `json:"redactions"`
	CopiedAsIs bool `json:"copied_as_is"` // No redactions, PDF copied verbatim
	TextLength int  `json:"text_length"`  // Characters of cleaned text written

	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the text file was written.
func (r FileResult) Succeeded() bool {
	return r.State == StateWritten
}

// RunReport summarizes one processing run over an archive.
type RunReport struct {
	RunID      string `json:"run_id"`
	Archive    string `json:"archive"`
	OutputBase string `json:"output_base"`
	Engine     string `json:"engine"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Files []FileResult `json:"files"`

	// Totals
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Add appends a file result and updates the totals.
func (r *RunReport) Add(res FileResult) {
	r.Files = append(r.Files, res)
	if res.Succeeded() {
		r.Written++
	} else {
		r.Skipped++
	}
}
