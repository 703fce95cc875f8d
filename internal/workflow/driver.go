// Package workflow runs every PDF of an archive through strip, redact, OCR
// and cleanup, one file at a time.
//
// A failing step skips that file and the run moves on. Only a missing or
// unreadable archive, or one without PDFs, fails the run.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdfscrub/internal/archive"
	"pdfscrub/internal/logger"
	"pdfscrub/internal/redact"
	"pdfscrub/pkg/models"
)

// ErrEmptyText is recorded for a document whose OCR produced no text.
var ErrEmptyText = errors.New("no text extracted")

// MetadataStripper removes metadata from a PDF in place.
type MetadataStripper interface {
	Strip(path string) error
}

// Redactor writes a redacted copy of a PDF.
type Redactor interface {
	Redact(ctx context.Context, inPath, outPath string) (*redact.Result, error)
}

// TextExtractor recovers the text of a PDF.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Cleaner post-processes extracted text.
type Cleaner interface {
	Clean(text string) string
}

// Deps are the pipeline steps and reporting settings of a Driver.
type Deps struct {
	Stripper  MetadataStripper
	Redactor  Redactor
	Extractor TextExtractor
	Cleaner   Cleaner

	// Engine names the OCR engine in the run report.
	Engine string

	// Out receives the progress lines; nil means os.Stdout.
	Out io.Writer
}

// Driver processes archives.
type Driver struct {
	deps Deps
	out  io.Writer
	log  zerolog.Logger
}

func New(deps Deps, log zerolog.Logger) *Driver {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	return &Driver{deps: deps, out: out, log: log}
}

// Run processes every PDF in archivePath and writes the outputs under
// outputBase. The archive is validated before any directory is created.
func (d *Driver) Run(ctx context.Context, archivePath, outputBase string) (*models.RunReport, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(d.log, runID)

	report := &models.RunReport{
		RunID:      runID,
		Archive:    archivePath,
		OutputBase: outputBase,
		Engine:     d.deps.Engine,
		StartedAt:  time.Now(),
	}

	if _, err := archive.ListPDFs(archivePath); err != nil {
		log.Error().Err(err).Str("archive", archivePath).Msg("Archive rejected")
		return nil, err
	}

	layout := NewLayout(outputBase)
	if err := layout.Create(); err != nil {
		return nil, err
	}

	paths, err := archive.ExtractPDFs(archivePath, layout.Extracted, log)
	if err != nil {
		log.Error().Err(err).Str("archive", archivePath).Msg("Extraction failed")
		return nil, err
	}

	log.Info().
		Str("archive", archivePath).
		Str("output", outputBase).
		Int("files", len(paths)).
		Msg("Starting run")

	fmt.Fprintf(d.out, "Processing %d PDFs from %s\n\n", len(paths), filepath.Base(archivePath))

	var runErr error
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("Run interrupted")
			runErr = err
			break
		}

		res := d.processFile(ctx, path, layout, log)
		report.Add(res)
		d.printProgress(i+1, len(paths), res)
	}

	report.FinishedAt = time.Now()
	if err := writeReport(layout.ReportPath(), report); err != nil {
		log.Warn().Err(err).Msg("Failed to write run report")
	}

	d.printSummary(report, layout)

	log.Info().
		Int("written", report.Written).
		Int("skipped", report.Skipped).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Run completed")

	return report, runErr
}

// ProcessFile moves one extracted PDF through the pipeline. It never fails:
// a step error ends in StateSkipped with the failed step recorded.
func (d *Driver) ProcessFile(ctx context.Context, path string, layout Layout) models.FileResult {
	return d.processFile(ctx, path, layout, d.log)
}

func (d *Driver) processFile(ctx context.Context, path string, layout Layout, runLog zerolog.Logger) models.FileResult {
	start := time.Now()
	name := filepath.Base(path)
	log := logger.WithFile(runLog, name)

	res := models.FileResult{
		Name:          name,
		State:         models.StateExtracted,
		ExtractedPath: path,
	}

	skip := func(step models.FileState, err error) models.FileResult {
		log.Error().Err(err).Str("step", string(step)).Msg("Skipping file")
		res.State = models.StateSkipped
		res.FailedStep = step
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	if err := d.deps.Stripper.Strip(path); err != nil {
		return skip(models.StateMetadataStripped, err)
	}
	res.State = models.StateMetadataStripped
	log.Debug().Msg("Metadata removed")

	redactedPath := layout.RedactedPath(name)
	rr, err := d.deps.Redactor.Redact(ctx, path, redactedPath)
	if err != nil {
		return skip(models.StateRedacted, err)
	}
	res.State = models.StateRedacted
	res.RedactedPath = redactedPath
	res.Pages = rr.Pages
	res.Redactions = rr.Redactions
	res.CopiedAsIs = rr.Copied
	log.Debug().Int("redactions", rr.Redactions).Bool("copied", rr.Copied).Msg("Redacted")

	text, err := d.deps.Extractor.ExtractText(ctx, redactedPath)
	if err != nil {
		return skip(models.StateTextExtracted, err)
	}
	if text == "" {
		return skip(models.StateTextExtracted, ErrEmptyText)
	}
	res.State = models.StateTextExtracted

	cleaned := d.deps.Cleaner.Clean(text)
	res.State = models.StateCleaned

	textPath := layout.TextPath(name)
	if err := os.WriteFile(textPath, []byte(cleaned), 0o644); err != nil {
		return skip(models.StateWritten, err)
	}
	res.State = models.StateWritten
	res.TextPath = textPath
	res.TextLength = utf8.RuneCountInString(cleaned)
	res.Duration = time.Since(start)

	log.Info().
		Str("text", textPath).
		Int("pages", res.Pages).
		Int("redactions", res.Redactions).
		Dur("duration", res.Duration).
		Msg("File processed")

	return res
}

func (d *Driver) printProgress(n, total int, res models.FileResult) {
	if res.Succeeded() {
		fmt.Fprintf(d.out, "[%d/%d] %s - ✅ (%d redactions, %d chars)\n", n, total, res.Name, res.Redactions, res.TextLength)
		return
	}
	fmt.Fprintf(d.out, "[%d/%d] %s - ❌ (%s: %s)\n", n, total, res.Name, res.FailedStep, res.Error)
}

func (d *Driver) printSummary(report *models.RunReport, layout Layout) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, strings.Repeat("=", 50))
	fmt.Fprintf(d.out, "Written: %d\n", report.Written)
	if report.Skipped > 0 {
		fmt.Fprintf(d.out, "Skipped: %d\n", report.Skipped)
	}
	fmt.Fprintf(d.out, "  - Extracted PDFs (metadata removed): %s\n", layout.Extracted)
	fmt.Fprintf(d.out, "  - Redacted PDFs: %s\n", layout.Redacted)
	fmt.Fprintf(d.out, "  - Text outputs: %s\n", layout.Text)
	fmt.Fprintln(d.out, strings.Repeat("=", 50))
}

func writeReport(path string, report *models.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
