// Package redact blanks header and footer bands and pattern matches on every
// page of a PDF.
//
// Pages are read and written with pdfcpu. Each page's content stream is
// traced to place every glyph and image; the traced glyphs are decoded to
// text by a separate reader for pattern search. Glyphs and images under a
// redaction are removed from the content and the regions are painted black.
// When the text reader cannot handle a page, the page still gets its header
// and footer bands. A document with nothing to redact is copied byte for byte.
package redact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"

	"pdfscrub/internal/patterns"
)

// Config holds the band heights in points.
type Config struct {
	HeaderHeight float64
	FooterHeight float64
}

// DefaultConfig returns 70pt bands top and bottom.
func DefaultConfig() Config {
	return Config{HeaderHeight: 70, FooterHeight: 70}
}

// Result summarizes one redaction.
type Result struct {
	Pages      int
	Redactions int

	// BandRedactions counts applied header and footer bands.
	BandRedactions int
	// MatchRedactions counts pattern rectangles that were painted.
	MatchRedactions int
	// Suppressed counts pattern rectangles dropped because they touched a band.
	Suppressed int
	// TextLayerFailures counts pages searched without a text layer.
	TextLayerFailures int
	// Erased counts glyphs and images removed from page content.
	Erased int

	// Copied is set when the input had nothing to redact and was copied verbatim.
	Copied bool
}

// Redactor applies a fixed configuration and pattern list to documents.
type Redactor struct {
	cfg      Config
	patterns []patterns.Compiled
	log      zerolog.Logger
}

// New returns a Redactor. compiled is typically the output of patterns.Compile.
func New(cfg Config, compiled []patterns.Compiled, log zerolog.Logger) *Redactor {
	return &Redactor{cfg: cfg, patterns: compiled, log: log}
}

// Redact writes a redacted copy of inPath to outPath. The caller must ensure
// the output directory exists.
func (r *Redactor) Redact(ctx context.Context, inPath, outPath string) (*Result, error) {
	if _, err := os.Stat(inPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, WrapRedactionError("Redact", 0, ErrInputNotFound, inPath)
		}
		return nil, WrapRedactionError("Redact", 0, ErrRedactionFailed, err.Error())
	}

	pdfCtx, err := api.ReadContextFile(inPath)
	if err != nil {
		return nil, WrapRedactionError("Redact", 0, ErrRedactionFailed, fmt.Sprintf("read %s: %v", inPath, err))
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, WrapRedactionError("Redact", 0, ErrRedactionFailed, fmt.Sprintf("count pages: %v", err))
	}

	textFile, layer, err := openTextLayer(inPath)
	if err != nil {
		r.log.Warn().Err(err).Str("file", inPath).Msg("Text layer unavailable, applying bands only")
	} else {
		defer textFile.Close()
	}

	result := &Result{Pages: pdfCtx.PageCount}

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pg, err := loadPage(pdfCtx, pageNr)
		if err != nil {
			return nil, WrapRedactionError("Redact", pageNr, ErrRedactionFailed, err.Error())
		}
		content, err := pageContent(pdfCtx, pg.dict)
		if err != nil {
			return nil, WrapRedactionError("Redact", pageNr, ErrRedactionFailed, fmt.Sprintf("content: %v", err))
		}
		ops, err := parseContent(content)
		if err != nil {
			return nil, WrapRedactionError("Redact", pageNr, ErrRedactionFailed, fmt.Sprintf("parse content: %v", err))
		}
		trace := tracePage(pdfCtx.XRefTable, pg.box, pg.resources, ops)

		var pt *PageText
		if layer != nil {
			pt, err = layer.pageText(pageNr, trace)
			if err != nil {
				r.log.Warn().Err(err).Int("page", pageNr).Msg("Page searched without text layer")
			}
		}
		if pt == nil {
			result.TextLayerFailures++
		}

		plan := PlanPage(pt, pg.box.Width(), pg.box.Height(), r.cfg, r.patterns, r.log.With().Int("page", pageNr).Logger())

		if plan.HeaderApplied {
			result.BandRedactions++
		}
		if plan.FooterApplied {
			result.BandRedactions++
		}
		result.MatchRedactions += len(plan.Matches)
		result.Suppressed += plan.Suppressed
		result.Redactions += plan.Count()

		fills := plan.Fills()
		if len(fills) == 0 {
			continue
		}

		edited, erased := trace.erase(content, fills)
		result.Erased += erased
		if err := replaceContent(pdfCtx, pg, edited, fills); err != nil {
			return nil, WrapRedactionError("Redact", pageNr, ErrRedactionFailed, fmt.Sprintf("paint: %v", err))
		}

		r.log.Debug().
			Int("page", pageNr).
			Bool("header", plan.HeaderApplied).
			Bool("footer", plan.FooterApplied).
			Int("matches", len(plan.Matches)).
			Int("suppressed", plan.Suppressed).
			Int("erased", erased).
			Msg("Page redacted")
	}

	if result.Redactions == 0 {
		if err := copyFile(inPath, outPath); err != nil {
			return nil, WrapRedactionError("Redact", 0, ErrRedactionFailed, fmt.Sprintf("copy: %v", err))
		}
		result.Copied = true
		return result, nil
	}

	if err := api.WriteContextFile(pdfCtx, outPath); err != nil {
		return nil, WrapRedactionError("Redact", 0, ErrRedactionFailed, fmt.Sprintf("write %s: %v", outPath, err))
	}

	r.log.Info().
		Str("file", inPath).
		Int("pages", result.Pages).
		Int("redactions", result.Redactions).
		Int("erased", result.Erased).
		Msg("Redaction complete")

	return result, nil
}

// openTextLayer opens the text layer reader, converting its panics to errors.
func openTextLayer(path string) (f *os.File, tl *textLayer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, tl = nil, nil
			err = WrapRedactionError("OpenTextLayer", 0, ErrTextLayer, fmt.Sprint(rec))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, WrapRedactionError("OpenTextLayer", 0, ErrTextLayer, err.Error())
	}
	return f, &textLayer{r: r}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
