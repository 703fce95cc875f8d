package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdfscrub/internal/render"
)

// Extractor turns a PDF into text by rendering and recognizing every page.
type Extractor struct {
	open   render.Opener
	scale  float64
	dpi    int
	engine Engine
	log    zerolog.Logger
}

// NewExtractor returns an Extractor rendering at scale (1 = 72 dpi) and
// passing dpi to the engine as its resolution hint.
func NewExtractor(open render.Opener, scale float64, dpi int, engine Engine, log zerolog.Logger) *Extractor {
	return &Extractor{open: open, scale: scale, dpi: dpi, engine: engine, log: log}
}

// ExtractText returns the document text. Any failure yields "" and the error.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	result, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Extract renders and recognizes every page of path. Pages with an
// unsupported color mode are skipped with a warning. Any other error aborts
// the whole document.
func (e *Extractor) Extract(ctx context.Context, path string) (*Result, error) {
	const op = "Extract"
	start := time.Now()

	doc, err := e.open(path, e.scale)
	if err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("open %s", path))
	}
	defer doc.Close()

	result := &Result{PageCount: doc.NumPages(), Engine: e.engine.Name()}
	var sb strings.Builder

	for n := 0; n < result.PageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapOCRError(op, ErrContextCanceled, err.Error())
		}

		page, err := e.preparePage(doc, n)
		if errors.Is(err, ErrUnsupportedColorMode) {
			e.log.Warn().Err(err).Int("page", n+1).Str("file", path).Msg("Skipping page")
			result.PagesSkipped++
			continue
		}
		if err != nil {
			return nil, WrapOCRError(op, err, fmt.Sprintf("page %d", n+1))
		}

		text, err := e.engine.Recognize(ctx, page)
		if err != nil {
			return nil, WrapOCRError(op, err, fmt.Sprintf("page %d", n+1))
		}

		sb.WriteString(text)
		sb.WriteByte('\n')

		e.log.Debug().
			Int("page", page.Number).
			Str("mode", page.Mode.String()).
			Int("chars", len(text)).
			Msg("Page recognized")
	}

	result.Text = sb.String()
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(start)
	return result, nil
}

func (e *Extractor) preparePage(doc render.Document, n int) (Page, error) {
	img, err := doc.RenderPage(n)
	if err != nil {
		return Page{}, err
	}

	mode, err := ModeForChannels(render.Channels(img))
	if err != nil {
		return Page{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Page{}, fmt.Errorf("encode page %d: %w", n+1, err)
	}

	b := img.Bounds()
	return Page{
		Number: n + 1,
		PNG:    buf.Bytes(),
		Mode:   mode,
		Width:  b.Dx(),
		Height: b.Dy(),
		DPI:    e.dpi,
	}, nil
}
