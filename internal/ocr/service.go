// Package ocr recovers text from rasterized PDF pages.
//
// Every page is rendered to a bitmap, classified by channel count, encoded
// as PNG and handed to an Engine. Three engines are available:
//
//   - tesseract: local Tesseract through gosseract (requires -tags ocr)
//   - vision: Google Cloud Vision DOCUMENT_TEXT_DETECTION
//   - documentai: a Google Document AI OCR processor
//
// Google engines read credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Document AI additionally needs GOOGLE_CLOUD_PROJECT and
// DOCUMENT_AI_PROCESSOR_ID (see Options).
package ocr

import (
	"context"
	"fmt"
	"time"
)

// Engine recognizes text on a single page image.
type Engine interface {
	// Name identifies the engine in logs and reports.
	Name() string

	// Version reports the engine version. It fails when the engine is not
	// usable, which makes it the preflight check.
	Version(ctx context.Context) (string, error)

	// Recognize returns the text found on the page.
	Recognize(ctx context.Context, page Page) (string, error)

	Close() error
}

// ColorMode is the pixel layout of a rendered page.
type ColorMode int

const (
	ModeGray ColorMode = iota + 1
	ModeRGB
	ModeRGBA
)

func (m ColorMode) String() string {
	switch m {
	case ModeGray:
		return "L"
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
}

// ModeForChannels maps a channel count to a color mode.
func ModeForChannels(n int) (ColorMode, error) {
	switch n {
	case 1:
		return ModeGray, nil
	case 3:
		return ModeRGB, nil
	case 4:
		return ModeRGBA, nil
	default:
		return 0, WrapOCRError("ModeForChannels", ErrUnsupportedColorMode, fmt.Sprintf("%d channels", n))
	}
}

// Page is one rendered page ready for recognition.
type Page struct {
	// Number is 1-based.
	Number int

	// PNG holds the encoded bitmap.
	PNG []byte

	Mode          ColorMode
	Width, Height int

	// DPI is the resolution hint passed to the engine.
	DPI int
}

// Result contains the text of a document with processing metadata.
type Result struct {
	// Text is the page texts in page order, each followed by a newline.
	Text string `json:"text"`

	// PageCount is the number of pages in the document.
	PageCount int `json:"page_count"`

	// PagesSkipped counts pages dropped for an unsupported color mode.
	PagesSkipped int `json:"pages_skipped"`

	Engine string `json:"engine"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	ProcessingDuration time.Duration `json:"processing_duration"`
}
