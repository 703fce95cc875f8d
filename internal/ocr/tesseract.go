//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine wraps a gosseract client. It is not safe for concurrent use.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates a client for the given languages with fully
// automatic page segmentation.
// The engine should be closed when no longer needed to release resources.
func NewTesseractEngine(languages []string) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, WrapOCRError("NewTesseractEngine", ErrInvalidConfiguration, err.Error())
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, WrapOCRError("NewTesseractEngine", ErrOCRFailed, err.Error())
	}

	return &TesseractEngine{client: client}, nil
}

func (t *TesseractEngine) Name() string { return "tesseract" }

func (t *TesseractEngine) Version(ctx context.Context) (string, error) {
	v := gosseract.Version()
	if v == "" {
		return "", WrapOCRError("Version", ErrOCRFailed, "tesseract did not report a version")
	}
	return v, nil
}

// Recognize performs OCR on the page PNG.
func (t *TesseractEngine) Recognize(ctx context.Context, page Page) (string, error) {
	const op = "Recognize"

	if err := t.client.SetImageFromBytes(page.PNG); err != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("page %d: failed to set image: %v", page.Number, err))
	}
	if page.DPI > 0 {
		if err := t.client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(page.DPI)); err != nil {
			return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("set dpi: %v", err))
		}
	}

	text, err := t.client.Text()
	if err != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("page %d: %v", page.Number, err))
	}
	return text, nil
}

// Close releases OCR resources.
func (t *TesseractEngine) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}
