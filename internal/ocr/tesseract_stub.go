//go:build !ocr

package ocr

import "context"

// TesseractEngine is a stub that fails every operation.
//
// To enable Tesseract, rebuild with the "ocr" build tag:
//
//	go build -tags ocr
//
// This requires Tesseract and MuPDF to be installed. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev libleptonica-dev
type TesseractEngine struct{}

// NewTesseractEngine returns ErrOCRNotEnabled.
func NewTesseractEngine(languages []string) (*TesseractEngine, error) {
	return nil, ErrOCRNotEnabled
}

func (t *TesseractEngine) Name() string { return "tesseract" }

func (t *TesseractEngine) Version(ctx context.Context) (string, error) {
	return "", ErrOCRNotEnabled
}

func (t *TesseractEngine) Recognize(ctx context.Context, page Page) (string, error) {
	return "", ErrOCRNotEnabled
}

// Close is a no-op for the stub engine.
// It is safe to call on a nil engine.
func (t *TesseractEngine) Close() error {
	return nil
}
