//go:build !ocr

package render

// Open returns ErrRenderNotEnabled. Rebuild with -tags ocr for MuPDF support.
func Open(path string, scale float64) (Document, error) {
	return nil, ErrRenderNotEnabled
}

// Available returns ErrRenderNotEnabled.
func Available() error {
	return ErrRenderNotEnabled
}
