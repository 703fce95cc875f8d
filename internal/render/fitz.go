//go:build ocr

package render

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// blankPage is a one page document MuPDF renders to check the backend.
var blankPage = []byte("%PDF-1.4\n" +
	"1 0 obj <</Type /Catalog /Pages 2 0 R>> endobj\n" +
	"2 0 obj <</Type /Pages /Kids [3 0 R] /Count 1>> endobj\n" +
	"3 0 obj <</Type /Page /Parent 2 0 R /MediaBox [0 0 8 8]>> endobj\n" +
	"trailer <</Root 1 0 R>>\n%%EOF\n")

// Available renders a blank page to check that MuPDF works.
func Available() error {
	doc, err := fitz.NewFromMemory(blankPage)
	if err != nil {
		return fmt.Errorf("mupdf: %w", err)
	}
	defer doc.Close()

	if _, err := doc.ImageDPI(0, BaseDPI); err != nil {
		return fmt.Errorf("mupdf: %w", err)
	}
	return nil
}

type fitzDocument struct {
	doc *fitz.Document
	dpi float64
}

// Open opens path with MuPDF for rendering at BaseDPI*scale.
func Open(path string, scale float64) (Document, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("render scale must be positive, got %v", scale)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fitzDocument{doc: doc, dpi: DPI(scale)}, nil
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(n int) (image.Image, error) {
	img, err := d.doc.ImageDPI(n, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", n+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	if d.doc == nil {
		return nil
	}
	return d.doc.Close()
}
