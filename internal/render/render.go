// Package render rasterizes PDF pages.
//
// The MuPDF backend is compiled only with the "ocr" build tag:
//
//	go build -tags ocr
//
// Without it, Open and Available return ErrRenderNotEnabled.
package render

import (
	"errors"
	"image"
)

// ErrRenderNotEnabled is returned when rasterization was not compiled in.
var ErrRenderNotEnabled = errors.New("page rendering not enabled; rebuild with -tags ocr")

// BaseDPI is the resolution of a page rendered at scale 1.
const BaseDPI = 72.0

// Document is an open PDF that can be rasterized page by page.
type Document interface {
	// NumPages returns the number of pages.
	NumPages() int
	// RenderPage rasterizes the 0-based page n.
	RenderPage(n int) (image.Image, error)
	Close() error
}

// Opener opens a document for rendering at the given upscale factor.
type Opener func(path string, scale float64) (Document, error)

// DPI converts an upscale factor into a rendering resolution.
func DPI(scale float64) float64 {
	return BaseDPI * scale
}

// Channels returns the number of color channels of img, or 0 when the pixel
// layout is not one of the plain gray, RGB or RGBA families.
func Channels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.YCbCr:
		return 3
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.CMYK:
		return 4
	default:
		return 0
	}
}
