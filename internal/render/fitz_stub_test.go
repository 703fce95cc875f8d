//go:build !ocr

package render

import (
	"errors"
	"testing"
)

func TestOpenReturnsErrorWithoutOCRTag(t *testing.T) {
	doc, err := Open("any.pdf", 2)
	if !errors.Is(err, ErrRenderNotEnabled) {
		t.Errorf("Expected ErrRenderNotEnabled, got: %v", err)
	}
	if doc != nil {
		t.Error("Expected nil document when rendering is disabled")
	}
}

func TestAvailableFailsWithoutOCRTag(t *testing.T) {
	if err := Available(); !errors.Is(err, ErrRenderNotEnabled) {
		t.Errorf("Expected ErrRenderNotEnabled, got: %v", err)
	}
}
