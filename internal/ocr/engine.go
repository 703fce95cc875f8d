package ocr

import (
	"context"
	"fmt"
	"strings"
)

// Engine names accepted by NewEngine.
const (
	EngineTesseract  = "tesseract"
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
)

// Options selects and configures an engine.
type Options struct {
	Engine     string
	Languages  []string
	DocumentAI DocumentAIConfig
}

// NewEngine constructs the engine named by opts.Engine.
func NewEngine(ctx context.Context, opts Options) (Engine, error) {
	var (
		engine Engine
		err    error
	)

	switch strings.ToLower(opts.Engine) {
	case EngineTesseract, "":
		var t *TesseractEngine
		if t, err = NewTesseractEngine(opts.Languages); err == nil {
			engine = t
		}
	case EngineVision:
		var v *VisionEngine
		if v, err = NewVisionEngine(ctx, opts.Languages); err == nil {
			engine = v
		}
	case EngineDocumentAI:
		var d *DocumentAIEngine
		if d, err = NewDocumentAIEngine(ctx, opts.DocumentAI); err == nil {
			engine = d
		}
	default:
		err = WrapOCRError("NewEngine", ErrInvalidConfiguration, fmt.Sprintf("unknown engine %q", opts.Engine))
	}

	if err != nil {
		return nil, err
	}
	return engine, nil
}

// Preflight checks that pages can be rasterized and that the engine can run,
// and returns the engine version. renderCheck may be nil.
func Preflight(ctx context.Context, engine Engine, renderCheck func() error) (string, error) {
	if renderCheck != nil {
		if err := renderCheck(); err != nil {
			return "", WrapOCRError("Preflight", err, "page rendering unavailable")
		}
	}

	v, err := engine.Version(ctx)
	if err != nil {
		return "", WrapOCRError("Preflight", err, fmt.Sprintf("%s engine unavailable", engine.Name()))
	}
	return v, nil
}
