package redact

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// page is a page dictionary with the attributes it inherits.
type page struct {
	dict      types.Dict
	box       Box
	resources types.Dict
}

// loadPage returns a 1-based page. The box is the crop box clipped to the
// media box, as viewers display it.
func loadPage(ctx *model.Context, pageNr int) (*page, error) {
	pageDict, _, inherited, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, err
	}
	if pageDict == nil {
		return nil, fmt.Errorf("page %d not found", pageNr)
	}
	if inherited == nil || inherited.MediaBox == nil {
		return nil, fmt.Errorf("page %d has no media box", pageNr)
	}

	mb := inherited.MediaBox
	box := Box{LLX: mb.LL.X, LLY: mb.LL.Y, URX: mb.UR.X, URY: mb.UR.Y, Rotate: inherited.Rotate}
	if cb := inherited.CropBox; cb != nil {
		clipped := Box{
			LLX:    max(box.LLX, min(cb.LL.X, cb.UR.X)),
			LLY:    max(box.LLY, min(cb.LL.Y, cb.UR.Y)),
			URX:    min(box.URX, max(cb.LL.X, cb.UR.X)),
			URY:    min(box.URY, max(cb.LL.Y, cb.UR.Y)),
			Rotate: box.Rotate,
		}
		if clipped.URX > clipped.LLX && clipped.URY > clipped.LLY {
			box = clipped
		}
	}

	return &page{dict: pageDict, box: box, resources: inherited.Resources}, nil
}

// pageContent returns the decoded content streams of a page joined by
// newlines. A page without contents returns nil.
func pageContent(ctx *model.Context, pageDict types.Dict) ([]byte, error) {
	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}

	o, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	var streams types.Array
	switch o := o.(type) {
	case nil:
		return nil, nil
	case types.StreamDict:
		streams = types.Array{o}
	case types.Array:
		streams = o
	default:
		return nil, fmt.Errorf("unexpected page contents of type %T", o)
	}

	var buf bytes.Buffer
	for _, s := range streams {
		sd, _, err := ctx.DereferenceStreamDict(s)
		if err != nil {
			return nil, err
		}
		if sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("decode content stream: %w", err)
		}
		buf.Write(sd.Content)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// fillOperators renders opaque black rectangles as content stream operators.
func fillOperators(box Box, rects []Rect) []byte {
	var b bytes.Buffer
	b.WriteString("q\n0 g\n")
	for _, r := range rects {
		x, y, w, h := box.FromPage(r)
		fmt.Fprintf(&b, "%.3f %.3f %.3f %.3f re\n", x, y, w, h)
	}
	b.WriteString("f\nQ\n")
	return b.Bytes()
}

func newContentStream(ctx *model.Context, buf []byte) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}

// replaceContent sets content as the single content stream of the page and
// paints rects over it. The content is wrapped in q/Q so the fills are drawn
// with a clean graphics state. The streams it replaces are no longer
// referenced and are left out when the document is written.
func replaceContent(ctx *model.Context, pg *page, content []byte, rects []Rect) error {
	var buf bytes.Buffer
	if len(bytes.TrimSpace(content)) > 0 {
		buf.WriteString("q\n")
		buf.Write(content)
		buf.WriteString("\nQ\n")
	}
	if len(rects) > 0 {
		buf.Write(fillOperators(pg.box, rects))
	}

	ref, err := newContentStream(ctx, buf.Bytes())
	if err != nil {
		return err
	}
	pg.dict["Contents"] = *ref
	return nil
}
