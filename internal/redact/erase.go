package redact

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// glyphInset is the fraction of a glyph box ignored on each side when testing
// it against a redaction, so neighbours that only touch a rectangle survive.
const glyphInset = 0.1

func glyphHit(box Rect, rects []Rect) bool {
	inner := box.Inset(glyphInset)
	cx, cy := (box.X0+box.X1)/2, (box.Y0+box.Y1)/2
	for _, r := range rects {
		if inner.IsEmpty() {
			if r.X0 < cx && cx < r.X1 && r.Y0 < cy && cy < r.Y1 {
				return true
			}
			continue
		}
		if r.Intersects(inner) {
			return true
		}
	}
	return false
}

// imageHit reports whether an image lies inside one of rects. Images that
// only overlap a rectangle stay in the content under the fill.
func imageHit(box Rect, rects []Rect) bool {
	inner := box.Inset(glyphInset)
	for _, r := range rects {
		if r.Contains(inner) {
			return true
		}
	}
	return false
}

// erase removes the glyphs and images under rects from content, the decoded
// stream the trace was built from. It returns the edited content and the
// number of glyphs and images removed.
func (pt *pageTrace) erase(content []byte, rects []Rect) ([]byte, int) {
	if len(rects) == 0 {
		return content, 0
	}

	edits := map[int][]byte{}
	removed := 0

	for _, show := range pt.shows {
		hits := make([]bool, len(show.items))
		n := 0
		for i, it := range show.items {
			if it.glyph != nil && glyphHit(it.glyph.box, rects) {
				hits[i] = true
				n++
			}
		}
		if n == 0 {
			continue
		}
		removed += n
		edits[show.op] = rewriteShow(pt.ops[show.op], show, hits)
	}

	for _, img := range pt.images {
		if imageHit(img.box, rects) {
			edits[img.op] = []byte{}
			removed++
		}
	}

	if len(edits) == 0 {
		return content, 0
	}
	return splice(content, pt.ops, edits), removed
}

// rewriteShow replaces a text showing operation by a TJ that draws only the
// glyphs not marked in hits. A removed glyph becomes a displacement of the
// same advance so the rest of the line stays in place. When advances are
// guessed the operation keeps only its line movement.
func rewriteShow(op operation, show textShow, hits []bool) []byte {
	var b bytes.Buffer
	b.WriteByte(' ')

	switch op.name {
	case "'":
		b.WriteString("T* ")
	case "\"":
		if v, ok := numbers(op.operands[:len(op.operands)-1], 2); ok {
			fmt.Fprintf(&b, "%s Tw %s Tc ", formatNumber(v[0]), formatNumber(v[1]))
		}
		b.WriteString("T* ")
	}

	if !show.exact {
		return b.Bytes()
	}

	var run []byte
	flush := func() {
		if len(run) > 0 {
			fmt.Fprintf(&b, "<%X> ", run)
			run = run[:0]
		}
	}

	b.WriteByte('[')
	for i, it := range show.items {
		switch {
		case it.glyph == nil:
			flush()
			b.WriteString(formatNumber(it.kern) + " ")
		case hits[i]:
			flush()
			b.WriteString(formatNumber(it.glyph.adjust) + " ")
		default:
			run = append(run, it.glyph.code...)
		}
	}
	flush()
	b.WriteString("] TJ")
	return b.Bytes()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// splice copies content with the byte ranges of the edited operations
// replaced. The bytes between operations are kept as they are.
func splice(content []byte, ops []operation, edits map[int][]byte) []byte {
	var b bytes.Buffer
	b.Grow(len(content))

	last := 0
	for i, op := range ops {
		rep, ok := edits[i]
		if !ok {
			continue
		}
		b.Write(content[last:op.start])
		b.Write(rep)
		last = op.end
	}
	b.Write(content[last:])
	return b.Bytes()
}
