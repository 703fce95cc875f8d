package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceContent traces content on a letter page with F1 as Helvetica and
// F9 as a font without metrics.
func traceContent(t *testing.T, content string) *pageTrace {
	t.Helper()

	ops, err := parseContent([]byte(content))
	require.NoError(t, err)

	tr := newTracer(nil, letter, nil)
	tr.fonts["F1"] = &fontMetrics{exact: true, scale: 0.001, core: "Helvetica"}
	tr.fonts["F9"] = &fontMetrics{scale: 0.001}
	tr.imageRefs["Im1"] = true
	return tr.run(ops)
}

func glyphBoxes(trace *pageTrace) []Rect {
	var boxes []Rect
	for _, show := range trace.shows {
		for _, it := range show.items {
			if it.glyph != nil {
				boxes = append(boxes, it.glyph.box)
			}
		}
	}
	return boxes
}

func TestTraceGlyphPositions(t *testing.T) {
	trace := traceContent(t, "q 2 0 0 2 0 0 cm BT /F1 10 Tf 10 10 Td [(A) -1000 (B)] TJ ET Q")

	require.Len(t, trace.shows, 1)
	show := trace.shows[0]
	assert.True(t, show.exact)
	assert.Equal(t, "F1", show.font)
	require.Len(t, show.items, 3)
	assert.Equal(t, -1000.0, show.items[1].kern)

	boxes := glyphBoxes(trace)
	require.Len(t, boxes, 2)

	// A is 667 units wide; the page is scaled by two.
	assert.InDelta(t, 20, boxes[0].X0, 0.001)
	assert.InDelta(t, 33.34, boxes[0].X1, 0.001)
	assert.InDelta(t, 792-20-16, boxes[0].Y0, 0.001)
	assert.InDelta(t, 792-20+4, boxes[0].Y1, 0.001)

	assert.InDelta(t, 53.34, boxes[1].X0, 0.001)
}

func TestTraceTextOperators(t *testing.T) {
	trace := traceContent(t, "BT /F1 10 Tf 14 TL 72 700 Td (a) Tj T* (b) Tj (c) ' 2 1 (d) \" 0 -20 TD (e) Tj 1 0 0 1 300 300 Tm (f) Tj ET")

	boxes := glyphBoxes(trace)
	require.Len(t, boxes, 6)

	baselines := []float64{700, 686, 672, 658, 638, 300}
	for i, want := range baselines {
		assert.InDelta(t, 792-want+2, boxes[i].Y1, 0.001, "glyph %d", i)
	}
	assert.InDelta(t, 72, boxes[4].X0, 0.001)
	assert.InDelta(t, 300, boxes[5].X0, 0.001)
}

func TestTraceImages(t *testing.T) {
	trace := traceContent(t, "q 100 0 0 50 72 700 cm /Im1 Do Q /Fm1 Do BI /W 1 /H 1 ID x EI")

	require.Len(t, trace.images, 2)
	assert.Equal(t, Rect{X0: 72, Y0: 42, X1: 172, Y1: 92}, trace.images[0].box)
	assert.Equal(t, 2, trace.images[0].op)
	assert.Equal(t, Rect{X0: 0, Y0: 791, X1: 1, Y1: 792}, trace.images[1].box)
}

func TestEraseRewritesShownText(t *testing.T) {
	content := "BT /F1 10 Tf 72 500 Td (AB CD) Tj ET"
	trace := traceContent(t, content)
	before := glyphBoxes(trace)
	require.Len(t, before, 5)

	edited, removed := trace.erase([]byte(content), []Rect{before[1]})
	assert.Equal(t, 1, removed)
	assert.Equal(t, "BT /F1 10 Tf 72 500 Td  [<41> -667 <204344> ] TJ ET", string(edited))

	// The glyphs that are kept do not move.
	after := glyphBoxes(traceContent(t, string(edited)))
	require.Len(t, after, 4)
	assert.Equal(t, before[0], after[0])
	for i := 1; i < 4; i++ {
		assert.InDelta(t, before[i+1].X0, after[i].X0, 0.001)
	}
}

func TestEraseKeepsNeighbours(t *testing.T) {
	content := "BT /F1 10 Tf 72 500 Td (xRefx) Tj ET"
	trace := traceContent(t, content)
	boxes := glyphBoxes(trace)

	match := boxes[1].Union(boxes[2]).Union(boxes[3])
	edited, removed := trace.erase([]byte(content), []Rect{match})
	assert.Equal(t, 3, removed)
	assert.Contains(t, string(edited), "[<78> ")
	assert.Contains(t, string(edited), " <78> ] TJ")
}

func TestEraseWordSpacing(t *testing.T) {
	content := "BT /F1 10 Tf 5 Tw 2 Tc 72 500 Td (a b) Tj ET"
	trace := traceContent(t, content)
	boxes := glyphBoxes(trace)
	require.Len(t, boxes, 3)

	edited, _ := trace.erase([]byte(content), []Rect{boxes[1]})

	after := glyphBoxes(traceContent(t, string(edited)))
	require.Len(t, after, 2)
	assert.InDelta(t, boxes[2].X0, after[1].X0, 0.001)
}

func TestEraseGuessedFontDropsOperation(t *testing.T) {
	content := "BT /F9 10 Tf 12 TL 72 500 Td (secret) ' (kept) Tj ET"
	trace := traceContent(t, content)
	boxes := glyphBoxes(trace)
	require.Len(t, boxes, 10)
	assert.False(t, trace.shows[0].exact)

	edited, removed := trace.erase([]byte(content), []Rect{boxes[0]})
	assert.Equal(t, 1, removed)
	assert.Equal(t, "BT /F9 10 Tf 12 TL 72 500 Td  T*  (kept) Tj ET", string(edited))
}

func TestEraseImages(t *testing.T) {
	content := "q 100 0 0 50 72 700 cm /Im1 Do Q"
	trace := traceContent(t, content)

	edited, removed := trace.erase([]byte(content), []Rect{{X0: 0, Y0: 0, X1: 612, Y1: 40}})
	assert.Equal(t, 0, removed, "an image that only overlaps a region is kept")
	assert.Equal(t, content, string(edited))

	edited, removed = trace.erase([]byte(content), []Rect{{X0: 0, Y0: 0, X1: 612, Y1: 100}})
	assert.Equal(t, 1, removed)
	assert.Equal(t, "q 100 0 0 50 72 700 cm  Q", string(edited))
}

func TestLoadFontWithoutMetricsIsGuessed(t *testing.T) {
	tr := newTracer(nil, letter, nil)
	f := tr.font("F1")
	assert.False(t, f.exact)
	assert.Equal(t, fallbackAdvance, f.advance([]byte("a")))
}
