package redact

import (
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfscrub/internal/patterns"
)

var letter = Box{LLX: 0, LLY: 0, URX: 612, URY: 792}

// word lays out s as glyphs of the given size with the baseline starting at
// (x, y) in user space.
func word(s string, x, y, size float64) []Glyph {
	var glyphs []Glyph
	for _, r := range s {
		box := letter.ToPage(x, y-size*descent, x+size*0.5, y+size*ascent)
		glyphs = append(glyphs, Glyph{S: string(r), Box: box})
		x += size * 0.5
	}
	return glyphs
}

func concat(parts ...[]Glyph) []Glyph {
	var out []Glyph
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func compile(t *testing.T, entries ...patterns.Entry) []patterns.Compiled {
	t.Helper()
	compiled := patterns.Compile(entries, false, zerolog.Nop())
	require.Len(t, compiled, len(entries))
	return compiled
}

func TestBuildPageText(t *testing.T) {
	glyphs := concat(
		word("Hello", 72, 700, 10),
		word("world", 120, 700, 10), // visible gap on the same baseline
		word("Next", 72, 680, 10),
	)
	pt := BuildPageText(glyphs)
	assert.Equal(t, "Hello world\nNext", pt.Text)

	boxes := pt.Boxes(0, len("Hello"))
	require.Len(t, boxes, 1)
	assert.InDelta(t, 72, boxes[0].X0, 0.001)
	assert.InDelta(t, 97, boxes[0].X1, 0.001)
	assert.InDelta(t, 792-700-8, boxes[0].Y0, 0.001)
	assert.InDelta(t, 792-700+2, boxes[0].Y1, 0.001)
}

func TestSearchSpanningLinesYieldsOneRectPerLine(t *testing.T) {
	glyphs := concat(
		word("ACKNOWLEDGMENT", 72, 500, 10),
		word("thanks", 72, 480, 10),
	)
	pt := BuildPageText(glyphs)

	rects, err := pt.Search(regexp.MustCompile(`(?s)ACK.*thanks`))
	require.NoError(t, err)
	require.Len(t, rects, 2)
	assert.Less(t, rects[0].Y1, rects[1].Y1)
}

func TestSearchRejectsEmptyMatch(t *testing.T) {
	pt := BuildPageText(word("abc", 72, 500, 10))
	_, err := pt.Search(regexp.MustCompile(`x*`))
	assert.ErrorIs(t, err, ErrEmptyMatch)
}

func TestSearchPageSkipsFailingPattern(t *testing.T) {
	pt := BuildPageText(word("Ref 12", 72, 500, 10))
	compiled := compile(t, patterns.Regex(`z*`), patterns.Literal("Ref"))

	rects, errs := SearchPage(pt, compiled)
	assert.Len(t, rects, 1)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrEmptyMatch)
}

func TestPlanPage(t *testing.T) {
	cfg := DefaultConfig()
	compiled := compile(t, patterns.Literal("Ref"))

	t.Run("empty page gets both bands", func(t *testing.T) {
		pt := BuildPageText(nil)
		plan := PlanPage(pt, letter.Width(), letter.Height(), cfg, compiled, zerolog.Nop())
		assert.True(t, plan.HeaderApplied)
		assert.True(t, plan.FooterApplied)
		assert.Equal(t, []Rect{plan.Header, plan.Footer}, plan.Fills())
	})

	t.Run("match in body", func(t *testing.T) {
		pt := BuildPageText(word("see Ref here", 72, 400, 10))
		plan := PlanPage(pt, letter.Width(), letter.Height(), cfg, compiled, zerolog.Nop())
		require.Len(t, plan.Matches, 1)
		assert.Equal(t, 3, plan.Count())
		assert.Equal(t, plan.Matches[0], plan.Fills()[2])
	})

	t.Run("match in header band is suppressed", func(t *testing.T) {
		pt := BuildPageText(word("Ref", 72, 760, 10))
		plan := PlanPage(pt, letter.Width(), letter.Height(), cfg, compiled, zerolog.Nop())
		assert.Empty(t, plan.Matches)
		assert.Equal(t, 1, plan.Suppressed)
		assert.Equal(t, []Rect{plan.Header, plan.Footer}, plan.Fills())
	})

	t.Run("zero height bands are not applied", func(t *testing.T) {
		pt := BuildPageText(word("Ref", 72, 760, 10))
		plan := PlanPage(pt, letter.Width(), letter.Height(), Config{}, compiled, zerolog.Nop())
		assert.False(t, plan.HeaderApplied)
		assert.False(t, plan.FooterApplied)
		require.Len(t, plan.Matches, 1)
		assert.Equal(t, 1, plan.Count())
	})

	t.Run("no text layer applies both bands", func(t *testing.T) {
		plan := PlanPage(nil, letter.Width(), letter.Height(), cfg, compiled, zerolog.Nop())
		assert.Empty(t, plan.Matches)
		assert.Equal(t, 2, plan.Count())
	})
}

func TestBoxRoundTrip(t *testing.T) {
	box := Box{LLX: 10, LLY: 20, URX: 610, URY: 820}
	r := box.ToPage(100, 300, 200, 320)
	assert.Equal(t, Rect{X0: 90, Y0: 500, X1: 190, Y1: 520}, r)

	x, y, w, h := box.FromPage(r)
	assert.Equal(t, []float64{100, 300, 100, 20}, []float64{x, y, w, h})
}

func TestBoxRotation(t *testing.T) {
	tests := []struct {
		rotate int
		// header band of height 70 in user space as x, y, w, h
		header []float64
	}{
		{rotate: 0, header: []float64{0, 722, 612, 70}},
		{rotate: 90, header: []float64{0, 0, 70, 792}},
		{rotate: 180, header: []float64{0, 0, 612, 70}},
		{rotate: 270, header: []float64{542, 0, 70, 792}},
		{rotate: -90, header: []float64{542, 0, 70, 792}},
	}

	for _, tt := range tests {
		box := Box{LLX: 0, LLY: 0, URX: 612, URY: 792, Rotate: tt.rotate}
		header, _ := FixedRegions(box.Width(), box.Height(), 70, 70)

		x, y, w, h := box.FromPage(header)
		assert.Equal(t, tt.header, []float64{x, y, w, h}, "rotate %d", tt.rotate)

		back := box.ToPage(x, y, x+w, y+h)
		assert.Equal(t, header, back, "rotate %d", tt.rotate)
	}

	sideways := Box{LLX: 0, LLY: 0, URX: 612, URY: 792, Rotate: 90}
	assert.Equal(t, 792.0, sideways.Width())
	assert.Equal(t, 612.0, sideways.Height())
}
