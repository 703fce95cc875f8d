package redact

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Box is the visible area of a page in PDF user space (origin bottom-left)
// and the clockwise rotation applied when the page is displayed.
type Box struct {
	LLX, LLY, URX, URY float64
	Rotate             int
}

func (b Box) rotation() int {
	r := b.Rotate % 360
	if r < 0 {
		r += 360
	}
	return r
}

func (b Box) sideways() bool {
	r := b.rotation()
	return r == 90 || r == 270
}

// Width is the width of the page as displayed.
func (b Box) Width() float64 {
	if b.sideways() {
		return b.URY - b.LLY
	}
	return b.URX - b.LLX
}

// Height is the height of the page as displayed.
func (b Box) Height() float64 {
	if b.sideways() {
		return b.URX - b.LLX
	}
	return b.URY - b.LLY
}

func (b Box) pagePoint(x, y float64) (float64, float64) {
	switch b.rotation() {
	case 90:
		return y - b.LLY, x - b.LLX
	case 180:
		return b.URX - x, y - b.LLY
	case 270:
		return b.URY - y, b.URX - x
	}
	return x - b.LLX, b.URY - y
}

func (b Box) userPoint(px, py float64) (float64, float64) {
	switch b.rotation() {
	case 90:
		return b.LLX + py, b.LLY + px
	case 180:
		return b.URX - px, b.LLY + py
	case 270:
		return b.URX - py, b.URY - px
	}
	return b.LLX + px, b.URY - py
}

// ToPage converts a user space rectangle into page space.
func (b Box) ToPage(x0, y0, x1, y1 float64) Rect {
	ax, ay := b.pagePoint(x0, y0)
	bx, by := b.pagePoint(x1, y1)
	return Rect{X0: min(ax, bx), Y0: min(ay, by), X1: max(ax, bx), Y1: max(ay, by)}
}

// FromPage converts a page space rectangle back into user space and returns
// the lower-left corner plus size, the operands of the PDF "re" operator.
func (b Box) FromPage(r Rect) (x, y, w, h float64) {
	ax, ay := b.userPoint(r.X0, r.Y0)
	bx, by := b.userPoint(r.X1, r.Y1)
	return min(ax, bx), min(ay, by), math.Abs(bx - ax), math.Abs(by - ay)
}

// Glyph is one shown character with its box in page space.
type Glyph struct {
	S   string
	Box Rect
}

// Fractions of the font size used for glyph boxes and line assembly.
const (
	ascent          = 0.8
	descent         = 0.2
	fallbackAdvance = 0.5
	lineTolerance   = 0.5
	wordGap         = 0.25
)

type span struct {
	start, end int
	line       int
	box        Rect
}

// PageText is the searchable text of one page. Every byte range of Text that
// came from a glyph maps back to that glyph's box; inserted spaces and line
// breaks map to nothing.
type PageText struct {
	Text string

	spans []span
}

// BuildPageText assembles glyphs into lines in content stream order. A new
// line starts when the baseline moves by more than half the glyph height; a
// space is inserted between glyphs separated by a visible gap.
func BuildPageText(glyphs []Glyph) *PageText {
	var sb strings.Builder
	pt := &PageText{}

	line := 0
	havePrev := false
	var prevBaseline, prevRight, prevSize float64
	prevSpace := false

	for _, g := range glyphs {
		s := strings.NewReplacer("\r", " ", "\n", " ").Replace(g.S)
		if s == "" {
			continue
		}

		r := g.Box
		size := r.Height()
		if size <= 0 {
			size = 1
		}
		baseline := r.Y1
		isSpace := strings.TrimSpace(s) == ""

		if havePrev {
			switch {
			case math.Abs(baseline-prevBaseline) > math.Max(size, prevSize)*lineTolerance:
				sb.WriteByte('\n')
				line++
			case !prevSpace && !isSpace && r.X0-prevRight > size*wordGap:
				sb.WriteByte(' ')
			}
		}

		start := sb.Len()
		sb.WriteString(s)
		pt.spans = append(pt.spans, span{start: start, end: sb.Len(), line: line, box: r})

		havePrev = true
		prevBaseline = baseline
		prevRight = r.X1
		prevSize = size
		prevSpace = isSpace
	}

	pt.Text = sb.String()
	return pt
}

// Boxes returns one rectangle per line covered by the byte range [start, end).
func (pt *PageText) Boxes(start, end int) []Rect {
	i := sort.Search(len(pt.spans), func(i int) bool { return pt.spans[i].end > start })

	var out []Rect
	var cur Rect
	line := -1
	for ; i < len(pt.spans) && pt.spans[i].start < end; i++ {
		sp := pt.spans[i]
		if sp.line != line {
			if !cur.IsEmpty() {
				out = append(out, cur)
			}
			cur = Rect{}
			line = sp.line
		}
		cur = cur.Union(sp.box)
	}
	if !cur.IsEmpty() {
		out = append(out, cur)
	}
	return out
}

// Search returns the match rectangles of re on the page.
func (pt *PageText) Search(re *regexp.Regexp) ([]Rect, error) {
	var rects []Rect
	for _, loc := range re.FindAllStringIndex(pt.Text, -1) {
		if loc[0] == loc[1] {
			return nil, ErrEmptyMatch
		}
		rects = append(rects, pt.Boxes(loc[0], loc[1])...)
	}
	return rects, nil
}

// textLayer turns traced character codes into text with the font encodings
// and ToUnicode maps read by the pdf reader.
type textLayer struct {
	r *pdf.Reader
}

// pageText decodes the glyphs of a traced page. The reader panics on
// malformed fonts, which is reported as ErrTextLayer.
func (tl *textLayer) pageText(pageNr int, trace *pageTrace) (pt *PageText, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pt = nil
			err = WrapRedactionError("ReadTextLayer", pageNr, ErrTextLayer, fmt.Sprint(rec))
		}
	}()

	p := tl.r.Page(pageNr)
	if p.V.IsNull() {
		return nil, WrapRedactionError("ReadTextLayer", pageNr, ErrTextLayer, "page not found")
	}

	encoders := make(map[string]pdf.TextEncoding)
	var glyphs []Glyph
	for _, show := range trace.shows {
		enc, ok := encoders[show.font]
		if !ok {
			enc = p.Font(show.font).Encoder()
			if enc == nil {
				enc = latin1{}
			}
			encoders[show.font] = enc
		}
		for _, it := range show.items {
			if it.glyph == nil {
				continue
			}
			glyphs = append(glyphs, Glyph{S: enc.Decode(string(it.glyph.code)), Box: it.glyph.box})
		}
	}
	return BuildPageText(glyphs), nil
}

// latin1 decodes each byte as the code point of the same value.
type latin1 struct{}

func (latin1) Decode(raw string) string {
	runes := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		runes[i] = rune(raw[i])
	}
	return string(runes)
}
