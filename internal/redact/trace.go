package redact

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// matrix is a PDF transformation [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func translate(tx, ty float64) matrix { return matrix{1, 0, 0, 1, tx, ty} }

// mul returns m×n, the transform that applies m first.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return x*m[0] + y*m[2] + m[4], x*m[1] + y*m[3] + m[5]
}

// bounds maps the rectangle (x0, y0)-(x1, y1) through m and returns its
// bounding box in page space.
func (b Box) bounds(m matrix, x0, y0, x1, y1 float64) Rect {
	var out Rect
	for i, c := range [4][2]float64{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
		ux, uy := m.apply(c[0], c[1])
		px, py := b.pagePoint(ux, uy)
		if i == 0 {
			out = Rect{X0: px, Y0: py, X1: px, Y1: py}
			continue
		}
		out.X0, out.Y0 = min(out.X0, px), min(out.Y0, py)
		out.X1, out.Y1 = max(out.X1, px), max(out.Y1, py)
	}
	return out
}

// fontMetrics gives the advance of each character code of a font resource.
type fontMetrics struct {
	// exact is set when advances come from the font rather than a guess.
	exact bool

	twoByte bool
	scale   float64

	first   int
	widths  []float64
	missing float64

	cidWidths    map[int]float64
	defaultWidth float64

	core string
}

// split cuts a shown string into character codes.
func (f *fontMetrics) split(s []byte) [][]byte {
	n := 1
	if f.twoByte {
		n = 2
	}
	codes := make([][]byte, 0, len(s)/n+1)
	for i := 0; i < len(s); i += n {
		codes = append(codes, s[i:min(i+n, len(s))])
	}
	return codes
}

// advance returns the horizontal displacement of code in text space units
// for a font size of one.
func (f *fontMetrics) advance(code []byte) float64 {
	if !f.exact {
		return fallbackAdvance
	}
	c := int(code[0])
	if len(code) == 2 {
		c = c<<8 | int(code[1])
	}

	switch {
	case f.twoByte:
		if w, ok := f.cidWidths[c]; ok {
			return w * f.scale
		}
		return f.defaultWidth * f.scale
	case f.core != "":
		return float64(font.CharWidth(f.core, rune(c))) * f.scale
	case c >= f.first && c-f.first < len(f.widths):
		return f.widths[c-f.first] * f.scale
	}
	return f.missing * f.scale
}

// loadFont reads the metrics of a font dictionary. Fonts whose advances
// cannot be determined come back inexact.
func loadFont(xref *model.XRefTable, obj types.Object) *fontMetrics {
	guess := &fontMetrics{scale: 0.001}

	d, err := xref.DereferenceDict(obj)
	if err != nil || d == nil {
		return guess
	}

	subtype := ""
	if s := d.Subtype(); s != nil {
		subtype = *s
	}
	if subtype == "Type0" {
		return loadCIDFont(xref, d)
	}

	f := &fontMetrics{scale: 0.001}
	if subtype == "Type3" {
		m, err := xref.DereferenceArray(d["FontMatrix"])
		if err != nil || len(m) < 1 {
			return guess
		}
		if f.scale, err = xref.DereferenceNumber(m[0]); err != nil {
			return guess
		}
	}

	widths, err := xref.DereferenceArray(d["Widths"])
	if err == nil && len(widths) > 0 {
		first, err := xref.DereferenceNumber(d["FirstChar"])
		if err != nil {
			return guess
		}
		f.first = int(first)
		f.widths = make([]float64, len(widths))
		for i, w := range widths {
			if f.widths[i], err = xref.DereferenceNumber(w); err != nil {
				return guess
			}
		}
		if fd, err := xref.DereferenceDict(d["FontDescriptor"]); err == nil && fd != nil {
			if mw, err := xref.DereferenceNumber(fd["MissingWidth"]); err == nil {
				f.missing = mw
			}
		}
		f.exact = true
		return f
	}

	// The standard 14 fonts may omit their widths.
	if base := d.NameEntry("BaseFont"); base != nil {
		name := *base
		if i := strings.IndexByte(name, '+'); i >= 0 {
			name = name[i+1:]
		}
		if font.IsCoreFont(name) {
			f.core = name
			f.exact = true
			return f
		}
	}
	return guess
}

// loadCIDFont reads a composite font. Only the Identity-H encoding has a
// known code length; anything else is guessed.
func loadCIDFont(xref *model.XRefTable, d types.Dict) *fontMetrics {
	guess := &fontMetrics{scale: 0.001, twoByte: true}

	if enc := d.NameEntry("Encoding"); enc == nil || *enc != "Identity-H" {
		return guess
	}

	descendants, err := xref.DereferenceArray(d["DescendantFonts"])
	if err != nil || len(descendants) == 0 {
		return guess
	}
	cid, err := xref.DereferenceDict(descendants[0])
	if err != nil || cid == nil {
		return guess
	}

	f := &fontMetrics{
		exact:        true,
		twoByte:      true,
		scale:        0.001,
		cidWidths:    map[int]float64{},
		defaultWidth: 1000,
	}
	if dw, err := xref.DereferenceNumber(cid["DW"]); err == nil {
		f.defaultWidth = dw
	}

	w, err := xref.DereferenceArray(cid["W"])
	if err != nil {
		return f
	}
	// W holds "c [w1 w2 ...]" and "cfirst clast w" groups.
	for i := 0; i < len(w); {
		c, err := xref.DereferenceNumber(w[i])
		if err != nil || i+1 >= len(w) {
			return guess
		}
		if arr, err := xref.DereferenceArray(w[i+1]); err == nil && arr != nil {
			for j, o := range arr {
				v, err := xref.DereferenceNumber(o)
				if err != nil {
					return guess
				}
				f.cidWidths[int(c)+j] = v
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			return guess
		}
		last, err1 := xref.DereferenceNumber(w[i+1])
		v, err2 := xref.DereferenceNumber(w[i+2])
		if err1 != nil || err2 != nil {
			return guess
		}
		for code := int(c); code <= int(last); code++ {
			f.cidWidths[code] = v
		}
		i += 3
	}
	return f
}

type textState struct {
	charSpace, wordSpace float64
	scale                float64
	leading, rise        float64
	size                 float64
	fontName             string
	font                 *fontMetrics
}

type graphicsState struct {
	ctm  matrix
	text textState
}

// tracedGlyph is one character code placed on the page.
type tracedGlyph struct {
	code []byte
	box  Rect

	// adjust is the TJ displacement that advances as far as the glyph does.
	adjust float64
}

// showItem is a glyph or, when glyph is nil, a TJ displacement.
type showItem struct {
	glyph *tracedGlyph
	kern  float64
}

// textShow is the output of one text showing operator.
type textShow struct {
	op    int
	font  string
	exact bool
	items []showItem
}

// placement is an image painted by an operation.
type placement struct {
	op  int
	box Rect
}

// pageTrace records where a page's content stream puts its text and images.
type pageTrace struct {
	ops    []operation
	shows  []textShow
	images []placement
}

type tracer struct {
	xref      *model.XRefTable
	box       Box
	fontDict  types.Dict
	xobjects  types.Dict
	fonts     map[string]*fontMetrics
	imageRefs map[string]bool

	gs      graphicsState
	stack   []graphicsState
	tm, tlm matrix
	trace   *pageTrace
}

func newTracer(xref *model.XRefTable, box Box, resources types.Dict) *tracer {
	t := &tracer{
		xref:      xref,
		box:       box,
		fonts:     map[string]*fontMetrics{},
		imageRefs: map[string]bool{},
		gs:        graphicsState{ctm: identity, text: textState{scale: 1}},
		tm:        identity,
		tlm:       identity,
	}
	if resources != nil && xref != nil {
		t.fontDict, _ = xref.DereferenceDict(resources["Font"])
		t.xobjects, _ = xref.DereferenceDict(resources["XObject"])
	}
	return t
}

// tracePage follows the graphics and text state through ops.
func tracePage(xref *model.XRefTable, box Box, resources types.Dict, ops []operation) *pageTrace {
	t := newTracer(xref, box, resources)
	return t.run(ops)
}

func (t *tracer) run(ops []operation) *pageTrace {
	t.trace = &pageTrace{ops: ops}
	for i, op := range ops {
		t.step(i, op)
	}
	return t.trace
}

func (t *tracer) font(name string) *fontMetrics {
	if f, ok := t.fonts[name]; ok {
		return f
	}
	f := &fontMetrics{scale: 0.001}
	if t.fontDict != nil {
		if obj, ok := t.fontDict[name]; ok {
			f = loadFont(t.xref, obj)
		}
	}
	t.fonts[name] = f
	return f
}

func (t *tracer) isImage(name string) bool {
	if is, ok := t.imageRefs[name]; ok {
		return is
	}
	is := false
	if t.xobjects != nil {
		if sd, _, err := t.xref.DereferenceStreamDict(t.xobjects[name]); err == nil && sd != nil {
			if s := sd.Subtype(); s != nil && *s == "Image" {
				is = true
			}
		}
	}
	t.imageRefs[name] = is
	return is
}

func numbers(ops []operand, n int) ([]float64, bool) {
	if len(ops) < n {
		return nil, false
	}
	ops = ops[len(ops)-n:]
	out := make([]float64, n)
	for i, o := range ops {
		if o.kind != operandNumber {
			return nil, false
		}
		out[i] = o.num
	}
	return out, true
}

func (t *tracer) nextLine(tx, ty float64) {
	t.tlm = translate(tx, ty).mul(t.tlm)
	t.tm = t.tlm
}

func (t *tracer) step(i int, op operation) {
	ts := &t.gs.text
	args := op.operands

	switch op.name {
	case "q":
		t.stack = append(t.stack, t.gs)
	case "Q":
		if n := len(t.stack); n > 0 {
			t.gs = t.stack[n-1]
			t.stack = t.stack[:n-1]
		}
	case "cm":
		if v, ok := numbers(args, 6); ok {
			t.gs.ctm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.mul(t.gs.ctm)
		}
	case "BT":
		t.tm, t.tlm = identity, identity
	case "Tf":
		if len(args) >= 2 && args[len(args)-2].kind == operandName {
			if v, ok := numbers(args, 1); ok {
				ts.fontName = string(args[len(args)-2].str)
				ts.font = t.font(ts.fontName)
				ts.size = v[0]
			}
		}
	case "Tc":
		if v, ok := numbers(args, 1); ok {
			ts.charSpace = v[0]
		}
	case "Tw":
		if v, ok := numbers(args, 1); ok {
			ts.wordSpace = v[0]
		}
	case "Tz":
		if v, ok := numbers(args, 1); ok {
			ts.scale = v[0] / 100
		}
	case "TL":
		if v, ok := numbers(args, 1); ok {
			ts.leading = v[0]
		}
	case "Ts":
		if v, ok := numbers(args, 1); ok {
			ts.rise = v[0]
		}
	case "Td":
		if v, ok := numbers(args, 2); ok {
			t.nextLine(v[0], v[1])
		}
	case "TD":
		if v, ok := numbers(args, 2); ok {
			ts.leading = -v[1]
			t.nextLine(v[0], v[1])
		}
	case "Tm":
		if v, ok := numbers(args, 6); ok {
			t.tlm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			t.tm = t.tlm
		}
	case "T*":
		t.nextLine(0, -ts.leading)
	case "Tj":
		if n := len(args); n > 0 && args[n-1].kind == operandString {
			t.show(i, args[n-1:])
		}
	case "'":
		t.nextLine(0, -ts.leading)
		if n := len(args); n > 0 && args[n-1].kind == operandString {
			t.show(i, args[n-1:])
		}
	case "\"":
		if n := len(args); n >= 3 && args[n-1].kind == operandString {
			if v, ok := numbers(args[:n-1], 2); ok {
				ts.wordSpace, ts.charSpace = v[0], v[1]
			}
			t.nextLine(0, -ts.leading)
			t.show(i, args[n-1:])
		}
	case "TJ":
		if n := len(args); n > 0 && args[n-1].kind == operandArray {
			t.show(i, args[n-1].arr)
		}
	case "Do":
		if n := len(args); n > 0 && args[n-1].kind == operandName && t.isImage(string(args[n-1].str)) {
			t.place(i)
		}
	case "BI":
		t.place(i)
	}
}

// place records an image drawn into the unit square of the current CTM.
func (t *tracer) place(i int) {
	t.trace.images = append(t.trace.images, placement{op: i, box: t.box.bounds(t.gs.ctm, 0, 0, 1, 1)})
}

// show lays out strings and TJ displacements and advances the text matrix.
func (t *tracer) show(i int, items []operand) {
	ts := &t.gs.text
	f := ts.font
	if f == nil {
		f = &fontMetrics{scale: 0.001}
	}

	out := textShow{op: i, font: ts.fontName, exact: f.exact && ts.size != 0}
	for _, it := range items {
		switch it.kind {
		case operandNumber:
			t.tm = translate(-it.num/1000*ts.size*ts.scale, 0).mul(t.tm)
			out.items = append(out.items, showItem{kern: it.num})
		case operandString:
			for _, code := range f.split(it.str) {
				w0 := f.advance(code)
				trm := matrix{ts.size * ts.scale, 0, 0, ts.size, 0, ts.rise}.mul(t.tm).mul(t.gs.ctm)

				spacing := ts.charSpace
				if !f.twoByte && code[0] == ' ' {
					spacing += ts.wordSpace
				}
				g := &tracedGlyph{
					code: code,
					box:  t.box.bounds(trm, 0, -descent, w0, ascent),
				}
				if ts.size != 0 {
					g.adjust = -(w0*ts.size + spacing) * 1000 / ts.size
				}
				out.items = append(out.items, showItem{glyph: g})

				t.tm = translate((w0*ts.size+spacing)*ts.scale, 0).mul(t.tm)
			}
		}
	}
	t.trace.shows = append(t.trace.shows, out)
}
