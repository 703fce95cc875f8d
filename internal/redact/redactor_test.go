package redact

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfscrub/internal/patterns"
)

// A4 in points, as written by fpdf.
const a4Width, a4Height = 595.28, 841.89

type line struct {
	y    float64 // baseline from the top of the page
	text string
}

// writePDF renders one A4 page per element of pages in 12pt Helvetica.
func writePDF(t *testing.T, name string, pages ...[]line) string {
	t.Helper()

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, lines := range pages {
		doc.AddPage()
		for _, l := range lines {
			doc.Text(72, l.y, l.text)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

// setPageAttrs copies the PDF at path with extra entries in the first page
// dictionary.
func setPageAttrs(t *testing.T, path string, attrs types.Dict) string {
	t.Helper()

	ctx, err := api.ReadContextFile(path)
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	pageDict, _, _, err := ctx.PageDict(1, false)
	require.NoError(t, err)
	for k, v := range attrs {
		pageDict[k] = v
	}

	out := filepath.Join(t.TempDir(), "attrs-"+filepath.Base(path))
	require.NoError(t, api.WriteContextFile(ctx, out))
	return out
}

// plainText returns the text a reader extracts from every page.
func plainText(t *testing.T, path string) string {
	t.Helper()

	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rd, err := r.GetPlainText()
	require.NoError(t, err)
	b, err := io.ReadAll(rd)
	require.NoError(t, err)
	return string(b)
}

// pageOps parses the content of a 1-based page.
func pageOps(t *testing.T, path string, pageNr int) []operation {
	t.Helper()

	ctx, err := api.ReadContextFile(path)
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	pg, err := loadPage(ctx, pageNr)
	require.NoError(t, err)
	content, err := pageContent(ctx, pg.dict)
	require.NoError(t, err)
	ops, err := parseContent(content)
	require.NoError(t, err)
	return ops
}

// filledRects returns the operands of every re operator on a page as
// x, y, w, h in user space.
func filledRects(t *testing.T, path string, pageNr int) [][]float64 {
	t.Helper()

	var rects [][]float64
	for _, op := range pageOps(t, path, pageNr) {
		if op.name != "re" {
			continue
		}
		v, ok := numbers(op.operands, 4)
		require.True(t, ok)
		rects = append(rects, v)
	}
	return rects
}

func countOps(ops []operation, name string) int {
	n := 0
	for _, op := range ops {
		if op.name == name {
			n++
		}
	}
	return n
}

func assertRect(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, 4)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.01, "operand %d of %v", i, got)
	}
}

func newTestRedactor(t *testing.T, entries ...patterns.Entry) *Redactor {
	t.Helper()
	return New(DefaultConfig(), patterns.Compile(entries, false, zerolog.Nop()), zerolog.Nop())
}

func TestRedactWithoutMatchesCopiesInput(t *testing.T) {
	in := writePDF(t, "plain.pdf", []line{{y: 400, text: "Nothing to hide here"}})
	out := filepath.Join(t.TempDir(), "out.pdf")

	r := New(Config{}, patterns.Compile([]patterns.Entry{patterns.Literal("Ref")}, false, zerolog.Nop()), zerolog.Nop())
	res, err := r.Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.True(t, res.Copied)
	assert.Equal(t, 0, res.Redactions)
	assert.Equal(t, 1, res.Pages)

	want, err := os.ReadFile(in)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedactAppliesBandsToEveryPage(t *testing.T) {
	in := writePDF(t, "plain.pdf",
		[]line{{y: 400, text: "Nothing to hide here"}},
		nil,
	)
	out := filepath.Join(t.TempDir(), "out.pdf")

	res, err := newTestRedactor(t, patterns.Literal("Ref")).Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.False(t, res.Copied)
	assert.Equal(t, 4, res.BandRedactions)
	assert.Equal(t, 0, res.MatchRedactions)
	assert.Equal(t, 4, res.Redactions)

	for pageNr := 1; pageNr <= 2; pageNr++ {
		rects := filledRects(t, out, pageNr)
		require.Len(t, rects, 2, "page %d", pageNr)
		assertRect(t, []float64{0, a4Height - 70, a4Width, 70}, rects[0])
		assertRect(t, []float64{0, 0, a4Width, 70}, rects[1])
	}
	assert.Contains(t, plainText(t, out), "Nothing to hide here")
}

func TestRedactPatternMatch(t *testing.T) {
	in := writePDF(t, "match.pdf",
		[]line{{y: 400, text: "See Ref 12 for details"}},
		[]line{{y: 400, text: "No match on this page"}},
	)
	out := filepath.Join(t.TempDir(), "out.pdf")

	res, err := newTestRedactor(t, patterns.Literal("Ref")).Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.False(t, res.Copied)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.MatchRedactions)
	assert.Equal(t, 4, res.BandRedactions)
	assert.Equal(t, 5, res.Redactions)
	assert.Equal(t, 3, res.Erased)

	rects := filledRects(t, out, 1)
	require.Len(t, rects, 3)
	assertRect(t, []float64{0, a4Height - 70, a4Width, 70}, rects[0])
	assertRect(t, []float64{0, 0, a4Width, 70}, rects[1])

	baseline := a4Height - 400
	assertRect(t, []float64{
		72 + font.TextWidth("See ", "Helvetica", 12),
		baseline - 12*descent,
		font.TextWidth("Ref", "Helvetica", 12),
		12,
	}, rects[2])

	assert.Len(t, filledRects(t, out, 2), 2)

	text := plainText(t, out)
	assert.NotContains(t, text, "Ref")
	assert.Contains(t, text, "See")
	assert.Contains(t, text, "12 for details")
	assert.Contains(t, text, "No match on this page")
}

func TestRedactRemovesTextUnderMatches(t *testing.T) {
	in := writePDF(t, "authors.pdf", []line{
		{y: 300, text: "AUTHORS: Jane Secret"},
		{y: 400, text: "Results follow"},
	})
	out := filepath.Join(t.TempDir(), "out.pdf")

	res, err := newTestRedactor(t, patterns.Regex(`^AUTHORS:.*$`, "m")).Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MatchRedactions)
	assert.Equal(t, len("AUTHORS: Jane Secret"), res.Erased)

	text := plainText(t, out)
	assert.NotContains(t, text, "AUTHORS")
	assert.NotContains(t, text, "Jane Secret")
	assert.Contains(t, text, "Results follow")
}

func TestRedactHeaderAndFooterContent(t *testing.T) {
	in := writePDF(t, "bands.pdf", []line{
		{y: 30, text: "Running header Ref"},
		{y: 400, text: "Body text"},
		{y: 820, text: "Page 1 of 1"},
	})
	out := filepath.Join(t.TempDir(), "out.pdf")

	res, err := newTestRedactor(t, patterns.Literal("Ref")).Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BandRedactions)
	assert.Equal(t, 0, res.MatchRedactions, "matches inside a band are covered by the band")
	assert.Equal(t, 1, res.Suppressed)
	assert.Equal(t, 2, res.Redactions)
	assert.False(t, res.Copied)

	text := plainText(t, out)
	assert.NotContains(t, text, "Running header")
	assert.NotContains(t, text, "Page 1 of 1")
	assert.Contains(t, text, "Body text")
}

func TestRedactImageInHeaderBand(t *testing.T) {
	var logo bytes.Buffer
	require.NoError(t, png.Encode(&logo, image.NewGray(image.Rect(0, 0, 8, 4))))

	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("logo", opts, &logo)
	doc.ImageOptions("logo", 72, 10, 100, 40, false, opts, 0, "")
	doc.ImageOptions("logo", 72, 300, 100, 40, false, opts, 0, "")
	in := filepath.Join(t.TempDir(), "logo.pdf")
	require.NoError(t, doc.OutputFileAndClose(in))
	require.Equal(t, 2, countOps(pageOps(t, in, 1), "Do"))

	out := filepath.Join(t.TempDir(), "out.pdf")
	res, err := newTestRedactor(t).Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.False(t, res.Copied)
	assert.Equal(t, 2, res.BandRedactions)
	assert.Equal(t, 1, res.Erased)

	assert.Equal(t, 1, countOps(pageOps(t, out, 1), "Do"), "only the image in the body is kept")
}

func TestRedactUsesCropBox(t *testing.T) {
	in := writePDF(t, "crop.pdf", []line{
		{y: 160, text: "Cropped header"},
		{y: 400, text: "Body text"},
	})
	in = setPageAttrs(t, in, types.Dict{"CropBox": types.NewRectangle(0, 0, a4Width, 700).Array()})
	out := filepath.Join(t.TempDir(), "out.pdf")

	res, err := newTestRedactor(t).Redact(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BandRedactions)

	rects := filledRects(t, out, 1)
	require.Len(t, rects, 2)
	assertRect(t, []float64{0, 630, a4Width, 70}, rects[0])
	assertRect(t, []float64{0, 0, a4Width, 70}, rects[1])

	text := plainText(t, out)
	assert.NotContains(t, text, "Cropped header")
	assert.Contains(t, text, "Body text")
}

func TestRedactRotatedPage(t *testing.T) {
	in := writePDF(t, "rotated.pdf", []line{{y: 400, text: "Body text"}})
	in = setPageAttrs(t, in, types.Dict{"Rotate": types.Integer(90)})
	out := filepath.Join(t.TempDir(), "out.pdf")

	_, err := newTestRedactor(t).Redact(context.Background(), in, out)
	require.NoError(t, err)

	// Displayed rotated clockwise, the left edge of the page is on top.
	rects := filledRects(t, out, 1)
	require.Len(t, rects, 2)
	assertRect(t, []float64{0, 0, 70, a4Height}, rects[0])
	assertRect(t, []float64{a4Width - 70, 0, 70, a4Height}, rects[1])
}

func TestRedactMissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	_, err := newTestRedactor(t).Redact(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotFound)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRedactCorruptInput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(in, []byte("not a pdf at all"), 0o644))

	_, err := newTestRedactor(t).Redact(context.Background(), in, filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedactionFailed)
}

func TestRedactCancelled(t *testing.T) {
	in := writePDF(t, "plain.pdf", []line{{y: 400, text: "text"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRedactor(t).Redact(ctx, in, filepath.Join(t.TempDir(), "out.pdf"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedactionErrorDoesNotDoubleWrap(t *testing.T) {
	inner := WrapRedactionError("ReadTextLayer", 3, ErrTextLayer, "boom")
	outer := WrapRedactionError("Redact", 0, inner, "")
	assert.Same(t, inner, outer)
	assert.Contains(t, outer.Error(), "page 3")
}
