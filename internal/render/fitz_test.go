//go:build ocr

package render

import (
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable(t *testing.T) {
	assert.NoError(t, Available())
}

func TestOpenRendersAtScale(t *testing.T) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.AddPage()
	doc.AddPage()
	doc.SetFont("Helvetica", "", 24)
	doc.Text(72, 200, "HELLO")

	path := filepath.Join(t.TempDir(), "two.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))

	rendered, err := Open(path, 2)
	require.NoError(t, err)
	defer rendered.Close()

	assert.Equal(t, 2, rendered.NumPages())

	img, err := rendered.RenderPage(1)
	require.NoError(t, err)
	assert.Equal(t, 4, Channels(img))
	assert.InDelta(t, 612*2, img.Bounds().Dx(), 2)
	assert.InDelta(t, 792*2, img.Bounds().Dy(), 2)
}
