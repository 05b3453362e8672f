package raster_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit/internal/pdftest"
	"github.com/porticus-lab/filekit/internal/raster"
)

func TestRenderAndText(t *testing.T) {
	data := pdftest.Build(pdftest.TextPage("first page"), pdftest.TextPage("second page"))
	doc, err := raster.Open(data, 72)
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 2, doc.NumPages())

	img, err := doc.Render(0)
	require.NoError(t, err)
	b := img.Bounds()
	assert.InDelta(t, 612, b.Dx(), 1, "Letter width at 72 dpi")
	assert.InDelta(t, 792, b.Dy(), 1)

	text, err := doc.Text(1)
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(text), "second page")
}

func TestDefaultDPI(t *testing.T) {
	doc, err := raster.Open(pdftest.Build(pdftest.TextPage("x")), 0)
	require.NoError(t, err)
	defer doc.Close()

	img, err := doc.Render(0)
	require.NoError(t, err)
	assert.InDelta(t, 612*raster.DefaultDPI/72, img.Bounds().Dx(), 2)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := raster.Open([]byte("definitely not a pdf"), 0)
	assert.Error(t, err)
}
