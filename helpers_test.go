package filekit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit/internal/pdf"
	"github.com/porticus-lab/filekit/internal/pdftest"
)

// fakeRenderer is a PageRenderer that can block until released.
type fakeRenderer struct {
	mu      sync.Mutex
	html    []string
	urls    []string
	started chan struct{}
	block   chan struct{}
	panics  bool
	err     error
	closed  bool
	// ignoreCancel makes a blocked render wait for block even after ctx
	// is cancelled, then succeed.
	ignoreCancel bool
}

func (f *fakeRenderer) render(ctx context.Context) ([]byte, error) {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil && f.ignoreCancel {
		<-f.block
	} else if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics {
		panic("renderer exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func (f *fakeRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.mu.Lock()
	f.html = append(f.html, html)
	f.mu.Unlock()
	return f.render(ctx)
}

func (f *fakeRenderer) RenderURL(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	return f.render(ctx)
}

func (f *fakeRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeRasterizer renders blank pages.
type fakeRasterizer struct {
	pages int
	err   error
}

func (f fakeRasterizer) Open(_ []byte, _ float64) (RasterDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeRaster{pages: f.pages}, nil
}

type fakeRaster struct{ pages int }

func (f fakeRaster) NumPages() int { return f.pages }
func (f fakeRaster) Close() error  { return nil }

func (f fakeRaster) Render(n int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(0, 0, color.RGBA{R: uint8(n), A: 255})
	return img, nil
}

func (f fakeRaster) Text(n int) (string, error) {
	return fmt.Sprintf("raster page %d", n+1), nil
}

type fakeDocService struct {
	name string
	out  []byte
	err  error
}

func (f *fakeDocService) PDFToWord(_ context.Context, name string, _ []byte) ([]byte, error) {
	f.name = name
	return f.out, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// markerRangePDF returns a PDF whose pages read marker-from..marker-to.
func markerRangePDF(from, to int) []byte {
	var pages [][]byte
	for i := from; i <= to; i++ {
		pages = append(pages, pdftest.TextPage(fmt.Sprintf("marker-%d", i)))
	}
	return pdftest.Build(pages...)
}

// pdfTexts extracts the text of every page of data.
func pdfTexts(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := pdf.Load(data)
	require.NoError(t, err)
	ex, err := pdf.NewExtractor(doc)
	require.NoError(t, err)
	texts, err := ex.All(context.Background())
	require.NoError(t, err)
	return texts
}

func mustTool(t *testing.T, slug string) ToolDescriptor {
	t.Helper()
	tool, ok := DefaultCatalog().Lookup(slug)
	require.True(t, ok, slug)
	return tool
}
