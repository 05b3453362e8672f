package filekit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/porticus-lab/filekit/internal/docx"
	"github.com/porticus-lab/filekit/internal/imaging"
	"github.com/porticus-lab/filekit/internal/pdf"
	"github.com/porticus-lab/filekit/internal/pdfmerge"
	"github.com/porticus-lab/filekit/internal/raster"
	"github.com/porticus-lab/filekit/internal/textops"
)

// RasterDocument is an open PDF that can render and read pages. Page
// numbers are 0-based.
type RasterDocument interface {
	NumPages() int
	Render(n int) (image.Image, error)
	Text(n int) (string, error)
	Close() error
}

// Rasterizer opens PDFs for rendering.
type Rasterizer interface {
	Open(data []byte, dpi float64) (RasterDocument, error)
}

// MuPDF is the default Rasterizer.
type MuPDF struct{}

// Open implements Rasterizer.
func (MuPDF) Open(data []byte, dpi float64) (RasterDocument, error) {
	doc, err := raster.Open(data, dpi)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

const compressQuality = 0.7

// eachPage calls fn for pages 0..n-1 in order, checking ctx before each
// page and yielding between pages.
func eachPage(ctx context.Context, n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(i); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

func (d *dispatcher) pdfToDocument(ctx context.Context, file FileCandidate, data []byte, report reportFunc) (*Artifact, error) {
	name := baseName(file.Name) + ".docx"
	if svc := d.cfg.docService; svc != nil {
		d.log.Debug("delegating to document service", zap.String("file", file.Name))
		out, err := svc.PDFToWord(ctx, file.Name, data)
		if err != nil {
			return nil, transformationError("the PDF to Word service failed", err)
		}
		return &Artifact{Parts: []Part{{Name: name, MediaType: docx.MediaType, Data: out}}}, nil
	}

	texts, err := d.pageTexts(ctx, data, report)
	if err != nil {
		return nil, err
	}
	var doc docx.Document
	for _, t := range texts {
		doc.AddParagraph(t)
	}
	out, err := doc.Bytes()
	if err != nil {
		return nil, transformationError("assembling the document failed", err)
	}
	return &Artifact{Parts: []Part{{Name: name, MediaType: docx.MediaType, Data: out}}}, nil
}

// pageTexts returns the text of every page, in page order.
func (d *dispatcher) pageTexts(ctx context.Context, data []byte, report reportFunc) ([]string, error) {
	switch d.cfg.textEngine {
	case EngineMuPDF:
		rd, err := d.cfg.rasterizer.Open(data, d.cfg.rasterDPI)
		if err != nil {
			return nil, transformationError("the PDF could not be opened", err)
		}
		defer rd.Close()
		n := rd.NumPages()
		texts := make([]string, 0, n)
		err = eachPage(ctx, n, func(i int) error {
			s, err := rd.Text(i)
			if err != nil {
				return transformationError(fmt.Sprintf("reading page %d failed", i+1), err)
			}
			texts = append(texts, s)
			report(i+1, n)
			return nil
		})
		return texts, err
	}

	doc, err := pdf.Load(data)
	if err != nil {
		switch {
		case errors.Is(err, pdf.ErrEncrypted):
			return nil, transformationError("password-protected PDFs are not supported", err)
		case errors.Is(err, pdf.ErrNotPDF):
			return nil, transformationError("the file is not a valid PDF", err)
		}
		return nil, transformationError("the PDF could not be parsed", err)
	}
	ext, err := pdf.NewExtractor(doc)
	if err != nil {
		return nil, transformationError("the PDF page tree could not be read", err)
	}
	n := ext.NumPages()
	texts := make([]string, 0, n)
	err = ext.Each(ctx, func(i int, text string) error {
		texts = append(texts, text)
		report(i+1, n)
		return nil
	})
	return texts, err
}

func (d *dispatcher) pdfToImages(ctx context.Context, t PDFToImages, file FileCandidate, data []byte, report reportFunc) (*Artifact, error) {
	rd, err := d.cfg.rasterizer.Open(data, d.cfg.rasterDPI)
	if err != nil {
		return nil, transformationError("the PDF could not be opened", err)
	}
	defer rd.Close()

	n := rd.NumPages()
	if n == 0 {
		return nil, transformationError("the PDF has no pages", nil)
	}
	format := t.format()
	quality := imaging.QualityPercent(t.Quality)
	base := baseName(file.Name)

	art := &Artifact{Parts: make([]Part, 0, n)}
	err = eachPage(ctx, n, func(i int) error {
		img, err := rd.Render(i)
		if err != nil {
			return transformationError(fmt.Sprintf("rendering page %d failed", i+1), err)
		}
		out, err := imaging.Encode(img, format, quality)
		if err != nil {
			return transformationError(fmt.Sprintf("encoding page %d failed", i+1), err)
		}
		art.Parts = append(art.Parts, Part{
			Name:      fmt.Sprintf("%s-page-%d.%s", base, i+1, format.Ext()),
			MediaType: format.MediaType(),
			Data:      out,
		})
		report(i+1, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return art, nil
}

func (d *dispatcher) htmlToPDF(ctx context.Context, file FileCandidate, data []byte) (*Artifact, error) {
	if d.cfg.renderer == nil {
		return nil, notImplementedError("HTML to PDF")
	}
	html, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	out, err := d.cfg.renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, transformationError("the document could not be printed to PDF", err)
	}
	return single(baseName(file.Name)+".pdf", "application/pdf", out), nil
}

// mergedName is the fixed name of a merged PDF.
const mergedName = "merged-document.pdf"

// mergePDF reports one step per input read plus one for the merge itself.
func (d *dispatcher) mergePDF(ctx context.Context, in []input, report reportFunc) (*Artifact, error) {
	steps := len(in) + 1
	docs := make([][]byte, len(in))
	err := eachPage(ctx, len(in), func(i int) error {
		n, err := pdfmerge.PageCount(in[i].data)
		if err != nil {
			return transformationError(fmt.Sprintf("%s could not be read as a PDF", in[i].file.Name), err)
		}
		d.log.Debug("merge input", zap.String("file", in[i].file.Name), zap.Int("pages", n))
		docs[i] = in[i].data
		report(i+1, steps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out, err := pdfmerge.Merge(ctx, docs)
	if err != nil {
		return nil, transformationError("the PDFs could not be merged", err)
	}
	report(steps, steps)
	return single(mergedName, "application/pdf", out), nil
}

func decodeImage(data []byte) (image.Image, string, error) {
	img, src, err := imaging.Decode(data)
	if err != nil {
		return nil, "", transformationError("the image could not be decoded", err)
	}
	return img, src, nil
}

func (d *dispatcher) imageConvert(t ImageConvert, file FileCandidate, data []byte) (*Artifact, error) {
	img, _, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	f := imaging.ParseFormat(t.Format)
	out, err := imaging.Encode(img, f, imaging.DefaultQuality)
	if err != nil {
		return nil, transformationError("encoding the image failed", err)
	}
	return single(baseName(file.Name)+"."+f.Ext(), f.MediaType(), out), nil
}

func (d *dispatcher) imageResize(t ImageResize, file FileCandidate, data []byte) (*Artifact, error) {
	img, src, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	w, h, err := imaging.Fit(img.Bounds(), t.Width, t.Height, t.KeepAspect)
	if err != nil {
		return nil, transformationError("invalid target size", err)
	}
	out, ext, mt, err := imaging.EncodeSource(imaging.Resize(img, w, h), src, imaging.DefaultQuality)
	if err != nil {
		return nil, transformationError("encoding the image failed", err)
	}
	return single(baseName(file.Name)+"-resized."+ext, mt, out), nil
}

func (d *dispatcher) imageCompress(t ImageCompress, file FileCandidate, data []byte) (*Artifact, error) {
	img, _, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	q := t.Quality
	if q == 0 {
		q = compressQuality
	}
	out, err := imaging.Encode(img, imaging.JPEG, imaging.QualityPercent(q))
	if err != nil {
		return nil, transformationError("encoding the image failed", err)
	}
	return single(baseName(file.Name)+"-compressed.jpg", imaging.JPEG.MediaType(), out), nil
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", transformationError("the file is not UTF-8 text", nil)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func (d *dispatcher) textCase(t TextCase, file FileCandidate, data []byte) (*Artifact, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	out, err := textops.Convert(text, t.Mode)
	if err != nil {
		return nil, transformationError("case conversion failed", err)
	}
	return single(fmt.Sprintf("%s-%s.txt", baseName(file.Name), t.Mode), "text/plain; charset=utf-8", []byte(out)), nil
}

func (d *dispatcher) textStats(file FileCandidate, data []byte) (*Artifact, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(textops.Count(text), "", "  ")
	if err != nil {
		return nil, transformationError("encoding statistics failed", err)
	}
	return single(baseName(file.Name)+"-stats.json", "application/json", out), nil
}

func single(name, mediaType string, data []byte) *Artifact {
	return &Artifact{Parts: []Part{{Name: name, MediaType: mediaType, Data: data}}}
}
