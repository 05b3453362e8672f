// Package raster renders PDF pages to images and extracts page text with
// MuPDF through go-fitz.
package raster

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI renders pages at 1.5x the PDF user-space resolution.
const DefaultDPI = 108

// Document is an open PDF held in memory.
type Document struct {
	doc *fitz.Document
	dpi float64
}

// Open parses data as a PDF. A dpi of zero or less selects DefaultDPI.
func Open(data []byte, dpi float64) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("raster: opening document: %w", err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Document{doc: doc, dpi: dpi}, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.doc.NumPage() }

// Close releases the MuPDF document.
func (d *Document) Close() error { return d.doc.Close() }

// Render rasterizes page n (0-based).
func (d *Document) Render(n int) (image.Image, error) {
	img, err := d.doc.ImageDPI(n, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("raster: rendering page %d: %w", n+1, err)
	}
	return img, nil
}

// Text returns the text of page n (0-based).
func (d *Document) Text(n int) (string, error) {
	s, err := d.doc.Text(n)
	if err != nil {
		return "", fmt.Errorf("raster: reading text of page %d: %w", n+1, err)
	}
	return s, nil
}
