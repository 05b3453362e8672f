package pdf

import (
	"context"
	"fmt"
	"runtime"
)

// Extractor pulls plain text out of the pages of a Document. Font decoders
// are cached across pages, so an Extractor is not safe for concurrent use.
type Extractor struct {
	doc   *Document
	pages []Dict
	fonts map[*Object]*fontDecoder
}

// NewExtractor returns an Extractor for doc.
func NewExtractor(doc *Document) (*Extractor, error) {
	pages, err := doc.Pages()
	if err != nil {
		return nil, err
	}
	return &Extractor{doc: doc, pages: pages, fonts: map[*Object]*fontDecoder{}}, nil
}

// NumPages returns the number of pages in the document.
func (e *Extractor) NumPages() int { return len(e.pages) }

// Page returns the text of page i (0-indexed).
func (e *Extractor) Page(i int) (string, error) {
	if i < 0 || i >= len(e.pages) {
		return "", fmt.Errorf("pdf: page %d out of range (0-%d)", i, len(e.pages)-1)
	}
	page := e.pages[i]
	decoders := map[string]*fontDecoder{}
	for name, f := range e.doc.Fonts(page) {
		fd, ok := e.fonts[f]
		if !ok {
			fd = newFontDecoder(f)
			e.fonts[f] = fd
		}
		decoders[name] = fd
	}
	content := e.doc.Contents(page)
	if len(content) == 0 {
		return "", nil
	}
	ti := newTextInterp(decoders)
	ti.run(content)
	return layout(ti.spans), nil
}

// Each extracts pages in order and passes each one to fn. It checks ctx
// before every page and yields the processor between pages. Extraction
// stops at the first error from fn.
func (e *Extractor) Each(ctx context.Context, fn func(i int, text string) error) error {
	for i := range e.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := e.Page(i)
		if err != nil {
			return err
		}
		if err := fn(i, text); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// All returns the text of every page, one element per page.
func (e *Extractor) All(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(e.pages))
	err := e.Each(ctx, func(_ int, text string) error {
		out = append(out, text)
		return nil
	})
	return out, err
}

// PageDicts returns the page dictionaries in document order.
func (e *Extractor) PageDicts() []Dict { return e.pages }
