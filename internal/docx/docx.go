// Package docx writes plain WordprocessingML documents, one paragraph per
// entry with no styling, and reads their paragraph text back.
package docx

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gomutex/godocx"
	gdoc "github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/packager"
	"github.com/gomutex/godocx/wml/ctypes"
)

// MediaType is the MIME type of a .docx file.
const MediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Document is the body of a docx file.
type Document struct {
	paragraphs []string
}

// AddParagraph appends a paragraph. Line breaks inside text become spaces.
func (d *Document) AddParagraph(text string) {
	d.paragraphs = append(d.paragraphs, strings.Join(strings.Fields(text), " "))
}

// Len returns the number of paragraphs.
func (d *Document) Len() int { return len(d.paragraphs) }

// WriteTo writes the zipped package to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	root, err := godocx.NewDocument()
	if err != nil {
		return 0, fmt.Errorf("docx: loading template: %w", err)
	}
	for _, p := range d.paragraphs {
		if p == "" {
			root.AddEmptyParagraph()
			continue
		}
		root.AddParagraph(sanitize(p))
	}
	n, err := root.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("docx: writing package: %w", err)
	}
	return n, nil
}

// Bytes returns the zipped package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sanitize drops characters XML 1.0 cannot carry.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}

// Paragraphs reads back the plain text of each top-level paragraph in data.
// Tables and section properties are skipped.
func Paragraphs(data []byte) ([]string, error) {
	root, err := packager.Unpack(&data)
	if err != nil {
		return nil, fmt.Errorf("docx: opening package: %w", err)
	}
	if root.Document == nil || root.Document.Body == nil {
		return nil, nil
	}
	var out []string
	for _, child := range root.Document.Body.Children {
		if child.Para == nil {
			continue
		}
		out = append(out, paragraphText(child.Para))
	}
	return out, nil
}

func paragraphText(p *gdoc.Paragraph) string {
	var b strings.Builder
	for _, c := range p.GetCT().Children {
		switch {
		case c.Run != nil:
			runText(&b, c.Run)
		case c.Link != nil && c.Link.Run != nil:
			runText(&b, c.Link.Run)
		}
	}
	return b.String()
}

func runText(b *strings.Builder, r *ctypes.Run) {
	for _, rc := range r.Children {
		if rc.Text != nil {
			b.WriteString(rc.Text.Text)
		}
	}
}
