// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"
)

// Options tweak the generated document.
type Options struct {
	// Flate compresses every content stream with FlateDecode.
	Flate bool
	// Title is written to the document information dictionary when set.
	Title string
}

// Build returns a PDF with one page per content stream. Every page uses a
// single Helvetica font named /F1 with WinAnsiEncoding.
func Build(contents ...[]byte) []byte {
	return BuildWith(Options{}, contents...)
}

// BuildWith is Build with options.
func BuildWith(opts Options, contents ...[]byte) []byte {
	var buf bytes.Buffer
	offsets := map[int]int{}
	obj := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	n := len(contents)
	fontID := 3 + 2*n
	infoID := fontID + 1

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, n)
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, cs := range contents {
		pageID, streamID := 3+2*i, 4+2*i
		obj(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			streamID, fontID))

		data, filter := cs, ""
		if opts.Flate {
			var z bytes.Buffer
			zw := zlib.NewWriter(&z)
			zw.Write(cs)
			zw.Close()
			data, filter = z.Bytes(), " /Filter /FlateDecode"
		}
		offsets[streamID] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d%s >>\nstream\n", streamID, len(data), filter)
		buf.Write(data)
		buf.WriteString("\nendstream\nendobj\n")
	}

	obj(fontID, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	size := fontID + 1
	trailerInfo := ""
	if opts.Title != "" {
		obj(infoID, fmt.Sprintf("<< /Title (%s) >>", Escape(opts.Title)))
		size = infoID + 1
		trailerInfo = fmt.Sprintf(" /Info %d 0 R", infoID)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for id := 1; id < size; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", size, trailerInfo, xref)
	return buf.Bytes()
}

// TextPage returns a content stream that shows each line below the
// previous one, starting near the top of a Letter page.
func TextPage(lines ...string) []byte {
	var b bytes.Buffer
	b.WriteString("BT /F1 12 Tf 72 720 Td")
	for i, l := range lines {
		if i > 0 {
			b.WriteString(" 0 -16 Td")
		}
		fmt.Fprintf(&b, " (%s) Tj", Escape(l))
	}
	b.WriteString(" ET")
	return b.Bytes()
}

// Escape escapes a literal string body.
func Escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
