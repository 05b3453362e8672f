// Package pdf is a small, pure-Go PDF reader aimed at text extraction.
//
// It parses classic and stream cross-reference sections, object streams,
// the common stream filters, and simple and composite font encodings
// (including ToUnicode CMaps). Content streams are interpreted only far
// enough to place shown text, which is then laid out line by line.
//
//	doc, err := pdf.Open("report.pdf")
//	ext, err := pdf.NewExtractor(doc)
//	err = ext.Each(ctx, func(i int, text string) error { ... })
package pdf
