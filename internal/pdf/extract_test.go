package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/porticus-lab/filekit/internal/pdftest"
)

func mustExtractor(t *testing.T, data []byte) *Extractor {
	t.Helper()
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ext, err := NewExtractor(doc)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return ext
}

func TestExtractSimpleText(t *testing.T) {
	ext := mustExtractor(t, pdftest.Build([]byte("BT /F1 12 Tf 100 700 Td (Hello, World!) Tj ET")))

	text, err := ext.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if text != "Hello, World!" {
		t.Errorf("got %q, want %q", text, "Hello, World!")
	}
}

func TestExtractTJKerning(t *testing.T) {
	ext := mustExtractor(t, pdftest.Build([]byte("BT /F1 14 Tf 50 750 Td [(Go) -200 (PDF) -20 (!)] TJ ET")))

	text, err := ext.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if text != "Go PDF!" {
		t.Errorf("got %q, want %q", text, "Go PDF!")
	}
}

func TestExtractLinesTopToBottom(t *testing.T) {
	// drawn bottom line first
	cs := []byte("BT /F1 12 Tf 72 600 Td (second) Tj ET BT /F1 12 Tf 72 700 Td (first) Tj ET")
	ext := mustExtractor(t, pdftest.Build(cs))

	text, _ := ext.Page(0)
	if text != "first\nsecond" {
		t.Errorf("got %q", text)
	}
}

func TestExtractFlateContent(t *testing.T) {
	data := pdftest.BuildWith(pdftest.Options{Flate: true}, pdftest.TextPage("compressed", "stream"))
	ext := mustExtractor(t, data)

	text, err := ext.Page(0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if !strings.Contains(text, "compressed") || !strings.Contains(text, "stream") {
		t.Errorf("got %q", text)
	}
}

func TestEachKeepsPageOrder(t *testing.T) {
	var pages [][]byte
	for i := 1; i <= 7; i++ {
		pages = append(pages, pdftest.TextPage(fmt.Sprintf("marker-%d", i)))
	}
	ext := mustExtractor(t, pdftest.Build(pages...))

	if ext.NumPages() != 7 {
		t.Fatalf("NumPages = %d, want 7", ext.NumPages())
	}
	var got []int
	err := ext.Each(context.Background(), func(i int, text string) error {
		if want := fmt.Sprintf("marker-%d", i+1); text != want {
			t.Errorf("page %d: got %q, want %q", i, text, want)
		}
		got = append(got, i)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	for i, idx := range got {
		if idx != i {
			t.Fatalf("visit order %v", got)
		}
	}
}

func TestEachHonoursCancellation(t *testing.T) {
	ext := mustExtractor(t, pdftest.Build(pdftest.TextPage("a"), pdftest.TextPage("b")))
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := ext.Each(ctx, func(int, string) error {
		calls++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestPageOutOfRange(t *testing.T) {
	ext := mustExtractor(t, pdftest.Build(pdftest.TextPage("x")))
	if _, err := ext.Page(3); err == nil {
		t.Error("expected error for page 3")
	}
}

func TestZeroPageDocument(t *testing.T) {
	ext := mustExtractor(t, pdftest.Build())
	texts, err := ext.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(texts) != 0 {
		t.Errorf("got %d pages, want 0", len(texts))
	}
}

func TestPageInfoAndMetadata(t *testing.T) {
	doc, err := Load(pdftest.BuildWith(pdftest.Options{Title: "Quarterly (draft)"}, []byte("BT ET")))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	info := doc.Info(pages[0])
	if info.Width != 612 || info.Height != 792 {
		t.Errorf("got %.0fx%.0f, want 612x792", info.Width, info.Height)
	}
	if got := doc.Metadata()["Title"]; got != "Quarterly (draft)" {
		t.Errorf("Title = %q", got)
	}
	if doc.Version() != "1.4" {
		t.Errorf("Version = %q", doc.Version())
	}
}

func TestLoadRejectsNonPDF(t *testing.T) {
	if _, err := Load([]byte("GIF89a")); !errors.Is(err, ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF", err)
	}
}

func TestASCIIHexFilter(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"48656c6c6f>", "Hello"},
		{"48 65 6c 6c 6f>", "Hello"},
		{"4865 6c6c 6f>", "Hello"},
		{"486>", "H`"},
	}
	for _, tt := range tests {
		got, err := fromASCIIHex(nil, []byte(tt.in))
		if err != nil {
			t.Errorf("fromASCIIHex(%q): %v", tt.in, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("fromASCIIHex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunLengthFilter(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{2, 'A', 'B', 'C', 128}, "ABC"},
		{[]byte{253, 'X', 128}, "XXXX"},
		{[]byte{0, 'a', 254, 'b'}, "abbb"},
	}
	for _, tt := range tests {
		got, err := unRunLength(nil, tt.in)
		if err != nil {
			t.Fatalf("unRunLength: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("unRunLength(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPNGUpPredictor(t *testing.T) {
	parms := Dict{
		"Predictor": &Object{Kind: KindInt, Int: 12},
		"Columns":   &Object{Kind: KindInt, Int: 3},
	}
	in := []byte{2, 1, 2, 3, 2, 1, 1, 1}
	got := unpredict(parms, in)
	want := []byte{1, 2, 3, 2, 3, 4}
	if string(got) != string(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWinAnsiEncoding(t *testing.T) {
	font := &Object{Kind: KindDict, Dict: Dict{
		"Subtype":  &Object{Kind: KindName, Name: "TrueType"},
		"Encoding": &Object{Kind: KindName, Name: "WinAnsiEncoding"},
	}}
	fd := newFontDecoder(font)
	if got := fd.decode([]byte{0x80, 'x', 0x93}); got != "€x“" {
		t.Errorf("decode = %q", got)
	}
}

func TestDifferences(t *testing.T) {
	font := &Object{Kind: KindDict, Dict: Dict{
		"Subtype": &Object{Kind: KindName, Name: "Type1"},
		"Encoding": &Object{Kind: KindDict, Dict: Dict{
			"Differences": &Object{Kind: KindArray, Array: []*Object{
				{Kind: KindInt, Int: 65},
				{Kind: KindName, Name: "eacute"},
				{Kind: KindName, Name: "uni20AC"},
			}},
		}},
	}}
	fd := newFontDecoder(font)
	if got := fd.decode([]byte("ABC")); got != "é€C" {
		t.Errorf("decode = %q", got)
	}
}

func TestToUnicodeCMap(t *testing.T) {
	cmap := `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
2 beginbfchar
<0003> <0020>
<0024> <0041>
endbfchar
1 beginbfrange
<0025> <0027> <0042>
endbfrange
endcmap`
	fd := &fontDecoder{cmap: map[uint32]string{}}
	fd.parseCMap([]byte(cmap))

	got := fd.decode([]byte{0x00, 0x24, 0x00, 0x03, 0x00, 0x25, 0x00, 0x27})
	if got != "A BD" {
		t.Errorf("decode = %q, want %q", got, "A BD")
	}
}

func TestUnescapeName(t *testing.T) {
	if got := unescapeName("A#20B"); got != "A B" {
		t.Errorf("got %q, want %q", got, "A B")
	}
	if got := unescapeName("Plain"); got != "Plain" {
		t.Errorf("got %q", got)
	}
}

func TestScannerObjects(t *testing.T) {
	s := newScanner([]byte("null true false 42 3.14 (he\\(l\\)lo) <48454C4C4F> /Name [1 2 3] 7 0 R"), 0)

	want := []struct {
		kind Kind
		test func(*Object) bool
	}{
		{KindNull, func(*Object) bool { return true }},
		{KindBool, func(o *Object) bool { return o.Bool }},
		{KindBool, func(o *Object) bool { return !o.Bool }},
		{KindInt, func(o *Object) bool { return o.Int == 42 }},
		{KindReal, func(o *Object) bool { return o.Real == 3.14 }},
		{KindString, func(o *Object) bool { return string(o.Bytes) == "he(l)lo" }},
		{KindString, func(o *Object) bool { return string(o.Bytes) == "HELLO" }},
		{KindName, func(o *Object) bool { return o.Name == "Name" }},
		{KindArray, func(o *Object) bool { return len(o.Array) == 3 }},
		{KindRef, func(o *Object) bool { return o.Ref == Ref{Num: 7} }},
	}
	for i, w := range want {
		o, err := s.next()
		if err != nil {
			t.Fatalf("object %d: %v", i, err)
		}
		if o.Kind != w.kind || !w.test(o) {
			t.Errorf("object %d: got %v %+v", i, o.Kind, o)
		}
	}
}

func TestScannerDepthLimit(t *testing.T) {
	deep := strings.Repeat("[", maxDepth+5) + strings.Repeat("]", maxDepth+5)
	if _, err := newScanner([]byte(deep), 0).next(); !errors.Is(err, errTooDeep) {
		t.Errorf("err = %v, want errTooDeep", err)
	}
}
