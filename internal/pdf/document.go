package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrNotPDF is returned when the data has no %PDF- header.
	ErrNotPDF = errors.New("pdf: not a PDF file")
	// ErrEncrypted is returned for documents protected by a security handler.
	ErrEncrypted = errors.New("pdf: encrypted documents are not supported")
)

// xrefEntry locates one object, either at a byte offset or inside an
// object stream.
type xrefEntry struct {
	offset int64
	gen    int
	inUse  bool
	// compressed objects (PDF 1.5+)
	container int
	index     int
	packed    bool
}

// Document is a parsed PDF file. It is not safe for concurrent use.
type Document struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer Dict
	cache   map[int]*Object
	visited map[int64]bool
}

// Open reads and parses the PDF at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return Load(data)
}

// Load parses a PDF held in memory. The slice must not be modified while
// the Document is in use.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}
	d := &Document{
		data:    data,
		xref:    map[int]xrefEntry{},
		cache:   map[int]*Object{},
		visited: map[int64]bool{},
	}
	start, err := d.startXRef()
	if err != nil {
		return nil, err
	}
	if err := d.readXRef(start); err != nil {
		return nil, fmt.Errorf("pdf: reading xref: %w", err)
	}
	if _, ok := d.trailer["Encrypt"]; ok {
		return nil, ErrEncrypted
	}
	return d, nil
}

// Version returns the header version, e.g. "1.7".
func (d *Document) Version() string {
	line := d.data[5:min(len(d.data), 20)]
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if v := strings.TrimSpace(string(line)); v != "" {
		return v
	}
	return "?"
}

// startXRef reads the offset after the last "startxref" in the final KB.
func (d *Document) startXRef() (int64, error) {
	tail := max(0, len(d.data)-1024)
	i := bytes.LastIndex(d.data[tail:], []byte("startxref"))
	if i < 0 {
		return 0, errors.New("pdf: startxref not found")
	}
	s := newScanner(d.data, tail+i+len("startxref"))
	s.skipSpace()
	off, err := strconv.ParseInt(s.token(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pdf: bad startxref: %w", err)
	}
	return off, nil
}

// readXRef loads a classic table or an xref stream and follows /Prev.
// Entries seen first win, so newer revisions shadow older ones.
func (d *Document) readXRef(off int64) error {
	if off < 0 || off >= int64(len(d.data)) {
		return fmt.Errorf("offset %d out of range", off)
	}
	if d.visited[off] {
		return nil
	}
	d.visited[off] = true

	s := newScanner(d.data, int(off))
	s.skipSpace()
	var (
		section Dict
		err     error
	)
	if s.keyword("xref") {
		section, err = d.readXRefTable(s)
	} else {
		section, err = d.readXRefStream(s)
	}
	if err != nil {
		return err
	}
	if d.trailer == nil {
		d.trailer = section
	}
	if prev, ok := section.Int("Prev"); ok && prev > 0 {
		return d.readXRef(prev)
	}
	return nil
}

func (d *Document) setEntry(num int, e xrefEntry) {
	if _, seen := d.xref[num]; !seen {
		d.xref[num] = e
	}
}

// readXRefTable parses subsections of fixed 20-byte entries, then the trailer.
func (d *Document) readXRefTable(s *scanner) (Dict, error) {
	for {
		s.skipSpace()
		if s.eof() || s.keyword("trailer") {
			break
		}
		first, err1 := strconv.Atoi(s.token())
		s.skipSpace()
		count, err2 := strconv.Atoi(s.token())
		if err1 != nil || err2 != nil {
			break
		}
		s.skipSpace()
		for i := 0; i < count && s.off+20 <= len(d.data); i++ {
			entry := string(d.data[s.off : s.off+18])
			s.off += 20
			off, _ := strconv.ParseInt(strings.TrimSpace(entry[:10]), 10, 64)
			gen, _ := strconv.Atoi(strings.TrimSpace(entry[11:16]))
			d.setEntry(first+i, xrefEntry{offset: off, gen: gen, inUse: entry[17] == 'n'})
		}
	}
	t, err := s.next()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	if t.Kind != KindDict {
		return nil, errors.New("trailer is not a dictionary")
	}
	return t.Dict, nil
}

// readXRefStream parses a PDF 1.5 cross-reference stream (/W, /Index).
func (d *Document) readXRefStream(s *scanner) (Dict, error) {
	if !s.objectHeader() {
		return nil, errors.New("expected xref stream object")
	}
	o, err := s.next()
	if err != nil {
		return nil, err
	}
	if o.Kind != KindStream {
		return nil, errors.New("xref object is not a stream")
	}
	body, err := decodeStream(o)
	if err != nil {
		return nil, err
	}

	w, _ := o.Dict.Array("W")
	if len(w) < 3 {
		return nil, errors.New("xref stream without /W")
	}
	w0, w1, w2 := int(w[0].Int), int(w[1].Int), int(w[2].Int)
	width := w0 + w1 + w2
	if width == 0 {
		return nil, errors.New("xref stream with zero-width entries")
	}

	var ranges [][2]int
	if idx, ok := o.Dict.Array("Index"); ok {
		for i := 0; i+1 < len(idx); i += 2 {
			ranges = append(ranges, [2]int{int(idx[i].Int), int(idx[i+1].Int)})
		}
	} else {
		size, _ := o.Dict.Int("Size")
		ranges = [][2]int{{0, int(size)}}
	}

	pos := 0
	for _, r := range ranges {
		for i := 0; i < r[1] && pos+width <= len(body); i++ {
			row := body[pos : pos+width]
			pos += width
			typ := 1
			if w0 > 0 {
				typ = beUint(row[:w0])
			}
			f2 := beUint(row[w0 : w0+w1])
			f3 := beUint(row[w0+w1:])
			switch typ {
			case 0:
				d.setEntry(r[0]+i, xrefEntry{gen: f3})
			case 1:
				d.setEntry(r[0]+i, xrefEntry{offset: int64(f2), gen: f3, inUse: true})
			case 2:
				d.setEntry(r[0]+i, xrefEntry{packed: true, container: f2, index: f3, inUse: true})
			}
		}
	}
	return o.Dict, nil
}

func beUint(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

// Resolve follows o if it is a reference. Missing or broken objects
// resolve to null rather than failing.
func (d *Document) Resolve(o *Object) *Object {
	if o == nil {
		return null
	}
	if o.Kind != KindRef {
		return o
	}
	return d.object(o.Ref.Num)
}

func (d *Document) object(num int) *Object {
	if o, ok := d.cache[num]; ok {
		return o
	}
	e, ok := d.xref[num]
	if !ok || !e.inUse {
		return null
	}
	// guard against self-referencing lengths and containers
	d.cache[num] = null

	var (
		o   *Object
		err error
	)
	if e.packed {
		o, err = d.packedObject(e)
	} else {
		o, err = d.objectAt(e.offset)
	}
	if err != nil || o == nil {
		return null
	}
	d.cache[num] = o
	return o
}

// objectAt parses "N G obj ..." at a file offset.
func (d *Document) objectAt(off int64) (*Object, error) {
	if off < 0 || off >= int64(len(d.data)) {
		return nil, fmt.Errorf("object offset %d out of range", off)
	}
	s := newScanner(d.data, int(off))
	s.resolve = d.Resolve
	if !s.objectHeader() {
		return nil, fmt.Errorf("no object header at %d", off)
	}
	return s.next()
}

// packedObject reads an object stored in an object stream (/Type /ObjStm).
func (d *Document) packedObject(e xrefEntry) (*Object, error) {
	c := d.object(e.container)
	if c.Kind != KindStream {
		return nil, errors.New("object stream container is not a stream")
	}
	body, err := decodeStream(c)
	if err != nil {
		return nil, err
	}
	n, _ := c.Dict.Int("N")
	first, _ := c.Dict.Int("First")

	s := newScanner(body, 0)
	var rel int
	for i := 0; i < int(n); i++ {
		s.skipSpace()
		s.token()
		s.skipSpace()
		o, _ := strconv.Atoi(s.token())
		if i == e.index {
			rel = o
			break
		}
	}
	at := int(first) + rel
	if at > len(body) {
		return nil, fmt.Errorf("object stream offset %d out of range", at)
	}
	return newScanner(body, at).next()
}

// Trailer returns the effective trailer dictionary.
func (d *Document) Trailer() Dict { return d.trailer }

// Catalog returns the document catalog.
func (d *Document) Catalog() (Dict, error) {
	root := d.Resolve(d.trailer["Root"])
	if root.Kind != KindDict {
		return nil, errors.New("pdf: missing document catalog")
	}
	return root.Dict, nil
}

// Pages returns every leaf page dictionary in document order.
func (d *Document) Pages() ([]Dict, error) {
	cat, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	root := d.Resolve(cat["Pages"])
	if !root.hasDict() {
		return nil, errors.New("pdf: missing page tree")
	}
	var pages []Dict
	seen := map[*Object]bool{}
	var walk func(node *Object, depth int)
	walk = func(node *Object, depth int) {
		if seen[node] || depth > maxDepth {
			return
		}
		seen[node] = true
		if t, _ := node.Dict.Name("Type"); t == "Page" {
			pages = append(pages, node.Dict)
			return
		}
		kids := d.Resolve(node.Dict["Kids"])
		for _, k := range kids.Array {
			if kid := d.Resolve(k); kid.hasDict() {
				walk(kid, depth+1)
			}
		}
	}
	walk(root, 0)
	return pages, nil
}

// Contents returns the decoded content streams of a page joined by spaces.
// Streams that fail to decode are skipped.
func (d *Document) Contents(page Dict) []byte {
	c := d.Resolve(page["Contents"])
	parts := []*Object{c}
	if c.Kind == KindArray {
		parts = c.Array
	}
	var out []byte
	for _, p := range parts {
		s := d.Resolve(p)
		if s.Kind != KindStream {
			continue
		}
		b, err := decodeStream(s)
		if err != nil {
			continue
		}
		out = append(out, b...)
		out = append(out, ' ')
	}
	return out
}

// resources returns the page's resource dictionary, inheriting from
// ancestors in the page tree.
func (d *Document) resources(page Dict) Dict {
	for node, depth := page, 0; node != nil && depth < maxDepth; depth++ {
		if r := d.Resolve(node["Resources"]); r.hasDict() {
			return r.Dict
		}
		parent := d.Resolve(node["Parent"])
		if !parent.hasDict() {
			break
		}
		node = parent.Dict
	}
	return nil
}

// Fonts returns the page's font resources keyed by resource name.
func (d *Document) Fonts(page Dict) map[string]*Object {
	res := d.resources(page)
	if res == nil {
		return nil
	}
	fd := d.Resolve(res["Font"])
	if fd.Kind != KindDict {
		return nil
	}
	fonts := make(map[string]*Object, len(fd.Dict))
	for name, ref := range fd.Dict {
		if f := d.Resolve(ref); f.hasDict() {
			fonts[name] = f
		}
	}
	return fonts
}

// PageInfo describes page geometry in points.
type PageInfo struct {
	Width    float64
	Height   float64
	Rotation int
}

// Info returns the size and rotation of a page.
func (d *Document) Info(page Dict) PageInfo {
	var pi PageInfo
	if mb := d.Resolve(page["MediaBox"]); mb.Kind == KindArray && len(mb.Array) >= 4 {
		pi.Width = d.Resolve(mb.Array[2]).num() - d.Resolve(mb.Array[0]).num()
		pi.Height = d.Resolve(mb.Array[3]).num() - d.Resolve(mb.Array[1]).num()
	}
	if r := d.Resolve(page["Rotate"]); r.Kind == KindInt {
		pi.Rotation = int(r.Int)
	}
	return pi
}

// Metadata returns the string entries of the document information
// dictionary (Title, Author, Producer and so on).
func (d *Document) Metadata() map[string]string {
	info := d.Resolve(d.trailer["Info"])
	if info.Kind != KindDict {
		return nil
	}
	out := map[string]string{}
	for k, v := range info.Dict {
		if v = d.Resolve(v); v.Kind == KindString {
			out[k] = decodeTextString(v.Bytes)
		}
	}
	return out
}
