package pdf

import (
	"bytes"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// fontDecoder maps the bytes of a shown string to Unicode.
// A ToUnicode CMap wins over /Differences, which win over the base encoding.
type fontDecoder struct {
	simple bool
	codes  [256]rune
	cmap   map[uint32]string
}

// newFontDecoder builds a decoder for a font dictionary. A nil font yields
// a Latin-1 decoder.
func newFontDecoder(font *Object) *fontDecoder {
	fd := &fontDecoder{simple: true, cmap: map[uint32]string{}}
	for i := range fd.codes {
		fd.codes[i] = rune(i)
	}
	if !font.hasDict() {
		return fd
	}
	d := font.Dict
	subtype, _ := d.Name("Subtype")
	fd.simple = subtype != "Type0"

	switch enc := d["Encoding"]; {
	case enc == nil:
		if subtype == "Type1" || subtype == "MMType1" {
			fd.base("StandardEncoding")
		} else {
			fd.base("WinAnsiEncoding")
		}
	case enc.Kind == KindName:
		fd.base(enc.Name)
	case enc.hasDict():
		if b, ok := enc.Dict.Name("BaseEncoding"); ok {
			fd.base(b)
		}
		if diffs, ok := enc.Dict["Differences"]; ok && diffs.Kind == KindArray {
			fd.differences(diffs.Array)
		}
	}

	if tu, ok := d["ToUnicode"]; ok && tu.Kind == KindStream {
		if body, err := decodeStream(tu); err == nil {
			fd.parseCMap(body)
		}
	}
	return fd
}

// base installs the upper half of a named single-byte encoding.
func (fd *fontDecoder) base(name string) {
	var cm *charmap.Charmap
	switch name {
	case "WinAnsiEncoding":
		cm = charmap.Windows1252
	case "MacRomanEncoding":
		cm = charmap.Macintosh
	case "PDFDocEncoding":
		for c := 128; c < 256; c++ {
			fd.codes[c] = pdfDocRune(byte(c))
		}
		return
	case "StandardEncoding":
		for c, r := range standardUpper {
			fd.codes[c] = r
		}
		return
	default:
		return
	}
	for c := 128; c < 256; c++ {
		if r := cm.DecodeByte(byte(c)); r != utf8.RuneError {
			fd.codes[c] = r
		}
	}
}

// differences applies a /Differences array: a code followed by glyph names
// for consecutive codes.
func (fd *fontDecoder) differences(arr []*Object) {
	code := 0
	for _, o := range arr {
		switch o.Kind {
		case KindInt:
			code = int(o.Int)
		case KindName:
			if r, ok := glyphRune(o.Name); ok && code >= 0 && code < 256 {
				fd.codes[code] = r
			}
			code++
		}
	}
}

func (fd *fontDecoder) set(code uint32, s string) {
	if s == "" {
		return
	}
	if fd.simple && code < 256 {
		r, _ := utf8.DecodeRuneInString(s)
		fd.codes[code] = r
		return
	}
	fd.cmap[code] = s
}

// parseCMap reads the bfchar and bfrange sections of a ToUnicode CMap.
func (fd *fontDecoder) parseCMap(body []byte) {
	s := newScanner(body, 0)
	var section string
	var operands []*Object
	for {
		s.skipSpace()
		if s.eof() {
			return
		}
		c := s.buf[s.off]
		if c == '<' || c == '[' || c == '/' || c == '(' || (c >= '0' && c <= '9') {
			o, err := s.next()
			if err != nil {
				return
			}
			operands = append(operands, o)
			continue
		}
		if c == ']' || c == '>' || c == '{' || c == '}' || c == ')' {
			s.off++
			continue
		}
		op := s.token()
		if op == "" {
			s.off++
			continue
		}
		switch op {
		case "beginbfchar", "beginbfrange":
			section = op
		case "endbfchar":
			fd.bfchar(operands)
			section = ""
		case "endbfrange":
			fd.bfrange(operands)
			section = ""
		}
		if section == "" || strings.HasPrefix(op, "begin") {
			operands = operands[:0]
		}
	}
}

func (fd *fontDecoder) bfchar(ops []*Object) {
	for i := 0; i+1 < len(ops); i += 2 {
		fd.set(codeOf(ops[i].Bytes), utf16BE(ops[i+1].Bytes))
	}
}

func (fd *fontDecoder) bfrange(ops []*Object) {
	for i := 0; i+2 < len(ops); i += 3 {
		lo, hi, dst := codeOf(ops[i].Bytes), codeOf(ops[i+1].Bytes), ops[i+2]
		if hi < lo || hi-lo > 0xFFFF {
			continue
		}
		if dst.Kind == KindArray {
			for j, o := range dst.Array {
				if lo+uint32(j) > hi {
					break
				}
				fd.set(lo+uint32(j), utf16BE(o.Bytes))
			}
			continue
		}
		start := []rune(utf16BE(dst.Bytes))
		if len(start) == 0 {
			continue
		}
		for c := lo; c <= hi; c++ {
			fd.set(c, string(start[0]+rune(c-lo)))
		}
	}
}

func codeOf(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// utf16BE decodes big-endian UTF-16 bytes. A single byte is taken as is.
func utf16BE(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(u))
}

// decode converts shown string bytes to text. Composite fonts try two-byte
// codes before single bytes.
func (fd *fontDecoder) decode(b []byte) string {
	var sb strings.Builder
	for i := 0; i < len(b); i++ {
		if !fd.simple {
			if i+1 < len(b) {
				if s, ok := fd.cmap[uint32(b[i])<<8|uint32(b[i+1])]; ok {
					sb.WriteString(s)
					i++
					continue
				}
			}
			if s, ok := fd.cmap[uint32(b[i])]; ok {
				sb.WriteString(s)
				continue
			}
		}
		if r := fd.codes[b[i]]; r > 0 && utf8.ValidRune(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// decodeTextString decodes a PDF text string (UTF-16BE with BOM, UTF-8 with
// BOM, or PDFDocEncoding).
func decodeTextString(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		return utf16BE(b[2:])
	case bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}):
		return string(b[3:])
	}
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(pdfDocRune(c))
	}
	return sb.String()
}

// pdfDocRune maps PDFDocEncoding, which is Latin-1 apart from 0x18-0x1F
// and 0x80-0xA0.
func pdfDocRune(c byte) rune {
	if r, ok := pdfDocSpecial[c]; ok {
		return r
	}
	return charmap.ISO8859_1.DecodeByte(c)
}

var pdfDocSpecial = map[byte]rune{
	0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
	0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
	0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
	0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
	0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
	0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0xA0: 0x20AC,
}

// standardUpper holds the non-ASCII part of Adobe StandardEncoding.
var standardUpper = map[int]rune{
	0xA1: 0x00A1, 0xA2: 0x00A2, 0xA3: 0x00A3, 0xA4: 0x2044, 0xA5: 0x00A5,
	0xA6: 0x0192, 0xA7: 0x00A7, 0xA8: 0x00A4, 0xA9: 0x0027, 0xAA: 0x201C,
	0xAB: 0x00AB, 0xAC: 0x2039, 0xAD: 0x203A, 0xAE: 0xFB01, 0xAF: 0xFB02,
	0xB1: 0x2013, 0xB2: 0x2020, 0xB3: 0x2021, 0xB4: 0x00B7, 0xB6: 0x00B6,
	0xB7: 0x2022, 0xB8: 0x201A, 0xB9: 0x201E, 0xBA: 0x201D, 0xBB: 0x00BB,
	0xBC: 0x2026, 0xBD: 0x2030, 0xBF: 0x00BF, 0xC1: 0x0060, 0xC2: 0x00B4,
	0xC3: 0x02C6, 0xC4: 0x02DC, 0xC5: 0x00AF, 0xC6: 0x02D8, 0xC7: 0x02D9,
	0xC8: 0x00A8, 0xCA: 0x02DA, 0xCB: 0x00B8, 0xCD: 0x02DD, 0xCE: 0x02DB,
	0xCF: 0x02C7, 0xD0: 0x2014, 0xE1: 0x00C6, 0xE3: 0x00AA, 0xE8: 0x0141,
	0xE9: 0x00D8, 0xEA: 0x0152, 0xEB: 0x00BA, 0xF1: 0x00E6, 0xF5: 0x0131,
	0xF8: 0x0142, 0xF9: 0x00F8, 0xFA: 0x0153, 0xFB: 0x00DF,
}
