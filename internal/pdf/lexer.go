package pdf

import (
	"bytes"
	"errors"
	"strconv"
)

const maxDepth = 100

var errTooDeep = errors.New("pdf: object nesting too deep")

// scanner is a recursive-descent reader over PDF object syntax. It is used
// both for the file body and for page content streams.
type scanner struct {
	buf   []byte
	off   int
	depth int
	// resolve, when set, looks up an indirect stream /Length.
	resolve func(*Object) *Object
}

func newScanner(buf []byte, off int) *scanner {
	return &scanner{buf: buf, off: off}
}

func (s *scanner) eof() bool { return s.off >= len(s.buf) }

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipSpace skips whitespace and comments.
func (s *scanner) skipSpace() {
	for !s.eof() {
		c := s.buf[s.off]
		switch {
		case c == '%':
			for !s.eof() && s.buf[s.off] != '\n' && s.buf[s.off] != '\r' {
				s.off++
			}
		case isSpace(c):
			s.off++
		default:
			return
		}
	}
}

// keyword consumes kw if it is next in the buffer.
func (s *scanner) keyword(kw string) bool {
	if !bytes.HasPrefix(s.buf[s.off:], []byte(kw)) {
		return false
	}
	s.off += len(kw)
	return true
}

// token reads a run of regular characters.
func (s *scanner) token() string {
	start := s.off
	for !s.eof() && !isSpace(s.buf[s.off]) && !isDelimiter(s.buf[s.off]) {
		s.off++
	}
	return string(s.buf[start:s.off])
}

// objectHeader consumes "N G obj".
func (s *scanner) objectHeader() bool {
	s.skipSpace()
	s.token()
	s.skipSpace()
	s.token()
	s.skipSpace()
	return s.keyword("obj")
}

// next parses one object at the current offset. Unknown tokens parse as null
// so that a single malformed value does not abort a whole file.
func (s *scanner) next() (*Object, error) {
	if s.depth >= maxDepth {
		return nil, errTooDeep
	}
	s.depth++
	defer func() { s.depth-- }()

	s.skipSpace()
	if s.eof() {
		return null, nil
	}
	switch c := s.buf[s.off]; {
	case c == '(':
		return s.literal(), nil
	case c == '<' && s.off+1 < len(s.buf) && s.buf[s.off+1] == '<':
		return s.dictOrStream()
	case c == '<':
		return s.hexLiteral(), nil
	case c == '/':
		return &Object{Kind: KindName, Name: s.name()}, nil
	case c == '[':
		return s.array()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return s.numberOrRef(), nil
	case s.keyword("true"):
		return &Object{Kind: KindBool, Bool: true}, nil
	case s.keyword("false"):
		return &Object{Kind: KindBool}, nil
	case s.keyword("null"):
		return null, nil
	}
	return null, nil
}

var literalEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

// literal reads a (...) string with balanced parentheses and escapes.
func (s *scanner) literal() *Object {
	s.off++
	var out []byte
	for depth := 1; !s.eof(); {
		c := s.buf[s.off]
		s.off++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &Object{Kind: KindString, Bytes: out}
			}
		case '\\':
			if s.eof() {
				continue
			}
			e := s.buf[s.off]
			s.off++
			if r, ok := literalEscapes[e]; ok {
				out = append(out, r)
				continue
			}
			switch {
			case e == '\r':
				if !s.eof() && s.buf[s.off] == '\n' {
					s.off++
				}
			case e == '\n':
			case e >= '0' && e <= '7':
				v := int(e - '0')
				for i := 0; i < 2 && !s.eof() && s.buf[s.off] >= '0' && s.buf[s.off] <= '7'; i++ {
					v = v*8 + int(s.buf[s.off]-'0')
					s.off++
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
			continue
		}
		out = append(out, c)
	}
	return &Object{Kind: KindString, Bytes: out}
}

// hexLiteral reads a <...> string. An odd trailing digit is padded with 0.
func (s *scanner) hexLiteral() *Object {
	s.off++
	out, n := decodeHexDigits(s.buf[s.off:])
	s.off += n
	return &Object{Kind: KindString, Bytes: out}
}

// decodeHexDigits decodes hex pairs up to '>' and reports how many input
// bytes were consumed, including the terminator.
func decodeHexDigits(in []byte) ([]byte, int) {
	var out []byte
	var hi byte
	half := false
	i := 0
	for ; i < len(in); i++ {
		c := in[i]
		if c == '>' {
			i++
			break
		}
		if isSpace(c) {
			continue
		}
		if !half {
			hi = unhex(c)
			half = true
			continue
		}
		out = append(out, hi<<4|unhex(c))
		half = false
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, i
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// name reads /Name and resolves #XX escapes.
func (s *scanner) name() string {
	s.off++
	return unescapeName(s.token())
}

func unescapeName(raw string) string {
	if !bytes.ContainsRune([]byte(raw), '#') {
		return raw
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			out = append(out, unhex(raw[i+1])<<4|unhex(raw[i+2]))
			i += 2
			continue
		}
		out = append(out, raw[i])
	}
	return string(out)
}

func (s *scanner) array() (*Object, error) {
	s.off++
	arr := &Object{Kind: KindArray}
	for {
		s.skipSpace()
		if s.eof() {
			return arr, nil
		}
		if s.buf[s.off] == ']' {
			s.off++
			return arr, nil
		}
		v, err := s.next()
		if err != nil {
			return nil, err
		}
		arr.Array = append(arr.Array, v)
	}
}

// dictOrStream reads << ... >> and, if "stream" follows, the stream payload.
func (s *scanner) dictOrStream() (*Object, error) {
	s.off += 2
	d := Dict{}
	for {
		s.skipSpace()
		if s.eof() {
			break
		}
		if s.keyword(">>") {
			break
		}
		if s.buf[s.off] != '/' {
			s.off++
			continue
		}
		key := s.name()
		v, err := s.next()
		if err != nil {
			return nil, err
		}
		d[key] = v
	}

	s.skipSpace()
	if !s.keyword("stream") {
		return &Object{Kind: KindDict, Dict: d}, nil
	}
	if !s.eof() && s.buf[s.off] == '\r' {
		s.off++
	}
	if !s.eof() && s.buf[s.off] == '\n' {
		s.off++
	}

	start := s.off
	end := -1
	if l, ok := d["Length"]; ok {
		if l.Kind == KindRef && s.resolve != nil {
			if l = s.resolve(l); l.Kind == KindInt {
				d["Length"] = l
			}
		}
		if l.Kind == KindInt && l.Int >= 0 && start+int(l.Int) <= len(s.buf) {
			end = start + int(l.Int)
		}
	}
	if end < 0 {
		i := bytes.Index(s.buf[start:], []byte("endstream"))
		if i < 0 {
			i = len(s.buf) - start
		}
		end = start + i
	}
	s.off = end
	s.skipSpace()
	s.keyword("endstream")
	return &Object{Kind: KindStream, Dict: d, Raw: s.buf[start:end]}, nil
}

// numberOrRef reads a number, or an "N G R" reference when one follows.
func (s *scanner) numberOrRef() *Object {
	tok := s.token()
	n, intErr := strconv.ParseInt(tok, 10, 64)
	if intErr == nil {
		after := s.off
		s.skipSpace()
		if g, err := strconv.ParseInt(s.token(), 10, 64); err == nil {
			s.skipSpace()
			if !s.eof() && s.buf[s.off] == 'R' &&
				(s.off+1 >= len(s.buf) || isSpace(s.buf[s.off+1]) || isDelimiter(s.buf[s.off+1])) {
				s.off++
				return &Object{Kind: KindRef, Ref: Ref{Num: int(n), Gen: int(g)}}
			}
		}
		s.off = after
		return &Object{Kind: KindInt, Int: n}
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return &Object{Kind: KindReal, Real: f}
	}
	return null
}
