package pdf

import (
	"bytes"
	"math"
	"sort"
	"strings"
	"unicode"
)

// span is a run of text placed at a point on the page.
type span struct {
	x, y float64
	size float64
	text string
}

// textInterp walks a content stream and records every text-showing
// operator. Only the state needed to place text is tracked.
type textInterp struct {
	fonts map[string]*fontDecoder

	font    *fontDecoder
	size    float64
	leading float64
	inText  bool
	x, y    float64 // current point
	lx, ly  float64 // start of current line

	operands []*Object
	spans    []span
}

func newTextInterp(fonts map[string]*fontDecoder) *textInterp {
	return &textInterp{fonts: fonts, size: 12}
}

func isOperandStart(c byte) bool {
	switch c {
	case '(', '<', '/', '[', '+', '-', '.':
		return true
	}
	return c >= '0' && c <= '9'
}

func (t *textInterp) run(content []byte) {
	s := newScanner(content, 0)
	for {
		s.skipSpace()
		if s.eof() {
			return
		}
		if isOperandStart(s.buf[s.off]) {
			if o, err := s.next(); err == nil {
				t.operands = append(t.operands, o)
			} else {
				s.off++
			}
			continue
		}
		op := s.token()
		if op == "" {
			// stray delimiter such as ')' or '>'
			s.off++
			continue
		}
		if op == "ID" {
			skipInlineImage(s)
		}
		t.apply(op)
		t.operands = t.operands[:0]
	}
}

// skipInlineImage moves past binary inline image data up to "EI".
func skipInlineImage(s *scanner) {
	for i := s.off; i+2 < len(s.buf); i++ {
		if s.buf[i] == 'E' && s.buf[i+1] == 'I' && isSpace(s.buf[i-1]) &&
			(i+2 == len(s.buf) || isSpace(s.buf[i+2])) {
			s.off = i + 2
			return
		}
	}
	s.off = len(s.buf)
}

func (t *textInterp) arg(i int) *Object {
	if i < len(t.operands) {
		return t.operands[i]
	}
	return null
}

func (t *textInterp) moveLine(dx, dy float64) {
	t.lx += dx
	t.ly += dy
	t.x, t.y = t.lx, t.ly
}

func (t *textInterp) nextLine() {
	t.lx = 0
	t.moveLine(0, -t.leading)
}

func (t *textInterp) apply(op string) {
	n := len(t.operands)
	switch op {
	case "BT":
		t.inText = true
		t.x, t.y, t.lx, t.ly = 0, 0, 0, 0
	case "ET":
		t.inText = false
	case "Tf":
		if n >= 2 {
			t.font = t.fonts[t.arg(0).Name]
			t.size = t.arg(1).num()
		}
	case "TL":
		t.leading = t.arg(0).num()
	case "Td":
		if n >= 2 {
			t.moveLine(t.arg(0).num(), t.arg(1).num())
		}
	case "TD":
		if n >= 2 {
			t.leading = -t.arg(1).num()
			t.moveLine(t.arg(0).num(), t.arg(1).num())
		}
	case "Tm":
		if n >= 6 {
			t.lx, t.ly = t.arg(4).num(), t.arg(5).num()
			t.x, t.y = t.lx, t.ly
		}
	case "T*":
		t.nextLine()
	case "Tj":
		t.show(t.decode(t.arg(0)))
	case "'":
		t.nextLine()
		t.show(t.decode(t.arg(0)))
	case `"`:
		t.nextLine()
		t.show(t.decode(t.arg(2)))
	case "TJ":
		var sb strings.Builder
		for _, el := range t.arg(0).Array {
			if el.Kind == KindString {
				sb.WriteString(t.decode(el))
			} else if k, ok := el.Number(); ok && k < -100 {
				// a large negative adjustment is a word gap
				sb.WriteByte(' ')
			}
		}
		t.show(sb.String())
	}
}

func (t *textInterp) decode(o *Object) string {
	if o.Kind != KindString {
		return ""
	}
	if t.font != nil {
		return t.font.decode(o.Bytes)
	}
	var sb strings.Builder
	for _, c := range o.Bytes {
		if c >= 32 && c != 127 {
			sb.WriteRune(rune(c))
		}
	}
	return sb.String()
}

func (t *textInterp) show(text string) {
	if !t.inText || text == "" {
		return
	}
	t.spans = append(t.spans, span{x: t.x, y: t.y, size: t.size, text: text})
}

// line is a set of spans sharing a baseline.
type line struct {
	y     float64
	spans []span
}

// layout orders spans top to bottom and left to right and joins them into
// text, one output line per baseline.
func layout(spans []span) string {
	if len(spans) == 0 {
		return ""
	}
	tol := 0.0
	for _, sp := range spans {
		tol += sp.size
	}
	tol = math.Max(tol/float64(len(spans))*0.5, 2)

	var lines []*line
	for _, sp := range spans {
		var target *line
		for _, l := range lines {
			if math.Abs(l.y-sp.y) < tol {
				target = l
				break
			}
		}
		if target == nil {
			target = &line{y: sp.y}
			lines = append(lines, target)
		}
		target.spans = append(target.spans, sp)
	}

	// PDF user space grows upwards
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var out bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			out.WriteByte('\n')
		}
		sort.SliceStable(l.spans, func(a, b int) bool { return l.spans[a].x < l.spans[b].x })
		for j, sp := range l.spans {
			if j > 0 {
				prev := l.spans[j-1]
				end := prev.x + float64(len([]rune(prev.text)))*prev.size*0.5
				em := (sp.size + prev.size) / 2
				if em < 1 {
					em = 12
				}
				if sp.x-end > em*0.3 {
					out.WriteByte(' ')
				}
			}
			out.WriteString(squash(sp.text))
		}
	}
	return strings.TrimSpace(out.String())
}

// squash folds line breaks and repeated blanks into single spaces and drops
// control characters.
func squash(s string) string {
	var sb strings.Builder
	blank := false
	for _, r := range s {
		switch {
		case r == '\r' || r == '\n' || r == '\f':
			r = ' '
			fallthrough
		case r == ' ' || r == '\t':
			if !blank {
				sb.WriteRune(r)
			}
			blank = true
		case unicode.IsControl(r):
		default:
			blank = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
