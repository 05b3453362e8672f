// Package textops implements the text utility transformations: case
// conversion and character/word statistics.
package textops

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects a case conversion.
type Mode string

const (
	Upper    Mode = "upper"
	Lower    Mode = "lower"
	Title    Mode = "title"
	Sentence Mode = "sentence"
	Camel    Mode = "camel"
	Pascal   Mode = "pascal"
	Snake    Mode = "snake"
	Kebab    Mode = "kebab"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{Upper, Lower, Title, Sentence, Camel, Pascal, Snake, Kebab}

// ParseMode accepts a mode name or its long form ("uppercase").
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "uppercase":
		return Upper, nil
	case "lowercase":
		return Lower, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("textops: unknown case mode %q", s)
}

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
	title = cases.Title(language.Und)

	whitespace = regexp.MustCompile(`\s+`)
)

// Convert applies mode to text.
func Convert(text string, mode Mode) (string, error) {
	switch mode {
	case Upper:
		return upper.String(text), nil
	case Lower:
		return lower.String(text), nil
	case Title:
		return title.String(text), nil
	case Sentence:
		r, n := utf8.DecodeRuneInString(text)
		if n == 0 {
			return "", nil
		}
		return string(unicode.ToUpper(r)) + lower.String(text[n:]), nil
	case Camel, Pascal:
		var b strings.Builder
		for i, w := range strings.Fields(text) {
			r, n := utf8.DecodeRuneInString(w)
			if i == 0 && mode == Camel {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			b.WriteString(w[n:])
		}
		return b.String(), nil
	case Snake:
		return whitespace.ReplaceAllString(lower.String(text), "_"), nil
	case Kebab:
		return whitespace.ReplaceAllString(lower.String(text), "-"), nil
	}
	return "", fmt.Errorf("textops: unknown case mode %q", mode)
}

// Stats are the counts reported by the character and word counter.
type Stats struct {
	Characters         int `json:"characters"`
	CharactersNoSpaces int `json:"charactersNoSpaces"`
	Words              int `json:"words"`
	Sentences          int `json:"sentences"`
	Paragraphs         int `json:"paragraphs"`
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	blankLine   = regexp.MustCompile(`\n\s*\n`)
)

// Count computes Stats. Characters are counted in runes.
func Count(text string) Stats {
	s := Stats{
		Characters:         utf8.RuneCountInString(text),
		CharactersNoSpaces: utf8.RuneCountInString(whitespace.ReplaceAllString(text, "")),
		Sentences:          nonBlank(sentenceEnd.Split(text, -1)),
		Paragraphs:         nonBlank(blankLine.Split(text, -1)),
	}
	if t := strings.TrimSpace(text); t != "" {
		s.Words = len(whitespace.Split(t, -1))
	}
	return s
}

func nonBlank(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}
