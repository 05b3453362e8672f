package pdf

import (
	"strconv"
	"strings"
)

// glyphRune maps an Adobe glyph name to a rune. Besides the common names
// it understands the uniXXXX and uXXXX[XX] forms and single-letter names.
func glyphRune(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if len(name) == 1 {
		return rune(name[0]), true
	}
	if hex, ok := strings.CutPrefix(name, "uni"); ok && len(hex) >= 4 {
		if v, err := strconv.ParseUint(hex[:4], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if hex, ok := strings.CutPrefix(name, "u"); ok && len(hex) >= 4 && len(hex) <= 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return rune(v), true
		}
	}
	return 0, false
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"quoteright": 0x2019, "quoteleft": 0x2018, "parenleft": '(', "parenright": ')',
	"asterisk": '*', "plus": '+', "comma": ',', "hyphen": '-', "period": '.',
	"slash": '/', "zero": '0', "one": '1', "two": '2', "three": '3',
	"four": '4', "five": '5', "six": '6', "seven": '7', "eight": '8',
	"nine": '9', "colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "asciicircum": '^',
	"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
	"braceright": '}', "asciitilde": '~',
	"bullet": 0x2022, "ellipsis": 0x2026, "emdash": 0x2014, "endash": 0x2013,
	"quotedblleft": 0x201C, "quotedblright": 0x201D, "quotesinglbase": 0x201A,
	"quotedblbase": 0x201E, "dagger": 0x2020, "daggerdbl": 0x2021,
	"trademark": 0x2122, "copyright": 0x00A9, "registered": 0x00AE,
	"degree": 0x00B0, "section": 0x00A7, "paragraph": 0x00B6,
	"Euro": 0x20AC, "sterling": 0x00A3, "yen": 0x00A5, "cent": 0x00A2,
	"fi": 0xFB01, "fl": 0xFB02, "ff": 0xFB00, "ffi": 0xFB03, "ffl": 0xFB04,
	"minus": 0x2212, "multiply": 0x00D7, "divide": 0x00F7,
	"guillemotleft": 0x00AB, "guillemotright": 0x00BB, "nbspace": 0x00A0,
	"Aacute": 0x00C1, "Agrave": 0x00C0, "Acircumflex": 0x00C2, "Adieresis": 0x00C4,
	"Atilde": 0x00C3, "Aring": 0x00C5, "AE": 0x00C6, "Ccedilla": 0x00C7,
	"Eacute": 0x00C9, "Egrave": 0x00C8, "Ecircumflex": 0x00CA, "Edieresis": 0x00CB,
	"Iacute": 0x00CD, "Igrave": 0x00CC, "Icircumflex": 0x00CE, "Idieresis": 0x00CF,
	"Ntilde": 0x00D1, "Oacute": 0x00D3, "Ograve": 0x00D2, "Ocircumflex": 0x00D4,
	"Odieresis": 0x00D6, "Otilde": 0x00D5, "Oslash": 0x00D8, "OE": 0x0152,
	"Uacute": 0x00DA, "Ugrave": 0x00D9, "Ucircumflex": 0x00DB, "Udieresis": 0x00DC,
	"Yacute": 0x00DD, "Ydieresis": 0x0178, "Scaron": 0x0160, "Zcaron": 0x017D,
	"aacute": 0x00E1, "agrave": 0x00E0, "acircumflex": 0x00E2, "adieresis": 0x00E4,
	"atilde": 0x00E3, "aring": 0x00E5, "ae": 0x00E6, "ccedilla": 0x00E7,
	"eacute": 0x00E9, "egrave": 0x00E8, "ecircumflex": 0x00EA, "edieresis": 0x00EB,
	"iacute": 0x00ED, "igrave": 0x00EC, "icircumflex": 0x00EE, "idieresis": 0x00EF,
	"ntilde": 0x00F1, "oacute": 0x00F3, "ograve": 0x00F2, "ocircumflex": 0x00F4,
	"odieresis": 0x00F6, "otilde": 0x00F5, "oslash": 0x00F8, "oe": 0x0153,
	"uacute": 0x00FA, "ugrave": 0x00F9, "ucircumflex": 0x00FB, "udieresis": 0x00FC,
	"yacute": 0x00FD, "ydieresis": 0x00FF, "scaron": 0x0161, "zcaron": 0x017E,
	"germandbls": 0x00DF, "dotlessi": 0x0131,
}
