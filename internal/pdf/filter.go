package pdf

import (
	"bytes"
	"compress/lzw"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
)

// maxDecoded caps the output of any single filter (256 MB).
const maxDecoded = 256 << 20

var errDecodedTooLarge = errors.New("pdf: decoded stream exceeds 256 MB")

// decodeFunc undoes one stream filter.
type decodeFunc func(parms Dict, in []byte) ([]byte, error)

func passThrough(_ Dict, in []byte) ([]byte, error) { return in, nil }

var filters = map[string]decodeFunc{
	"FlateDecode":     inflate,
	"Fl":              inflate,
	"ASCII85Decode":   fromASCII85,
	"A85":             fromASCII85,
	"ASCIIHexDecode":  fromASCIIHex,
	"AHx":             fromASCIIHex,
	"LZWDecode":       unLZW,
	"LZW":             unLZW,
	"RunLengthDecode": unRunLength,
	"RL":              unRunLength,
	// image codecs are left encoded; text extraction never needs them
	"DCTDecode":      passThrough,
	"DCT":            passThrough,
	"CCITTFaxDecode": passThrough,
	"CCF":            passThrough,
	"JBIG2Decode":    passThrough,
	"JPXDecode":      passThrough,
	"Crypt":          passThrough,
}

// decodeStream applies the /Filter chain of a stream object.
func decodeStream(o *Object) ([]byte, error) {
	names, parms := filterChain(o.Dict)
	out := o.Raw
	for i, name := range names {
		fn, ok := filters[name]
		if !ok {
			return nil, fmt.Errorf("pdf: unsupported filter %s", name)
		}
		var err error
		if out, err = fn(parms[i], out); err != nil {
			return nil, fmt.Errorf("pdf: %s: %w", name, err)
		}
	}
	return out, nil
}

// filterChain lists filter names with their parameter dictionaries aligned.
func filterChain(d Dict) ([]string, []Dict) {
	f, ok := d["Filter"]
	if !ok {
		return nil, nil
	}
	var names []string
	switch f.Kind {
	case KindName:
		names = []string{f.Name}
	case KindArray:
		for _, v := range f.Array {
			if v.Kind == KindName {
				names = append(names, v.Name)
			}
		}
	}
	parms := make([]Dict, len(names))
	if p, ok := d["DecodeParms"]; ok {
		switch p.Kind {
		case KindDict:
			if len(parms) > 0 {
				parms[0] = p.Dict
			}
		case KindArray:
			for i, v := range p.Array {
				if i < len(parms) && v.Kind == KindDict {
					parms[i] = v.Dict
				}
			}
		}
	}
	return names, parms
}

func readCapped(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDecoded+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxDecoded {
		return nil, errDecodedTooLarge
	}
	return out, nil
}

func inflate(parms Dict, in []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := readCapped(zr)
	if err != nil {
		return nil, err
	}
	return unpredict(parms, out), nil
}

// predictorGeometry returns bytes per row and bytes per pixel.
func predictorGeometry(parms Dict) (row, pixel int) {
	get := func(k string, def int64) int64 {
		if v, ok := parms.Int(k); ok && v > 0 {
			return v
		}
		return def
	}
	colors := get("Colors", 1)
	bpc := get("BitsPerComponent", 8)
	cols := get("Columns", 1)
	row = int((cols*colors*bpc + 7) / 8)
	pixel = int((colors*bpc + 7) / 8)
	return row, pixel
}

// unpredict reverses TIFF (2) and PNG (10-15) predictors.
func unpredict(parms Dict, in []byte) []byte {
	if parms == nil {
		return in
	}
	pred, _ := parms.Int("Predictor")
	row, pixel := predictorGeometry(parms)
	switch {
	case pred == 2:
		return unTIFF(in, row, pixel)
	case pred >= 10 && pred <= 15:
		return unPNG(in, row, pixel)
	}
	return in
}

func unTIFF(in []byte, row, pixel int) []byte {
	if row == 0 {
		return in
	}
	out := append([]byte(nil), in...)
	for start := 0; start < len(out); start += row {
		end := min(start+row, len(out))
		for i := start + pixel; i < end; i++ {
			out[i] += out[i-pixel]
		}
	}
	return out
}

func unPNG(in []byte, row, pixel int) []byte {
	stride := row + 1
	if row == 0 || len(in) < stride {
		return in
	}
	rows := len(in) / stride
	out := make([]byte, rows*row)
	prev := make([]byte, row)
	for r := 0; r < rows; r++ {
		src := in[r*stride+1 : (r+1)*stride]
		dst := out[r*row : (r+1)*row]
		for i := range dst {
			var left, upLeft byte
			if i >= pixel {
				left = dst[i-pixel]
				upLeft = prev[i-pixel]
			}
			up := prev[i]
			switch in[r*stride] {
			case 1:
				dst[i] = src[i] + left
			case 2:
				dst[i] = src[i] + up
			case 3:
				dst[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				dst[i] = src[i] + paeth(left, up, upLeft)
			default:
				dst[i] = src[i]
			}
		}
		prev = dst
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func fromASCII85(_ Dict, in []byte) ([]byte, error) {
	if i := bytes.Index(in, []byte("~>")); i >= 0 {
		in = in[:i]
	}
	return readCapped(ascii85.NewDecoder(bytes.NewReader(in)))
}

func fromASCIIHex(_ Dict, in []byte) ([]byte, error) {
	out, _ := decodeHexDigits(in)
	return out, nil
}

func unLZW(_ Dict, in []byte) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(in), lzw.MSB, 8)
	defer r.Close()
	return readCapped(r)
}

// unRunLength decodes PackBits: 0-127 copy n+1 literal bytes, 129-255
// repeat the next byte 257-n times, 128 ends the data.
func unRunLength(_ Dict, in []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(in); {
		n := int(in[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := min(i+n+1, len(in))
			out = append(out, in[i:end]...)
			i = end
		default:
			if i >= len(in) {
				return out, nil
			}
			out = append(out, bytes.Repeat(in[i:i+1], 257-n)...)
			i++
		}
		if len(out) > maxDecoded {
			return nil, errDecodedTooLarge
		}
	}
	return out, nil
}
