// Package imaging decodes, scales and re-encodes raster images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 90

// ErrUnknownFormat is returned by Decode for content no registered codec
// recognises.
var ErrUnknownFormat = errors.New("imaging: unknown image format")

// ParseFormat maps a user-supplied name to an output format. Anything that
// is not JPEG (including webp, which has no encoder here) falls back to PNG.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg", "image/jpeg":
		return JPEG
	}
	return PNG
}

// Ext returns the file extension, without dot.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return "png"
}

// MediaType returns the MIME type.
func (f Format) MediaType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Decode reads png, jpeg, gif, bmp or webp content. The returned name is
// the detected source format.
func Decode(data []byte) (image.Image, string, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnknownFormat
		}
		return nil, "", fmt.Errorf("imaging: decoding: %w", err)
	}
	return img, name, nil
}

// Encode writes img in format f. quality applies to JPEG only and is
// clamped to 1..100; zero selects DefaultQuality.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("imaging: encoding %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// EncodeSource re-encodes img in the same family as its detected source
// format, returning the bytes, the extension and the media type. Formats
// without an encoder here are written as PNG.
func EncodeSource(img image.Image, source string, quality int) ([]byte, string, string, error) {
	var buf bytes.Buffer
	switch source {
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", "", fmt.Errorf("imaging: encoding gif: %w", err)
		}
		return buf.Bytes(), "gif", "image/gif", nil
	case "bmp":
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, "", "", fmt.Errorf("imaging: encoding bmp: %w", err)
		}
		return buf.Bytes(), "bmp", "image/bmp", nil
	}
	f := ParseFormat(source)
	data, err := Encode(img, f, quality)
	if err != nil {
		return nil, "", "", err
	}
	return data, f.Ext(), f.MediaType(), nil
}

func clampQuality(q int) int {
	switch {
	case q == 0:
		return DefaultQuality
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return q
}

// QualityPercent converts a 0..1 fraction to a 1..100 JPEG quality.
func QualityPercent(fraction float64) int {
	if fraction <= 0 {
		return DefaultQuality
	}
	return max(1, min(100, int(fraction*100+0.5)))
}

// Fit computes the target size for a resize. A zero dimension is derived
// from the other one keeping the aspect ratio. With keepAspect both bounds
// act as a box the result fits inside.
func Fit(src image.Rectangle, width, height int, keepAspect bool) (int, int, error) {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return 0, 0, errors.New("imaging: empty source image")
	}
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return 0, 0, fmt.Errorf("imaging: invalid target size %dx%d", width, height)
	}
	switch {
	case width == 0:
		width = max(1, sw*height/sh)
	case height == 0:
		height = max(1, sh*width/sw)
	case keepAspect:
		rw := float64(width) / float64(sw)
		rh := float64(height) / float64(sh)
		r := min(rw, rh)
		width = max(1, int(float64(sw)*r+0.5))
		height = max(1, int(float64(sh)*r+0.5))
	}
	return width, height, nil
}

// Resize scales img to width x height with Catmull-Rom interpolation.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
