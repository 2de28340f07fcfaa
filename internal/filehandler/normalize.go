package filehandler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/png"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is the quality used by ToCompressed when none is given.
const DefaultJPEGQuality = 95

// ErrUnsupportedImageFormat is returned when bytes cannot be decoded as a raster image.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// Encoding is the on-disk encoding an asset type requires.
type Encoding string

const (
	// EncodingFixedRaster is 8-bit RGBA PNG with no ancillary metadata,
	// required for layers composited over video (icons, lower thirds).
	EncodingFixedRaster Encoding = "fixed_raster"
	// EncodingCompressed is opaque JPEG; any transparency is flattened onto white.
	EncodingCompressed Encoding = "compressed"
	// EncodingPassthrough stores provider bytes untouched (video, audio, 3D).
	EncodingPassthrough Encoding = "passthrough"
)

// Normalize converts data to the requested encoding.
func Normalize(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingFixedRaster:
		return ToFixedRaster(data)
	case EncodingCompressed:
		return ToCompressed(data, DefaultJPEGQuality)
	case EncodingPassthrough, "":
		return data, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
}

// ToFixedRaster decodes any supported raster (paletted, gray, gray+alpha,
// RGB, RGBA; PNG, JPEG, GIF, WebP, BMP, TIFF), converts it to
// non-premultiplied 8-bit RGBA and re-encodes it as a PNG that carries only
// the IHDR, IDAT and IEND chunks. Applying it to its own output returns
// identical bytes.
func ToFixedRaster(data []byte) ([]byte, error) {
	src, format, err := decode(data)
	if err != nil {
		return nil, err
	}

	rgba := toNRGBA(src)

	var buf bytes.Buffer
	if err := EncodeRGBAPNG(&buf, rgba); err != nil {
		return nil, fmt.Errorf("encode fixed raster: %w", err)
	}

	log.Debug().
		Str("source_format", format).
		Int("width", rgba.Rect.Dx()).
		Int("height", rgba.Rect.Dy()).
		Int("input_bytes", len(data)).
		Int("output_bytes", buf.Len()).
		Msg("Normalized image to fixed RGBA raster")

	return buf.Bytes(), nil
}

// ToCompressed decodes a raster and re-encodes it as JPEG at the given
// quality (1-100, 0 means DefaultJPEGQuality). Images with transparency are
// composited over opaque white first; the alpha channel is lost.
func ToCompressed(data []byte, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	src, format, err := decode(data)
	if err != nil {
		return nil, err
	}

	var flat image.Image = src
	flattened := false
	if !isOpaque(src) {
		flat = flattenOnWhite(src)
		flattened = true
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	log.Debug().
		Str("source_format", format).
		Bool("flattened_alpha", flattened).
		Int("quality", quality).
		Int("input_bytes", len(data)).
		Int("output_bytes", buf.Len()).
		Msg("Compressed image to JPEG")

	return buf.Bytes(), nil
}

func decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrUnsupportedImageFormat)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImageFormat, err)
	}
	return img, format, nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func flattenOnWhite(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// isOpaque reports whether every pixel of img is fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
