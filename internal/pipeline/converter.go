package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

var heicMimeTypes = []string{"image/heic", "image/heif"}

// Converted is a canonical JPEG produced from the source bytes. OutputName is
// the artifact base name; empty means the caller picks one.
type Converted struct {
	Data       []byte
	OutputName string
}

// Converter turns one family of source encodings into the canonical JPEG.
// Implementations must be safe for concurrent use.
type Converter interface {
	Name() string
	CanHandle(mimeType string) bool
	Convert(ctx context.Context, src []byte) (Converted, error)
}

type DecodeFunc func(r io.Reader) (image.Image, error)

type imageConverter struct {
	format    string
	mimeTypes []string
	decode    DecodeFunc
	quality   int
}

// NewImageConverter builds a converter from a pure-Go decoder. Adding a source
// format is one call to this plus a registry entry.
func NewImageConverter(format string, mimeTypes []string, decode DecodeFunc, quality int) Converter {
	return imageConverter{
		format:    strings.ToUpper(format),
		mimeTypes: mimeTypes,
		decode:    decode,
		quality:   quality,
	}
}

func NewWebPConverter(quality int) Converter {
	return NewImageConverter("webp", []string{"image/webp"}, webp.Decode, quality)
}

func NewPNGConverter(quality int) Converter {
	return NewImageConverter("png", []string{"image/png"}, png.Decode, quality)
}

// DefaultConverters is the registration order used by the services.
func DefaultConverters(quality int) []Converter {
	return []Converter{
		NewHEICConverter(quality),
		NewWebPConverter(quality),
		NewPNGConverter(quality),
	}
}

func (c imageConverter) Name() string {
	return strings.ToLower(c.format)
}

func (c imageConverter) CanHandle(mimeType string) bool {
	return matchesMimeType(c.mimeTypes, mimeType)
}

func (c imageConverter) Convert(ctx context.Context, src []byte) (Converted, error) {
	select {
	case <-ctx.Done():
		return Converted{}, ctx.Err()
	default:
	}

	if len(src) == 0 {
		return Converted{}, &ConversionError{Format: c.format, Err: errors.New("empty source")}
	}

	img, err := c.decode(bytes.NewReader(src))
	if err != nil {
		return Converted{}, &ConversionError{Format: c.format, Err: fmt.Errorf("decode: %w", err)}
	}

	data, err := encodeJPEG(img, c.quality)
	if err != nil {
		return Converted{}, &ConversionError{Format: c.format, Err: err}
	}

	return Converted{Data: data, OutputName: "converted_from_" + c.Name()}, nil
}

type passThrough struct{}

// PassThrough returns the source unchanged. The dispatcher hands it out for
// encodings the renderer reads natively.
func PassThrough() Converter {
	return passThrough{}
}

func (passThrough) Name() string {
	return "passthrough"
}

func (passThrough) CanHandle(string) bool {
	return false
}

func (passThrough) Convert(ctx context.Context, src []byte) (Converted, error) {
	if err := ctx.Err(); err != nil {
		return Converted{}, err
	}
	return Converted{Data: src}, nil
}

func matchesMimeType(declared []string, mimeType string) bool {
	mimeType = strings.TrimSpace(mimeType)
	for _, candidate := range declared {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
