package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}
	return img
}

func buildTestPNG(tb testing.TB, w, h int) []byte {
	tb.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		tb.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func buildTestJPEG(tb testing.TB, w, h int) []byte {
	tb.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		tb.Fatalf("encode source jpeg: %v", err)
	}
	return buf.Bytes()
}

// fakeHEICConverter stands in for a real HEIC decoder: any payload decodes to
// a w x h gradient.
func fakeHEICConverter(w, h int) Converter {
	decode := func(io.Reader) (image.Image, error) {
		return gradient(w, h), nil
	}
	return NewImageConverter("heic", heicMimeTypes, decode, 100)
}

func decodeJPEG(tb testing.TB, r io.Reader) image.Image {
	tb.Helper()

	img, err := jpeg.Decode(r)
	if err != nil {
		tb.Fatalf("decode jpeg: %v", err)
	}
	return img
}
