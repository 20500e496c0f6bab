package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestHEICConverterCanHandle(t *testing.T) {
	c := NewHEICConverter(100)

	for _, mime := range []string{"image/heic", "image/heif", "IMAGE/HEIC", "Image/Heif"} {
		if !c.CanHandle(mime) {
			t.Errorf("expected heic converter to handle %q", mime)
		}
	}
	for _, mime := range []string{"image/jpg", "image/heic-sequence", "", "heic"} {
		if c.CanHandle(mime) {
			t.Errorf("expected heic converter to reject %q", mime)
		}
	}
}

func TestHEICConverterReportsFixedMessageOnDecodeFailure(t *testing.T) {
	c := NewHEICConverter(100)

	_, err := c.Convert(context.Background(), []byte("definitely not a heic container"))
	if err == nil {
		t.Fatal("expected conversion error")
	}

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ConversionError, got %T: %v", err, err)
	}
	if convErr.Format != "HEIC" {
		t.Fatalf("expected HEIC format, got %s", convErr.Format)
	}
	if got := convErr.UserMessage(); got != "Unable to convert HEIC image; try a different format" {
		t.Fatalf("unexpected user message %q", got)
	}
	if convErr.Err == nil {
		t.Fatal("expected decoder detail to be kept for logging")
	}
}

func TestImageConverterProducesCanonicalJPEG(t *testing.T) {
	c := NewPNGConverter(100)
	if !c.CanHandle("image/PNG") {
		t.Fatal("expected png converter to handle image/PNG")
	}

	out, err := c.Convert(context.Background(), buildTestPNG(t, 64, 48))
	if err != nil {
		t.Fatalf("convert png: %v", err)
	}
	if out.OutputName != "converted_from_png" {
		t.Fatalf("unexpected output name %q", out.OutputName)
	}

	img := decodeJPEG(t, bytes.NewReader(out.Data))
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Fatalf("expected 64x48, got %v", img.Bounds())
	}
}

func TestWebPConverterRejectsGarbage(t *testing.T) {
	_, err := NewWebPConverter(100).Convert(context.Background(), []byte("RIFF....WEBPnope"))

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ConversionError, got %v", err)
	}
	if !strings.Contains(convErr.UserMessage(), "WEBP") {
		t.Fatalf("expected format in user message, got %q", convErr.UserMessage())
	}
}

func TestImageConverterRejectsEmptySource(t *testing.T) {
	_, err := fakeHEICConverter(4, 4).Convert(context.Background(), nil)

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ConversionError, got %v", err)
	}
}

func TestImageConverterHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fakeHEICConverter(4, 4).Convert(ctx, []byte{1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPassThroughReturnsInputUnchanged(t *testing.T) {
	src := buildTestJPEG(t, 32, 32)

	out, err := PassThrough().Convert(context.Background(), src)
	if err != nil {
		t.Fatalf("pass-through: %v", err)
	}
	if !bytes.Equal(out.Data, src) {
		t.Fatal("expected byte-identical output")
	}
	if out.OutputName != "" {
		t.Fatalf("expected empty output name, got %q", out.OutputName)
	}
}
