package pipeline

import (
	"bytes"
	"context"
	"image"
	"os"
	"testing"

	"github.com/dunamismax/easyconvert/internal/domain"
)

// sample.heic is a 512x512 HEIC still image.
const sampleHEICSize = 512

func readSampleHEIC(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile("testdata/sample.heic")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func assertSampleBounds(t *testing.T, img image.Image) {
	t.Helper()

	if img.Bounds().Dx() != sampleHEICSize || img.Bounds().Dy() != sampleHEICSize {
		t.Fatalf("expected %dx%d, got %v", sampleHEICSize, sampleHEICSize, img.Bounds())
	}
}

func TestHEICConverterDecodesRealFile(t *testing.T) {
	c := NewHEICConverter(100)

	out, err := c.Convert(context.Background(), readSampleHEIC(t))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	assertSampleBounds(t, decodeJPEG(t, bytes.NewReader(out.Data)))
}

func TestProcessConvertsRealHEICFile(t *testing.T) {
	data := readSampleHEIC(t)
	p := newTestProcessor(t, &staticFetcher{data: data}, nil)

	out := p.Process(context.Background(), media("image/heic", int64(len(data)), domain.SourceKindDocument))

	if out.Failure != nil {
		t.Fatalf("unexpected failure: %v (%v)", out.Failure, out.Failure.Err)
	}
	if out.State != StateRendered {
		t.Fatalf("expected rendered state, got %s", out.State)
	}
	if out.Converter != "heic" {
		t.Fatalf("expected heic converter, got %s", out.Converter)
	}
	for _, a := range []Artifact{out.Rendition.Delivery, out.Rendition.Preservation} {
		assertSampleBounds(t, decodeJPEG(t, a.Reader()))
	}
}
