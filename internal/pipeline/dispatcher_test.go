package pipeline

import (
	"context"
	"errors"
	"testing"
)

type namedConverter struct {
	name string
	mime string
}

func (c namedConverter) Name() string { return c.name }

func (c namedConverter) CanHandle(mimeType string) bool {
	return matchesMimeType([]string{c.mime}, mimeType)
}

func (c namedConverter) Convert(_ context.Context, src []byte) (Converted, error) {
	return Converted{Data: src, OutputName: c.name}, nil
}

func TestRegistryResolvesFirstMatchInOrder(t *testing.T) {
	r := NewRegistry(
		[]string{"image/jpg"},
		namedConverter{name: "first", mime: "image/heic"},
		namedConverter{name: "second", mime: "image/heic"},
		namedConverter{name: "webp", mime: "image/webp"},
	)

	for i := 0; i < 5; i++ {
		c, err := r.Resolve("IMAGE/HEIC")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if c.Name() != "first" {
			t.Fatalf("expected first registered converter, got %s", c.Name())
		}
	}

	c, err := r.Resolve("image/webp")
	if err != nil || c.Name() != "webp" {
		t.Fatalf("expected webp converter, got %v %v", c, err)
	}
}

func TestRegistryPassThroughForNativeTypes(t *testing.T) {
	r := NewRegistry([]string{"image/jpg", " Image/JPEG "}, NewHEICConverter(100))

	for _, mime := range []string{"image/jpg", "image/jpeg", "IMAGE/JPG"} {
		c, err := r.Resolve(mime)
		if err != nil {
			t.Fatalf("resolve %s: %v", mime, err)
		}
		if c.Name() != "passthrough" {
			t.Fatalf("expected pass-through for %s, got %s", mime, c.Name())
		}
	}
}

func TestRegistryReportsNoConverter(t *testing.T) {
	r := NewRegistry(nil, NewHEICConverter(100), nil)

	if names := r.Names(); len(names) != 1 || names[0] != "heic" {
		t.Fatalf("expected nil converters to be skipped, got %v", names)
	}

	_, err := r.Resolve("image/gif")
	if !errors.Is(err, ErrNoConverter) {
		t.Fatalf("expected ErrNoConverter, got %v", err)
	}
}

func TestDefaultConvertersOrder(t *testing.T) {
	r := NewRegistry(nil, DefaultConverters(100)...)

	names := r.Names()
	want := []string{"heic", "webp", "png"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}
