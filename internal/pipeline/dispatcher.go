package pipeline

import (
	"errors"
	"fmt"
)

var ErrNoConverter = errors.New("no converter for mime type")

// Registry is the ordered, immutable set of converters. It is built once at
// startup and only read afterwards.
type Registry struct {
	converters []Converter
	native     map[string]struct{}
}

func NewRegistry(nativeMimeTypes []string, converters ...Converter) *Registry {
	r := &Registry{
		converters: make([]Converter, 0, len(converters)),
		native:     make(map[string]struct{}, len(nativeMimeTypes)),
	}
	for _, c := range converters {
		if c != nil {
			r.converters = append(r.converters, c)
		}
	}
	for _, mime := range nativeMimeTypes {
		if mime = normalizeMimeType(mime); mime != "" {
			r.native[mime] = struct{}{}
		}
	}
	return r
}

// Resolve returns the first registered converter that handles mimeType, the
// pass-through for native encodings, or ErrNoConverter.
func (r *Registry) Resolve(mimeType string) (Converter, error) {
	for _, c := range r.converters {
		if c.CanHandle(mimeType) {
			return c, nil
		}
	}
	if _, ok := r.native[normalizeMimeType(mimeType)]; ok {
		return PassThrough(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoConverter, mimeType)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.converters))
	for _, c := range r.converters {
		names = append(names, c.Name())
	}
	return names
}
