//go:build !govips || !cgo

package pipeline

import "github.com/gen2brain/heic"

func Startup() error {
	return nil
}

func Shutdown() {}

func newRenderer(quality int) Renderer {
	return stdlibRenderer{quality: quality}
}

// NewHEICConverter decodes HEIC/HEIF with a pure-Go decoder so the default
// build needs no cgo.
func NewHEICConverter(quality int) Converter {
	return NewImageConverter("heic", heicMimeTypes, heic.Decode, quality)
}
