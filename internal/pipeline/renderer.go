package pipeline

import (
	"bytes"
	"context"
)

const ContentTypeJPEG = "image/jpeg"

// Artifact is one encoded output. Reader always starts at offset zero, so the
// same artifact can be read any number of times.
type Artifact struct {
	Filename    string
	ContentType string
	data        []byte
}

func NewArtifact(filename string, data []byte) Artifact {
	return Artifact{
		Filename:    filename,
		ContentType: ContentTypeJPEG,
		data:        data,
	}
}

func (a Artifact) Reader() *bytes.Reader {
	return bytes.NewReader(a.data)
}

func (a Artifact) Bytes() []byte {
	return bytes.Clone(a.data)
}

func (a Artifact) Len() int {
	return len(a.data)
}

// Rendition holds the two outputs of one request: Delivery is meant for inline
// display, Preservation for download.
type Rendition struct {
	Delivery     Artifact
	Preservation Artifact
	Width        int
	Height       int
}

func (r Rendition) Bytes() int {
	return r.Delivery.Len() + r.Preservation.Len()
}

// Renderer decodes the canonical image once and encodes it twice.
type Renderer interface {
	Render(ctx context.Context, canonical []byte, filename string) (Rendition, error)
}
