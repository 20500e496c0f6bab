package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

type stdlibRenderer struct {
	quality int
}

func (r stdlibRenderer) Render(ctx context.Context, canonical []byte, filename string) (Rendition, error) {
	select {
	case <-ctx.Done():
		return Rendition{}, ctx.Err()
	default:
	}

	img, err := imaging.Decode(bytes.NewReader(canonical))
	if err != nil {
		return Rendition{}, fmt.Errorf("decode canonical image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Rendition{}, errors.New("canonical image has invalid dimensions")
	}

	delivery, err := encodeJPEG(img, r.quality)
	if err != nil {
		return Rendition{}, fmt.Errorf("delivery: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Rendition{}, err
	}

	preservation, err := encodeJPEG(img, r.quality)
	if err != nil {
		return Rendition{}, fmt.Errorf("preservation: %w", err)
	}

	return Rendition{
		Delivery:     NewArtifact(filename, delivery),
		Preservation: NewArtifact(filename, preservation),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
	}, nil
}
