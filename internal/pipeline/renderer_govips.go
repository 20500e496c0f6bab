//go:build govips && cgo

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

type govipsRenderer struct {
	quality int
}

func (r govipsRenderer) Render(ctx context.Context, canonical []byte, filename string) (Rendition, error) {
	select {
	case <-ctx.Done():
		return Rendition{}, ctx.Err()
	default:
	}

	img, err := vips.NewImageFromBuffer(canonical)
	if err != nil {
		return Rendition{}, fmt.Errorf("decode canonical image: %w", err)
	}
	defer img.Close()

	if img.Width() <= 0 || img.Height() <= 0 {
		return Rendition{}, errors.New("canonical image has invalid dimensions")
	}

	delivery, err := exportGovipsJPEG(img, r.quality)
	if err != nil {
		return Rendition{}, fmt.Errorf("delivery: %w", err)
	}
	preservation, err := exportGovipsJPEG(img, r.quality)
	if err != nil {
		return Rendition{}, fmt.Errorf("preservation: %w", err)
	}

	return Rendition{
		Delivery:     NewArtifact(filename, delivery),
		Preservation: NewArtifact(filename, preservation),
		Width:        img.Width(),
		Height:       img.Height(),
	}, nil
}

type govipsHEICConverter struct {
	quality int
}

func (govipsHEICConverter) Name() string {
	return "heic"
}

func (govipsHEICConverter) CanHandle(mimeType string) bool {
	return matchesMimeType(heicMimeTypes, mimeType)
}

func (c govipsHEICConverter) Convert(ctx context.Context, src []byte) (Converted, error) {
	select {
	case <-ctx.Done():
		return Converted{}, ctx.Err()
	default:
	}

	img, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return Converted{}, &ConversionError{Format: "HEIC", Err: fmt.Errorf("decode: %w", err)}
	}
	defer img.Close()

	if img.Format() != vips.ImageTypeHEIF {
		return Converted{}, &ConversionError{Format: "HEIC", Err: fmt.Errorf("payload is not heif (type=%d)", img.Format())}
	}

	data, err := exportGovipsJPEG(img, c.quality)
	if err != nil {
		return Converted{}, &ConversionError{Format: "HEIC", Err: err}
	}
	return Converted{Data: data, OutputName: "converted_from_heic"}, nil
}

func exportGovipsJPEG(img *vips.ImageRef, quality int) ([]byte, error) {
	params := vips.NewJpegExportParams()
	if quality > 0 && quality <= 100 {
		params.Quality = quality
	}
	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return data, nil
}
