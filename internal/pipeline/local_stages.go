package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dunamismax/easyconvert/internal/domain"
)

// LocalFileFetcher reads media whose FileRef is a path on disk. At most
// MaxBytes+1 bytes are read so an oversized file is caught by the size check
// without loading all of it.
type LocalFileFetcher struct {
	MaxBytes int64
}

func (f LocalFileFetcher) Fetch(ctx context.Context, media domain.InboundMedia) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	file, err := os.Open(media.FileRef)
	if err != nil {
		return nil, fmt.Errorf("open input file %s: %w", media.FileRef, err)
	}
	defer file.Close()

	var r io.Reader = file
	if f.MaxBytes > 0 {
		r = io.LimitReader(file, f.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", media.FileRef, err)
	}
	return data, nil
}

// DirectorySink writes both artifacts under OutputDir/<request id>/ and reports
// notices and failures as lines on Out.
type DirectorySink struct {
	OutputDir string
	Out       io.Writer
}

func (s DirectorySink) Notify(_ context.Context, _ domain.InboundMedia, text string) error {
	return s.println(text)
}

func (s DirectorySink) Deliver(_ context.Context, media domain.InboundMedia, rendition Rendition) error {
	if strings.TrimSpace(s.OutputDir) == "" {
		return errors.New("output directory is required")
	}

	requestDir := filepath.Join(s.OutputDir, sanitizePathToken(media.RequestID))
	outputs := []struct {
		dir      string
		artifact Artifact
	}{
		{dir: "delivery", artifact: rendition.Delivery},
		{dir: "preservation", artifact: rendition.Preservation},
	}
	for _, o := range outputs {
		dir := filepath.Join(requestDir, o.dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		fullPath := filepath.Join(dir, filepath.Base(o.artifact.Filename))
		if err := os.WriteFile(fullPath, o.artifact.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s artifact: %w", o.dir, err)
		}
		if err := s.println(fmt.Sprintf("%s: %s (%d bytes)", o.dir, fullPath, o.artifact.Len())); err != nil {
			return err
		}
	}
	return nil
}

func (s DirectorySink) Reject(_ context.Context, _ domain.InboundMedia, failure *Failure) error {
	return s.println(failure.Message)
}

func (s DirectorySink) println(text string) error {
	if s.Out == nil {
		return nil
	}
	_, err := fmt.Fprintln(s.Out, text)
	return err
}
