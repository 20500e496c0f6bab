package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dunamismax/easyconvert/internal/domain"
	"github.com/dunamismax/easyconvert/internal/id"
	"github.com/dunamismax/easyconvert/internal/locale"
	"github.com/dunamismax/easyconvert/internal/pipeline"
)

var extensionMimeTypes = map[string]string{
	".heic": "image/heic",
	".heif": "image/heif",
	".jpg":  "image/jpg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".png":  "image/png",
}

type mediaFlags struct {
	mimeType string
	kind     string
}

func (f *mediaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mimeType, "mime", "", "Declared MIME type (default: guessed from the extension)")
	cmd.Flags().StringVar(&f.kind, "kind", string(domain.SourceKindDocument), "Source kind (photo or document)")
}

// media describes path as it would arrive from the chat.
func (f *mediaFlags) media(path string) (domain.InboundMedia, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.InboundMedia{}, fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return domain.InboundMedia{}, fmt.Errorf("%s is a directory", path)
	}

	kind := domain.SourceKind(strings.ToLower(strings.TrimSpace(f.kind)))
	mimeType := f.mimeType
	switch {
	case mimeType != "":
	case kind == domain.SourceKindPhoto:
		mimeType = domain.MimePhoto
	default:
		mimeType = extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
	}

	media := domain.InboundMedia{
		RequestID: id.New(),
		FileRef:   path,
		MimeType:  mimeType,
		Size:      info.Size(),
		Kind:      kind,
	}
	if err := media.Validate(); err != nil {
		return domain.InboundMedia{}, err
	}
	return media, nil
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  mediaFlags
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert an image and write the delivery and preservation JPEGs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			media, err := flags.media(path)
			if err != nil {
				return err
			}

			if err := pipeline.Startup(); err != nil {
				return err
			}
			defer pipeline.Shutdown()

			policy := ctx.policy()
			processor, err := pipeline.NewProcessor(pipeline.Options{
				Logger:   ctx.log,
				Policy:   policy,
				Fetcher:  pipeline.LocalFileFetcher{MaxBytes: policy.MaxBytes},
				Messages: locale.New(ctx.cfg.Locale),
			})
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			sink := pipeline.DirectorySink{OutputDir: outDir, Out: cmd.OutOrStdout()}
			outcome := processor.Run(runCtx, media, sink)
			if outcome.Failure != nil {
				return outcome.Failure
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converter: %s, %dx%d\n", outcome.Converter, outcome.Rendition.Width, outcome.Rendition.Height)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "converted", "Output directory")
	return cmd
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var flags mediaFlags

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check whether an image would be accepted, without converting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := flags.media(args[0])
			if err != nil {
				return err
			}

			validator := pipeline.NewValidator(ctx.policy())
			// The size comes from the file itself, so zero is a real empty file.
			outcome := validator.ValidateSize(media.Size)
			if outcome.OK {
				outcome = validator.Validate(media)
			}
			if !outcome.OK {
				return fmt.Errorf("rejected (%s): %s", outcome.Code, outcome.Reason)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s, %d bytes, limit %d MB\n", media.MimeType, media.Size, validator.MaxMB())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
