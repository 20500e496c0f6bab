package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dunamismax/easyconvert/internal/domain"
	"github.com/dunamismax/easyconvert/internal/locale"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type State int

const (
	StateReceived State = iota
	StateValidated
	StateConverted
	StateRendered
	StateDelivered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidated:
		return "validated"
	case StateConverted:
		return "converted"
	case StateRendered:
		return "rendered"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of one request. Exactly one of Rendition and Failure is
// set.
type Outcome struct {
	State      State
	Converter  string
	InputBytes int
	Rendition  *Rendition
	Failure    *Failure
}

func (o Outcome) Canceled() bool {
	return o.Failure != nil && (errors.Is(o.Failure.Err, context.Canceled) || errors.Is(o.Failure.Err, context.DeadlineExceeded))
}

// Fetcher resolves the file reference of validated media to its bytes.
type Fetcher interface {
	Fetch(ctx context.Context, media domain.InboundMedia) ([]byte, error)
}

// Sink is the transport side of a request. Its errors are logged and never
// change the outcome.
type Sink interface {
	Notify(ctx context.Context, media domain.InboundMedia, text string) error
	Deliver(ctx context.Context, media domain.InboundMedia, rendition Rendition) error
	Reject(ctx context.Context, media domain.InboundMedia, failure *Failure) error
}

type Options struct {
	Logger     *slog.Logger
	Policy     Policy
	Fetcher    Fetcher
	Messages   locale.Messages
	Converters []Converter
	Renderer   Renderer
}

type Processor struct {
	logger    *slog.Logger
	validator Validator
	fetcher   Fetcher
	registry  *Registry
	renderer  Renderer
	messages  locale.Messages
	tracer    trace.Tracer
}

func NewProcessor(opts Options) (*Processor, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	quality := opts.Policy.quality()
	converters := opts.Converters
	if converters == nil {
		converters = DefaultConverters(quality)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = newRenderer(quality)
	}

	return &Processor{
		logger:    logger.With(slog.String("component", "pipeline")),
		validator: NewValidator(opts.Policy),
		fetcher:   opts.Fetcher,
		registry:  NewRegistry(opts.Policy.NativeMimeTypes, converters...),
		renderer:  renderer,
		messages:  opts.Messages,
		tracer:    otel.Tracer("easyconvert/pipeline"),
	}, nil
}

func (p *Processor) Validator() Validator {
	return p.validator
}

// Run processes media and hands the outcome to sink: the rendition on success,
// the failure otherwise. Nothing reaches the sink once ctx is done.
func (p *Processor) Run(ctx context.Context, media domain.InboundMedia, sink Sink) Outcome {
	logger := p.logger.With(slog.String("request_id", media.RequestID), slog.Int64("chat_id", media.ChatID))

	out := p.process(ctx, media, func() {
		if err := sink.Notify(ctx, media, p.messages.Processing()); err != nil {
			logger.Warn("notify failed", slog.Any("error", err))
		}
	})

	if ctx.Err() != nil {
		logger.Info("request abandoned", slog.String("state", out.State.String()), slog.Any("error", ctx.Err()))
		return out
	}

	if out.Failure != nil {
		if err := sink.Reject(ctx, media, out.Failure); err != nil {
			logger.Error("reject delivery failed", slog.Any("error", err))
		}
		return out
	}

	if err := sink.Deliver(ctx, media, *out.Rendition); err != nil {
		logger.Error("rendition delivery failed", slog.Any("error", err))
	}
	out.State = StateDelivered
	return out
}

// Process runs validation, fetch, conversion and rendering and stops in
// StateRendered or StateFailed.
func (p *Processor) Process(ctx context.Context, media domain.InboundMedia) Outcome {
	return p.process(ctx, media, nil)
}

func (p *Processor) process(ctx context.Context, media domain.InboundMedia, onConverted func()) (out Outcome) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	span.SetAttributes(
		attribute.String("request.id", media.RequestID),
		attribute.String("media.kind", string(media.Kind)),
		attribute.String("media.mime_type", media.MimeType),
		attribute.Int64("media.declared_size", media.Size),
	)
	defer span.End()

	logger := p.logger.With(slog.String("request_id", media.RequestID), slog.Int64("chat_id", media.ChatID))

	out.State = StateReceived
	defer func() {
		if r := recover(); r != nil {
			out = p.fail(out, FailureUnknown, "", p.messages.ProcessingFailed(), fmt.Errorf("panic: %v", r))
		}
		if out.Failure != nil {
			span.RecordError(out.Failure)
			span.SetStatus(codes.Error, string(out.Failure.Kind))
			p.logFailure(logger, out)
			return
		}
		span.SetStatus(codes.Ok, out.State.String())
	}()

	if v := p.validator.Validate(media); !v.OK {
		return p.fail(out, FailureInvalidInput, v.Reason, p.validationMessage(v, media.MimeType), nil)
	}
	out.State = StateValidated

	source, err := p.fetch(ctx, media)
	if err != nil {
		return p.fail(out, FailureUnknown, "", p.messages.ProcessingFailed(), fmt.Errorf("fetch stage: %w", err))
	}
	out.InputBytes = len(source)
	if v := p.validator.ValidateSize(int64(len(source))); !v.OK {
		return p.fail(out, FailureInvalidInput, v.Reason, p.validationMessage(v, media.MimeType), nil)
	}

	converter, err := p.registry.Resolve(media.MimeType)
	if err != nil {
		return p.fail(out, FailureConversionError, "no converter", p.messages.NoConverter(), err)
	}
	out.Converter = converter.Name()

	converted, err := p.convert(ctx, converter, source)
	if err != nil {
		if isContextErr(err) {
			return p.fail(out, FailureUnknown, "", p.messages.ProcessingFailed(), err)
		}
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			return p.fail(out, FailureConversionError, convErr.UserMessage(), p.messages.ConversionFailed(convErr.Format), err)
		}
		format := strings.ToUpper(converter.Name())
		return p.fail(out, FailureConversionError, "", p.messages.ConversionFailed(format), err)
	}
	out.State = StateConverted
	if onConverted != nil {
		onConverted()
	}

	rendition, err := p.render(ctx, converted.Data, outputFilename(converted, media.Kind))
	if err != nil {
		if isContextErr(err) {
			return p.fail(out, FailureUnknown, "", p.messages.ProcessingFailed(), err)
		}
		return p.fail(out, FailureRenderFailed, "", p.messages.RenderFailed(), err)
	}

	out.State = StateRendered
	out.Rendition = &rendition
	logger.Info(
		"rendered",
		slog.String("converter", out.Converter),
		slog.Int("input_bytes", out.InputBytes),
		slog.Int("output_bytes", rendition.Bytes()),
		slog.Int("width", rendition.Width),
		slog.Int("height", rendition.Height),
	)
	return out
}

func (p *Processor) fetch(ctx context.Context, media domain.InboundMedia) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.fetch")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.fetcher.Fetch(ctx, media)
}

func (p *Processor) convert(ctx context.Context, converter Converter, source []byte) (Converted, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.convert", trace.WithAttributes(attribute.String("converter", converter.Name())))
	defer span.End()

	return converter.Convert(ctx, source)
}

func (p *Processor) render(ctx context.Context, canonical []byte, filename string) (Rendition, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.render")
	defer span.End()

	return p.renderer.Render(ctx, canonical, filename)
}

func (p *Processor) fail(out Outcome, kind FailureKind, reason, message string, err error) Outcome {
	out.State = StateFailed
	out.Rendition = nil
	out.Failure = &Failure{
		Kind:    kind,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
	return out
}

func (p *Processor) logFailure(logger *slog.Logger, out Outcome) {
	attrs := []any{
		slog.String("kind", string(out.Failure.Kind)),
		slog.String("reason", out.Failure.Reason),
		slog.String("converter", out.Converter),
	}
	if out.Failure.Err != nil {
		attrs = append(attrs, slog.Any("error", out.Failure.Err))
	}
	if out.Failure.Kind == FailureInvalidInput {
		logger.Info("request rejected", attrs...)
		return
	}
	logger.Error("request failed", attrs...)
}

func (p *Processor) validationMessage(v ValidationOutcome, mime string) string {
	switch v.Code {
	case ValidationEmpty:
		return p.messages.FileEmpty()
	case ValidationTooLarge:
		return p.messages.FileTooLarge(p.validator.MaxMB())
	case ValidationMissing:
		return p.messages.MimeMissing(p.validator.AllowedMimeTypes())
	default:
		return p.messages.MimeUnsupported(mime, p.validator.AllowedMimeTypes())
	}
}

func outputFilename(converted Converted, kind domain.SourceKind) string {
	name := strings.TrimSpace(converted.OutputName)
	if name == "" {
		name = "compressed_from_" + sanitizePathToken(string(kind))
	}
	return name + ".jpg"
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
