// Package worker consumes convert tasks, runs them through the pipeline and
// records the outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/easyconvert/internal/domain"
	"github.com/dunamismax/easyconvert/internal/pipeline"
	"github.com/dunamismax/easyconvert/internal/queue"
	"github.com/dunamismax/easyconvert/internal/store"
)

type mediaRunner interface {
	Run(ctx context.Context, media domain.InboundMedia, sink pipeline.Sink) pipeline.Outcome
}

// Handler runs one convert task at a time per asynq slot, with at most
// maxActive tasks inside the pipeline.
type Handler struct {
	logger   *slog.Logger
	runner   mediaRunner
	sink     pipeline.Sink
	requests store.RequestStore
	metrics  *metrics
	tracer   trace.Tracer
	sem      chan struct{}
	now      func() time.Time
}

func NewHandler(logger *slog.Logger, runner mediaRunner, sink pipeline.Sink, requests store.RequestStore, maxActive int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger.With(slog.String("component", "worker")),
		runner:   runner,
		sink:     sink,
		requests: requests,
		metrics:  newMetrics(),
		tracer:   otel.Tracer("easyconvert/worker"),
		sem:      make(chan struct{}, max(1, maxActive)),
		now:      time.Now,
	}
}

func (h *Handler) MetricsHandler() http.Handler {
	return h.metrics.Handler()
}

func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseConvertMediaPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}
	media := payload.Media()

	ctx, span := h.tracer.Start(ctx, "worker.convert_media", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("request.id", payload.RequestID),
		attribute.String("media.kind", string(payload.Kind)),
		attribute.Int64("chat.id", payload.ChatID),
	)
	defer span.End()

	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	h.metrics.activeRequests.Inc()
	defer func() {
		<-h.sem
		h.metrics.activeRequests.Dec()
	}()

	h.logger.Info(
		"processing request",
		slog.String("request_id", payload.RequestID),
		slog.Int64("chat_id", payload.ChatID),
		slog.String("sender", payload.Sender),
		slog.String("kind", string(payload.Kind)),
		slog.String("mime_type", payload.MimeType),
	)

	startedAt := h.now()
	outcome := h.runner.Run(ctx, media, h.sink)
	elapsed := h.now().Sub(startedAt)

	entry := requestLogFor(media, outcome, elapsed, startedAt)
	h.observe(entry, elapsed)
	h.record(ctx, entry)

	if outcome.Failure != nil {
		span.RecordError(outcome.Failure)
		span.SetStatus(codes.Error, string(outcome.Failure.Kind))
		if outcome.Canceled() {
			return fmt.Errorf("request %s abandoned: %w", payload.RequestID, errors.Join(outcome.Failure, asynq.SkipRetry))
		}
		return fmt.Errorf("request %s failed: %v: %w", payload.RequestID, outcome.Failure, asynq.SkipRetry)
	}

	span.SetStatus(codes.Ok, "delivered")
	return nil
}

func (h *Handler) observe(entry domain.RequestLog, elapsed time.Duration) {
	kind := string(entry.SourceKind)
	h.metrics.requestsTotal.WithLabelValues(kind, entry.Status).Inc()
	h.metrics.requestDuration.WithLabelValues(kind, entry.Status).Observe(elapsed.Seconds())
	h.metrics.inputBytesTotal.Add(float64(entry.InputBytes))
	if entry.Status == domain.RequestStatusFailed {
		h.metrics.failuresTotal.WithLabelValues(entry.FailureKind).Inc()
		return
	}
	h.metrics.outputBytesTotal.Add(float64(entry.OutputBytes))
	h.metrics.pixelsProcessedTotal.Add(float64(entry.Width * entry.Height))
}

func (h *Handler) record(ctx context.Context, entry domain.RequestLog) {
	if h.requests == nil {
		return
	}
	// The request context may already be done; the audit entry is still wanted.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.requests.Record(ctx, entry); err != nil {
		h.logger.Error("request log write failed", slog.String("request_id", entry.ID), slog.Any("error", err))
	}
}

func requestLogFor(media domain.InboundMedia, outcome pipeline.Outcome, elapsed time.Duration, startedAt time.Time) domain.RequestLog {
	entry := domain.RequestLog{
		ID:            media.RequestID,
		ChatID:        media.ChatID,
		SourceKind:    media.Kind,
		MimeType:      media.MimeType,
		DeclaredSize:  media.Size,
		Status:        domain.RequestStatusDelivered,
		InputBytes:    int64(outcome.InputBytes),
		ComputeTimeMS: max(elapsed.Milliseconds(), 1),
		CreatedAt:     startedAt.UTC(),
	}
	if outcome.Failure != nil {
		entry.Status = domain.RequestStatusFailed
		entry.FailureKind = string(outcome.Failure.Kind)
		return entry
	}
	if outcome.Rendition != nil {
		entry.OutputBytes = int64(outcome.Rendition.Bytes())
		entry.Width = outcome.Rendition.Width
		entry.Height = outcome.Rendition.Height
	}
	return entry
}
