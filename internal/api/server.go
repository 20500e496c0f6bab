// Package api receives Telegram webhook updates and queues convert requests.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/easyconvert/internal/id"
	"github.com/dunamismax/easyconvert/internal/locale"
	"github.com/dunamismax/easyconvert/internal/queue"
	"github.com/dunamismax/easyconvert/internal/telegram"
)

const defaultWebhookPath = "/api/update"

type queueEnqueuer interface {
	EnqueueConvertMedia(ctx context.Context, payload queue.ConvertMediaPayload) (*asynq.TaskInfo, error)
}

type chatReplier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

type Options struct {
	Logger      *slog.Logger
	Queue       queueEnqueuer
	Replier     chatReplier
	RateLimiter RateLimiter
	Messages    locale.Messages
	WebhookPath string
	SecretToken string
}

type Server struct {
	logger      *slog.Logger
	queueClient queueEnqueuer
	replier     chatReplier
	rateLimiter RateLimiter
	messages    locale.Messages
	webhookPath string
	secretToken string
	metrics     *metrics
	tracer      trace.Tracer
	mux         *http.ServeMux
	newID       func() string
	now         func() time.Time
}

func NewServer(opts Options) (*Server, error) {
	if opts.Queue == nil {
		return nil, errors.New("queue client is required")
	}
	if opts.Replier == nil {
		return nil, errors.New("replier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := strings.TrimSpace(opts.WebhookPath)
	if path == "" {
		path = defaultWebhookPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	s := &Server{
		logger:      logger.With(slog.String("component", "api")),
		queueClient: opts.Queue,
		replier:     opts.Replier,
		rateLimiter: opts.RateLimiter,
		messages:    opts.Messages,
		webhookPath: path,
		secretToken: opts.SecretToken,
		metrics:     newMetrics(),
		tracer:      otel.Tracer("easyconvert/api"),
		mux:         http.NewServeMux(),
		newID:       id.New,
		now:         time.Now,
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.withTracing(s.metrics.withHTTPMetrics(s.mux, s.routeLabel))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST "+s.webhookPath, s.handleUpdate)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdate answers 200 for every well-formed update, so Telegram never
// redelivers one. Problems are reported to the chat instead.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid secret token"})
		return
	}

	var update tgbotapi.Update
	if err := decodeJSON(r, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	in, ok := telegram.ParseUpdate(update)
	if !ok {
		s.metrics.updatesTotal.WithLabelValues(updateIgnored).Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": updateIgnored})
		return
	}

	ctx := r.Context()
	if !in.Supported() {
		s.metrics.updatesTotal.WithLabelValues(updateUnsupported).Inc()
		s.reply(ctx, in.ChatID, s.messages.SendImage())
		writeJSON(w, http.StatusOK, map[string]string{"status": updateUnsupported})
		return
	}

	if !in.HasFile() {
		s.metrics.updatesTotal.WithLabelValues(updateFileMissing).Inc()
		s.reply(ctx, in.ChatID, s.messages.PhotoMissing())
		writeJSON(w, http.StatusOK, map[string]string{"status": updateFileMissing})
		return
	}

	if !s.admit(ctx, in.ChatID) {
		s.metrics.updatesTotal.WithLabelValues(updateRateLimited).Inc()
		s.reply(ctx, in.ChatID, s.messages.RateLimited())
		writeJSON(w, http.StatusOK, map[string]string{"status": updateRateLimited})
		return
	}

	payload := queue.ConvertMediaPayload{
		RequestID:   s.newID(),
		ChatID:      in.ChatID,
		MessageID:   in.MessageID,
		FileID:      in.FileID,
		MimeType:    in.MimeType,
		Size:        in.Size,
		Kind:        in.Kind,
		Sender:      in.Sender(),
		RequestedAt: s.now().UTC(),
	}

	info, err := s.queueClient.EnqueueConvertMedia(ctx, payload)
	if err != nil {
		s.logger.Error(
			"enqueue failed",
			slog.String("request_id", payload.RequestID),
			slog.Int64("chat_id", payload.ChatID),
			slog.Any("error", err),
		)
		s.metrics.updatesTotal.WithLabelValues(updateFailed).Inc()
		s.reply(ctx, in.ChatID, s.messages.ProcessingFailed())
		writeJSON(w, http.StatusOK, map[string]string{"status": updateFailed})
		return
	}

	s.metrics.updatesTotal.WithLabelValues(updateQueued).Inc()
	s.metrics.queueEnqueued.WithLabelValues(info.Queue).Inc()
	s.logger.Info(
		"request queued",
		slog.String("request_id", payload.RequestID),
		slog.Int64("chat_id", payload.ChatID),
		slog.String("sender", payload.Sender),
		slog.String("kind", string(payload.Kind)),
		slog.String("task_id", info.ID),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     updateQueued,
		"request_id": payload.RequestID,
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.secretToken == "" {
		return true
	}
	got := r.Header.Get(telegram.HeaderSecretToken)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secretToken)) == 1
}

func (s *Server) reply(ctx context.Context, chatID int64, text string) {
	if err := s.replier.Reply(ctx, chatID, text); err != nil {
		s.logger.Warn("reply failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (s *Server) routeLabel(path string) string {
	switch {
	case path == s.webhookPath:
		return "webhook"
	case strings.HasPrefix(path, "/healthz"):
		return "/healthz"
	case strings.HasPrefix(path, "/metrics"):
		return "/metrics"
	default:
		return "other"
	}
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
