package api

import (
	"context"
	"log/slog"

	"github.com/dunamismax/easyconvert/internal/ratelimit"
)

type RateLimiter interface {
	Allow(ctx context.Context, chatID int64) (ratelimit.Decision, error)
}

// admit fails open: a limiter error lets the request through.
func (s *Server) admit(ctx context.Context, chatID int64) bool {
	if s.rateLimiter == nil {
		return true
	}

	decision, err := s.rateLimiter.Allow(ctx, chatID)
	if err != nil {
		s.logger.Warn("rate limiter check failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return true
	}
	if decision.Allowed {
		return true
	}

	s.metrics.rateLimitRejected.Inc()
	s.logger.Info(
		"chat rate limited",
		slog.Int64("chat_id", chatID),
		slog.Int("retry_after_seconds", decision.RetryAfterSeconds()),
	)
	return false
}
