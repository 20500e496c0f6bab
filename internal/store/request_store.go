// Package store keeps the audit log of processed requests.
package store

import (
	"context"
	"errors"

	"github.com/dunamismax/easyconvert/internal/domain"
)

var ErrInvalidRequestLog = errors.New("request log requires an id")

type RequestStore interface {
	Record(ctx context.Context, entry domain.RequestLog) error
	Get(ctx context.Context, id string) (domain.RequestLog, bool, error)
	ListByChat(ctx context.Context, chatID int64, limit int) ([]domain.RequestLog, error)
}
