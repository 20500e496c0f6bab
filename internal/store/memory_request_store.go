package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dunamismax/easyconvert/internal/domain"
)

type MemoryRequestStore struct {
	mu      sync.RWMutex
	entries map[string]domain.RequestLog
	order   []string
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{
		entries: make(map[string]domain.RequestLog),
	}
}

// Record inserts entry, or replaces an earlier entry with the same id.
func (s *MemoryRequestStore) Record(_ context.Context, entry domain.RequestLog) error {
	if strings.TrimSpace(entry.ID) == "" {
		return ErrInvalidRequestLog
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = entry
	return nil
}

func (s *MemoryRequestStore) Get(_ context.Context, id string) (domain.RequestLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok, nil
}

// ListByChat returns the newest entries of chatID first.
func (s *MemoryRequestStore) ListByChat(_ context.Context, chatID int64, limit int) ([]domain.RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.RequestLog
	for _, id := range slices.Backward(s.order) {
		entry := s.entries[id]
		if entry.ChatID != chatID {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
