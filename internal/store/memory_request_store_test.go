package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dunamismax/easyconvert/internal/domain"
)

func TestMemoryRequestStoreRecordAndGet(t *testing.T) {
	s := NewMemoryRequestStore()
	ctx := context.Background()

	entry := domain.RequestLog{
		ID:         "req-1",
		ChatID:     10,
		SourceKind: domain.SourceKindPhoto,
		Status:     domain.RequestStatusDelivered,
	}
	if err := s.Record(ctx, entry); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, ok, err := s.Get(ctx, "req-1")
	if err != nil || !ok {
		t.Fatalf("expected entry, ok=%v err=%v", ok, err)
	}
	if got.Status != domain.RequestStatusDelivered || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", got)
	}

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Fatal("expected missing entry")
	}
	if err := s.Record(ctx, domain.RequestLog{}); !errors.Is(err, ErrInvalidRequestLog) {
		t.Fatalf("expected ErrInvalidRequestLog, got %v", err)
	}
}

func TestMemoryRequestStoreListByChatNewestFirst(t *testing.T) {
	s := NewMemoryRequestStore()
	ctx := context.Background()

	for _, entry := range []domain.RequestLog{
		{ID: "a", ChatID: 1},
		{ID: "b", ChatID: 2},
		{ID: "c", ChatID: 1},
		{ID: "d", ChatID: 1},
	} {
		if err := s.Record(ctx, entry); err != nil {
			t.Fatalf("record %s: %v", entry.ID, err)
		}
	}

	got, err := s.ListByChat(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d" || got[1].ID != "c" {
		t.Fatalf("unexpected order %+v", got)
	}

	// Replacing an entry keeps its original position.
	if err := s.Record(ctx, domain.RequestLog{ID: "a", ChatID: 1, Status: domain.RequestStatusFailed}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, _ = s.ListByChat(ctx, 1, 0)
	if len(got) != 3 || got[2].ID != "a" || got[2].Status != domain.RequestStatusFailed {
		t.Fatalf("unexpected entries %+v", got)
	}
}
