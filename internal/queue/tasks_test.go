package queue

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dunamismax/easyconvert/internal/domain"
)

func TestConvertMediaTaskRoundTrip(t *testing.T) {
	payload := ConvertMediaPayload{
		RequestID:   "req-123",
		ChatID:      42,
		FileID:      "file-abc",
		MimeType:    "image/heic",
		Size:        2048,
		Kind:        domain.SourceKindDocument,
		Sender:      "@alice",
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewConvertMediaTask(payload)
	if err != nil {
		t.Fatalf("NewConvertMediaTask returned error: %v", err)
	}
	if task.Type() != TypeConvertMedia {
		t.Fatalf("expected task type %q, got %q", TypeConvertMedia, task.Type())
	}

	parsed, err := ParseConvertMediaPayload(task)
	if err != nil {
		t.Fatalf("ParseConvertMediaPayload returned error: %v", err)
	}

	media := parsed.Media()
	if media.RequestID != "req-123" || media.FileRef != "file-abc" || media.ChatID != 42 {
		t.Fatalf("unexpected media: %+v", media)
	}
	if media.Kind != domain.SourceKindDocument || media.Size != 2048 {
		t.Fatalf("unexpected media: %+v", media)
	}
}

func TestNewConvertMediaTaskRejectsIncompletePayload(t *testing.T) {
	if _, err := NewConvertMediaTask(ConvertMediaPayload{RequestID: "req-1", Kind: domain.SourceKindPhoto}); err == nil {
		t.Fatal("expected error for missing file id")
	}
}

func TestClientOptionsNeverRetry(t *testing.T) {
	c := &Client{queue: "default", timeout: time.Minute}
	opts := c.options()

	var sawRetry bool
	for _, opt := range opts {
		if opt.Type() == asynq.MaxRetryOpt {
			sawRetry = true
			if opt.Value() != 0 {
				t.Fatalf("expected max retry 0, got %v", opt.Value())
			}
		}
	}
	if !sawRetry {
		t.Fatal("expected a max retry option")
	}
}
