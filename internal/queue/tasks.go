// Package queue carries convert requests from the webhook receiver to the
// worker over asynq.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dunamismax/easyconvert/internal/domain"
)

const TypeConvertMedia = "media:convert"

type ConvertMediaPayload struct {
	RequestID   string            `json:"request_id"`
	ChatID      int64             `json:"chat_id"`
	MessageID   int               `json:"message_id,omitempty"`
	FileID      string            `json:"file_id"`
	MimeType    string            `json:"mime_type,omitempty"`
	Size        int64             `json:"size,omitempty"`
	Kind        domain.SourceKind `json:"kind"`
	Sender      string            `json:"sender,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
}

func (p ConvertMediaPayload) Media() domain.InboundMedia {
	return domain.InboundMedia{
		RequestID: p.RequestID,
		ChatID:    p.ChatID,
		FileRef:   p.FileID,
		MimeType:  p.MimeType,
		Size:      p.Size,
		Kind:      p.Kind,
	}
}

func NewConvertMediaTask(payload ConvertMediaPayload) (*asynq.Task, error) {
	if err := payload.Media().Validate(); err != nil {
		return nil, fmt.Errorf("invalid convert payload: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal convert payload: %w", err)
	}
	return asynq.NewTask(TypeConvertMedia, body), nil
}

func ParseConvertMediaPayload(task *asynq.Task) (ConvertMediaPayload, error) {
	var payload ConvertMediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ConvertMediaPayload{}, fmt.Errorf("unmarshal convert payload: %w", err)
	}
	return payload, nil
}
