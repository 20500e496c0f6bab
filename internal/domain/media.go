package domain

import (
	"errors"
	"strings"
	"time"
)

type SourceKind string

const (
	SourceKindPhoto    SourceKind = "photo"
	SourceKindDocument SourceKind = "document"

	// MimePhoto is declared for chat photos, which the platform always
	// re-encodes to JPEG before delivery.
	MimePhoto = "image/jpg"
)

const (
	RequestStatusDelivered = "delivered"
	RequestStatusFailed    = "failed"
)

// InboundMedia is one image submitted by a chat. FileRef is resolved to bytes
// by the pipeline fetcher only after the declared metadata passed validation.
type InboundMedia struct {
	RequestID string
	ChatID    int64
	FileRef   string
	MimeType  string
	Size      int64
	Kind      SourceKind
}

func (m InboundMedia) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return errors.New("request_id is required")
	}
	if strings.TrimSpace(m.FileRef) == "" {
		return errors.New("file_ref is required")
	}
	switch m.Kind {
	case SourceKindPhoto, SourceKindDocument:
	default:
		return errors.New("kind must be photo or document")
	}
	return nil
}

// RequestLog is the audit record of one processed request. Image bytes are never
// part of it.
type RequestLog struct {
	ID            string
	ChatID        int64
	SourceKind    SourceKind
	MimeType      string
	DeclaredSize  int64
	Status        string
	FailureKind   string
	InputBytes    int64
	OutputBytes   int64
	Width         int
	Height        int
	ComputeTimeMS int64
	CreatedAt     time.Time
}
