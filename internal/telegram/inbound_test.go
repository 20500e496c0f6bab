package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dunamismax/easyconvert/internal/domain"
)

func TestParseUpdatePhotoPicksLargest(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 9, UserName: "alice"},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 90, FileSize: 1000},
			{FileID: "large", Width: 1280, Height: 1280, FileSize: 90000},
			{FileID: "medium", Width: 320, Height: 320, FileSize: 9000},
		},
	}}

	in, ok := ParseUpdate(update)
	if !ok {
		t.Fatal("expected message update to parse")
	}
	if in.Kind != domain.SourceKindPhoto {
		t.Fatalf("expected photo kind, got %q", in.Kind)
	}
	if in.FileID != "large" {
		t.Fatalf("expected largest photo, got %q", in.FileID)
	}
	if in.MimeType != domain.MimePhoto {
		t.Fatalf("expected %q, got %q", domain.MimePhoto, in.MimeType)
	}
	if in.Size != 90000 || in.ChatID != 42 {
		t.Fatalf("unexpected inbound: %+v", in)
	}
	if in.Sender() != "@alice" {
		t.Fatalf("expected @alice, got %q", in.Sender())
	}
}

func TestParseUpdateDocument(t *testing.T) {
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 5},
		From: &tgbotapi.User{ID: 77},
		Document: &tgbotapi.Document{
			FileID:   "doc-1",
			MimeType: "image/heic",
			FileSize: 2048,
		},
	}}

	in, ok := ParseUpdate(update)
	if !ok || !in.Supported() {
		t.Fatalf("expected supported document, got %+v", in)
	}

	media := in.Media("req-1")
	if media.Kind != domain.SourceKindDocument || media.FileRef != "doc-1" || media.MimeType != "image/heic" {
		t.Fatalf("unexpected media: %+v", media)
	}
	if media.RequestID != "req-1" || media.Size != 2048 || media.ChatID != 5 {
		t.Fatalf("unexpected media: %+v", media)
	}
	if in.Sender() != "77" {
		t.Fatalf("expected numeric sender, got %q", in.Sender())
	}
}

func TestParseUpdateTextIsUnsupported(t *testing.T) {
	in, ok := ParseUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 1},
		Text: "hello",
	}})
	if !ok {
		t.Fatal("expected text message to parse")
	}
	if in.Supported() {
		t.Fatalf("expected unsupported inbound, got %+v", in)
	}

	if _, ok := ParseUpdate(tgbotapi.Update{}); ok {
		t.Fatal("expected update without message to be ignored")
	}
}

func TestParseUpdatePhotoWithoutFileID(t *testing.T) {
	in, ok := ParseUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 3},
		Photo: []tgbotapi.PhotoSize{{Width: 90, Height: 90}},
	}})
	if !ok || !in.Supported() {
		t.Fatalf("expected supported photo, got %+v", in)
	}
	if in.HasFile() {
		t.Fatalf("expected no file, got %+v", in)
	}

	in.FileID = "f1"
	if !in.HasFile() {
		t.Fatal("expected file id to be reported")
	}
}

func TestPickLargestPhotoFallsBackToArea(t *testing.T) {
	best := pickLargestPhoto([]tgbotapi.PhotoSize{
		{FileID: "a", Width: 100, Height: 100},
		{FileID: "b", Width: 800, Height: 600},
	})
	if best.FileID != "b" {
		t.Fatalf("expected b, got %q", best.FileID)
	}
	if got := pickLargestPhoto(nil); got.FileID != "" {
		t.Fatalf("expected zero photo, got %+v", got)
	}
}
