package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dunamismax/easyconvert/internal/domain"
)

// Inbound is the part of a Telegram message the pipeline cares about. Kind is
// empty when the message carries neither a photo nor a document.
type Inbound struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	Kind      domain.SourceKind
	FileID    string
	MimeType  string
	Size      int64
}

func (in Inbound) Supported() bool {
	return in.Kind != ""
}

// HasFile reports whether the platform supplied a file id for the image.
func (in Inbound) HasFile() bool {
	return strings.TrimSpace(in.FileID) != ""
}

func (in Inbound) Media(requestID string) domain.InboundMedia {
	return domain.InboundMedia{
		RequestID: requestID,
		ChatID:    in.ChatID,
		FileRef:   in.FileID,
		MimeType:  in.MimeType,
		Size:      in.Size,
		Kind:      in.Kind,
	}
}

// ParseUpdate extracts the inbound image of a message update. ok is false for
// updates that carry no message at all.
func ParseUpdate(update tgbotapi.Update) (in Inbound, ok bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return Inbound{}, false
	}

	in = Inbound{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	if msg.From != nil {
		in.UserID = msg.From.ID
		in.Username = strings.TrimSpace(msg.From.UserName)
	}

	switch {
	case len(msg.Photo) > 0:
		photo := pickLargestPhoto(msg.Photo)
		in.Kind = domain.SourceKindPhoto
		in.FileID = photo.FileID
		in.MimeType = domain.MimePhoto
		in.Size = int64(photo.FileSize)
	case msg.Document != nil:
		in.Kind = domain.SourceKindDocument
		in.FileID = msg.Document.FileID
		in.MimeType = strings.TrimSpace(msg.Document.MimeType)
		in.Size = int64(msg.Document.FileSize)
	}
	return in, true
}

func (in Inbound) Sender() string {
	if in.Username != "" {
		return "@" + in.Username
	}
	return strconv.FormatInt(in.UserID, 10)
}

// pickLargestPhoto prefers the biggest file and falls back to pixel area when
// sizes are missing.
func pickLargestPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	if len(items) == 0 {
		return tgbotapi.PhotoSize{}
	}
	best := items[0]
	for _, item := range items[1:] {
		if item.FileSize > best.FileSize {
			best = item
			continue
		}
		if item.FileSize == best.FileSize && item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}
