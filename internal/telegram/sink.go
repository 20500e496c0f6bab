package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dunamismax/easyconvert/internal/domain"
	"github.com/dunamismax/easyconvert/internal/locale"
	"github.com/dunamismax/easyconvert/internal/pipeline"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sink sends pipeline results to the originating chat: the delivery artifact
// as a photo and the preservation artifact as a document.
type Sink struct {
	bot      botSender
	messages locale.Messages
	logger   *slog.Logger
}

func NewSink(bot botSender, messages locale.Messages, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{bot: bot, messages: messages, logger: logger}
}

func (s *Sink) Notify(ctx context.Context, media domain.InboundMedia, text string) error {
	return s.Reply(ctx, media.ChatID, text)
}

func (s *Sink) Deliver(ctx context.Context, media domain.InboundMedia, rendition pipeline.Rendition) error {
	photo := tgbotapi.NewPhoto(media.ChatID, tgbotapi.FileReader{
		Name:   rendition.Delivery.Filename,
		Reader: rendition.Delivery.Reader(),
	})
	photo.Caption = s.messages.DeliveryCaption()
	if err := s.send(ctx, photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	document := tgbotapi.NewDocument(media.ChatID, tgbotapi.FileReader{
		Name:   rendition.Preservation.Filename,
		Reader: rendition.Preservation.Reader(),
	})
	document.Caption = s.messages.PreservationCaption()
	if err := s.send(ctx, document); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	s.logger.Info(
		"rendition sent",
		slog.String("request_id", media.RequestID),
		slog.Int64("chat_id", media.ChatID),
		slog.String("filename", rendition.Delivery.Filename),
	)
	return nil
}

func (s *Sink) Reject(ctx context.Context, media domain.InboundMedia, failure *pipeline.Failure) error {
	return s.Reply(ctx, media.ChatID, failure.Message)
}

// Reply sends a plain text message to chatID.
func (s *Sink) Reply(ctx context.Context, chatID int64, text string) error {
	if err := s.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (s *Sink) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Send(c)
	return redactURL(err)
}
