// Package telegram is the chat transport: it turns webhook updates into
// inbound media, downloads files and sends results back.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dunamismax/easyconvert/internal/locale"
)

// HeaderSecretToken is set by Telegram on webhook calls when a secret token was
// registered with setWebhook.
const HeaderSecretToken = "X-Telegram-Bot-Api-Secret-Token"

type Config struct {
	BotToken        string
	Debug           bool
	DownloadTimeout time.Duration
	MaxBytes        int64
}

// Client bundles the bot API handle with the HTTP client used for file
// downloads.
type Client struct {
	bot      *tgbotapi.BotAPI
	http     *http.Client
	logger   *slog.Logger
	maxBytes int64
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("adapter", "telegram"))

	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}

	if err := tgbotapi.SetLogger(&slogBotLogger{log: logger}); err != nil {
		logger.Warn("set bot logger failed", slog.Any("error", err))
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	bot.Debug = cfg.Debug

	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger.Info("bot authorized", slog.String("username", bot.Self.UserName))
	return &Client{
		bot:      bot,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		maxBytes: cfg.MaxBytes,
	}, nil
}

func (c *Client) Fetcher() *Downloader {
	return NewDownloader(c.bot, c.http, c.maxBytes)
}

func (c *Client) Sink(messages locale.Messages) *Sink {
	return NewSink(c.bot, messages, c.logger)
}

// SetWebhook registers url with Telegram. The secret token, when set, is
// echoed back in HeaderSecretToken on every update.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", url)
	params.AddNonEmpty("secret_token", secretToken)
	params.AddNonEmpty("allowed_updates", `["message"]`)

	resp, err := c.bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	c.logger.Info("webhook registered", slog.String("url", url))
	return nil
}
