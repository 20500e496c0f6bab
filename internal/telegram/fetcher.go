package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dunamismax/easyconvert/internal/domain"
)

type fileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Downloader resolves a Telegram file id and downloads the file. It is the
// pipeline fetcher of the bot.
type Downloader struct {
	files    fileURLResolver
	http     *http.Client
	maxBytes int64
}

func NewDownloader(files fileURLResolver, client *http.Client, maxBytes int64) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{files: files, http: client, maxBytes: maxBytes}
}

func (d *Downloader) Fetch(ctx context.Context, media domain.InboundMedia) ([]byte, error) {
	fileID := strings.TrimSpace(media.FileRef)
	if fileID == "" {
		return nil, fmt.Errorf("file id is required")
	}

	fileURL, err := d.files.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, redactURL(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", redactURL(err))
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, redactURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download file %s: status=%d", fileID, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if d.maxBytes > 0 {
		body = io.LimitReader(resp.Body, d.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	return data, nil
}

// redactURL drops the request URL from transport errors. Bot API and file URLs
// embed the bot token.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}
