package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dunamismax/easyconvert/internal/domain"
)

type staticResolver struct {
	url string
	err error
}

func (s staticResolver) GetFileDirectURL(string) (string, error) {
	return s.url, s.err
}

func TestDownloaderFetch(t *testing.T) {
	payload := []byte("image-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	d := NewDownloader(staticResolver{url: srv.URL + "/file"}, srv.Client(), 1024)
	data, err := d.Fetch(context.Background(), domain.InboundMedia{FileRef: "f1"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestDownloaderFetchStopsAfterLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{'x'}, 64))
	}))
	defer srv.Close()

	d := NewDownloader(staticResolver{url: srv.URL}, srv.Client(), 10)
	data, err := d.Fetch(context.Background(), domain.InboundMedia{FileRef: "f1"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data) != 11 {
		t.Fatalf("expected limit+1 bytes, got %d", len(data))
	}
}

func TestDownloaderFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(staticResolver{url: srv.URL}, srv.Client(), 0)
	if _, err := d.Fetch(context.Background(), domain.InboundMedia{FileRef: "f1"}); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := d.Fetch(context.Background(), domain.InboundMedia{}); err == nil {
		t.Fatal("expected error for empty file id")
	}

	resolveErr := errors.New("bad file")
	d = NewDownloader(staticResolver{err: resolveErr}, nil, 0)
	if _, err := d.Fetch(context.Background(), domain.InboundMedia{FileRef: "f1"}); !errors.Is(err, resolveErr) {
		t.Fatalf("expected resolve error, got %v", err)
	}
}

func TestDownloaderFetchErrorOmitsFileURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	fileURL := srv.URL + "/file/bot123456:SECRET-TOKEN/photos/a.jpg"
	srv.Close()

	d := NewDownloader(staticResolver{url: fileURL}, nil, 0)
	_, err := d.Fetch(context.Background(), domain.InboundMedia{FileRef: "f1"})
	if err == nil {
		t.Fatal("expected dial error")
	}
	if strings.Contains(err.Error(), "SECRET-TOKEN") || strings.Contains(err.Error(), "/file/bot") {
		t.Fatalf("error leaks the file url: %v", err)
	}
	if !strings.Contains(err.Error(), "download file f1") {
		t.Fatalf("expected file id in error, got %v", err)
	}
}

func TestDownloaderFetchKeepsContextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDownloader(staticResolver{url: srv.URL + "/file/botSECRET/a.jpg"}, srv.Client(), 0)
	_, err := d.Fetch(ctx, domain.InboundMedia{FileRef: "f1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if strings.Contains(err.Error(), "SECRET") {
		t.Fatalf("error leaks the file url: %v", err)
	}
}
