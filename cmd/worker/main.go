package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dunamismax/easyconvert/internal/config"
	"github.com/dunamismax/easyconvert/internal/locale"
	"github.com/dunamismax/easyconvert/internal/logger"
	"github.com/dunamismax/easyconvert/internal/pipeline"
	"github.com/dunamismax/easyconvert/internal/store"
	"github.com/dunamismax/easyconvert/internal/telegram"
	"github.com/dunamismax/easyconvert/internal/telemetry"
	"github.com/dunamismax/easyconvert/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("load .env failed", slog.Any("error", err))
	}
	cfg := config.Load()
	log := logger.Init("worker", cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("worker failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig(cfg.Tracing), log)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", slog.Any("error", err))
		}
	}()

	if err := pipeline.Startup(); err != nil {
		return err
	}
	defer pipeline.Shutdown()

	bot, err := telegram.NewClient(telegram.Config{
		BotToken:        cfg.Telegram.BotToken,
		Debug:           cfg.Telegram.Debug,
		DownloadTimeout: cfg.Telegram.DownloadTime,
		MaxBytes:        cfg.Policy.MaxBytes,
	}, log)
	if err != nil {
		return err
	}

	messages := locale.New(cfg.Locale)
	processor, err := pipeline.NewProcessor(pipeline.Options{
		Logger:   log,
		Policy:   pipeline.Policy(cfg.Policy),
		Fetcher:  bot.Fetcher(),
		Messages: messages,
	})
	if err != nil {
		return err
	}

	requests, closeStore, err := openRequestStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := worker.NewHandler(log, processor, bot.Sink(messages), requests, cfg.Worker.MaxActiveJobs)

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           handler.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listening", slog.String("addr", cfg.Worker.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Info(
		"starting worker",
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Int("max_active_jobs", cfg.Worker.MaxActiveJobs),
		slog.String("queue", cfg.Queue.Name),
		slog.String("redis", cfg.Queue.RedisAddr),
		slog.Bool("russian", messages.Russian()),
	)
	return worker.NewServer(log, cfg.Queue, cfg.Worker, handler).Run()
}

func openRequestStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (store.RequestStore, func(), error) {
	if cfg.DSN == "" {
		log.Info("request log kept in memory")
		return store.NewMemoryRequestStore(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pg, err := store.NewPostgresRequestStore(connectCtx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			log.Warn("postgres close failed", slog.Any("error", err))
		}
	}, nil
}
