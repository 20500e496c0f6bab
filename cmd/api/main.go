package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dunamismax/easyconvert/internal/api"
	"github.com/dunamismax/easyconvert/internal/config"
	"github.com/dunamismax/easyconvert/internal/locale"
	"github.com/dunamismax/easyconvert/internal/logger"
	"github.com/dunamismax/easyconvert/internal/queue"
	"github.com/dunamismax/easyconvert/internal/ratelimit"
	"github.com/dunamismax/easyconvert/internal/telegram"
	"github.com/dunamismax/easyconvert/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("load .env failed", slog.Any("error", err))
	}
	cfg := config.Load()
	log := logger.Init("api", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig(cfg.Tracing), log)
	if err != nil {
		log.Error("tracing setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer flush(log, shutdownTracing)

	bot, err := telegram.NewClient(telegram.Config{
		BotToken:        cfg.Telegram.BotToken,
		Debug:           cfg.Telegram.Debug,
		DownloadTimeout: cfg.Telegram.DownloadTime,
		MaxBytes:        cfg.Policy.MaxBytes,
	}, log)
	if err != nil {
		log.Error("telegram client failed", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Telegram.WebhookURL != "" {
		if err := bot.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.SecretToken); err != nil {
			log.Error("webhook registration failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name, cfg.Worker.TaskTimeout)
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Warn("queue client close failed", slog.Any("error", err))
		}
	}()

	messages := locale.New(cfg.Locale)
	opts := api.Options{
		Logger:      log,
		Queue:       queueClient,
		Replier:     bot.Sink(messages),
		Messages:    messages,
		WebhookPath: cfg.API.WebhookPath,
		SecretToken: cfg.Telegram.SecretToken,
	}

	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		defer redisClient.Close()

		limiter, err := ratelimit.NewChatLimiter(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window)
		if err != nil {
			log.Error("rate limiter setup failed", slog.Any("error", err))
			os.Exit(1)
		}
		opts.RateLimiter = limiter
	}

	app, err := api.NewServer(opts)
	if err != nil {
		log.Error("api setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", slog.String("addr", cfg.API.Addr), slog.String("webhook_path", cfg.API.WebhookPath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", slog.Any("error", err))
	}
}

func flush(log *slog.Logger, shutdown telemetry.ShutdownFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("tracing shutdown failed", slog.Any("error", err))
	}
}
