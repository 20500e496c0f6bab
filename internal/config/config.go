package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

const (
	defaultMaxUploadBytes = 10 * 1024 * 1024
	defaultJPEGQuality    = 100
)

type Config struct {
	API       APIConfig
	Telegram  TelegramConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Policy    PolicyConfig
	RateLimit RateLimitConfig
	Database  DatabaseConfig
	Tracing   TracingConfig
	Log       LogConfig
	Locale    string
}

type APIConfig struct {
	Addr        string
	WebhookPath string
}

type TelegramConfig struct {
	BotToken     string
	WebhookURL   string
	SecretToken  string
	Debug        bool
	DownloadTime time.Duration
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency   int
	MaxActiveJobs int
	TaskTimeout   time.Duration
	MetricsAddr   string
}

// PolicyConfig is the admission and encoding policy of the conversion pipeline.
type PolicyConfig struct {
	MaxBytes         int64
	AllowedMimeTypes []string
	NativeMimeTypes  []string
	JPEGQuality      int
}

type RateLimitConfig struct {
	Enabled  bool
	Capacity int
	Window   time.Duration
}

type DatabaseConfig struct {
	DSN string
}

type TracingConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() Config {
	defaultWorkerSlots := max(1, runtime.NumCPU()/2)

	return Config{
		API: APIConfig{
			Addr:        env("EASYCONVERT_API_ADDR", ":"+env("PORT", "8080")),
			WebhookPath: env("TELEGRAM_WEBHOOK_PATH", "/api/update"),
		},
		Telegram: TelegramConfig{
			BotToken:     env("TELEGRAM_BOT_TOKEN", ""),
			WebhookURL:   env("TELEGRAM_WEBHOOK_URL", ""),
			SecretToken:  env("TELEGRAM_SECRET_TOKEN", ""),
			Debug:        envBool("TELEGRAM_DEBUG", false),
			DownloadTime: envDuration("TELEGRAM_DOWNLOAD_TIMEOUT", 30*time.Second),
		},
		Queue: QueueConfig{
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Name:          env("ASYNC_QUEUE", "default"),
		},
		Worker: WorkerConfig{
			Concurrency:   envInt("WORKER_CONCURRENCY", max(2, runtime.NumCPU())),
			MaxActiveJobs: envInt("WORKER_MAX_ACTIVE_JOBS", defaultWorkerSlots),
			TaskTimeout:   envDuration("WORKER_TASK_TIMEOUT", 2*time.Minute),
			MetricsAddr:   env("WORKER_METRICS_ADDR", ":9091"),
		},
		Policy: PolicyConfig{
			MaxBytes:         int64(envInt("PIPELINE_MAX_BYTES", defaultMaxUploadBytes)),
			AllowedMimeTypes: envList("PIPELINE_ALLOWED_MIME_TYPES", []string{"image/heic", "image/heif", "image/jpg"}),
			NativeMimeTypes:  envList("PIPELINE_NATIVE_MIME_TYPES", []string{"image/jpg", "image/jpeg"}),
			JPEGQuality:      envInt("PIPELINE_JPEG_QUALITY", defaultJPEGQuality),
		},
		RateLimit: RateLimitConfig{
			Enabled:  envBool("RATE_LIMIT_ENABLED", false),
			Capacity: envInt("RATE_LIMIT_CAPACITY", 10),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Database: DatabaseConfig{
			DSN: env("POSTGRES_DSN", ""),
		},
		Tracing: TracingConfig{
			ServiceName:  env("OTEL_SERVICE_NAME", "easyconvert"),
			Exporter:     env("TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "text"),
		},
		Locale: localeFromEnv(),
	}
}

// localeFromEnv prefers an explicit LOCALE and otherwise picks Russian for the
// development environment.
func localeFromEnv() string {
	if locale := env("LOCALE", ""); locale != "" {
		return locale
	}
	if strings.EqualFold(env("APP_ENV", "production"), "development") {
		return "ru"
	}
	return "en"
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envList(key string, fallback []string) []string {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	out := make([]string, 0, 4)
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
