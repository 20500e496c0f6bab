package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dunamismax/easyconvert/internal/config"
	"github.com/dunamismax/easyconvert/internal/queue"
)

type Server struct {
	logger  *slog.Logger
	server  *asynq.Server
	handler *Handler
}

func NewServer(logger *slog.Logger, queueCfg config.QueueConfig, workerCfg config.WorkerConfig, handler *Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					logger.Warn("task failed", slog.String("type", task.Type()), slog.Any("error", err))
				}),
			},
		),
		handler: handler,
	}
}

// Run blocks until the process receives SIGTERM or SIGINT.
func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeConvertMedia, s.handler.ProcessTask)
	return s.server.Run(mux)
}
