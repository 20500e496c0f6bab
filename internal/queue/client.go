package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

const defaultTaskTimeout = 2 * time.Minute

type Client struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	return &Client{
		client:  asynq.NewClient(redisOpt),
		queue:   queueName,
		timeout: timeout,
	}
}

// EnqueueConvertMedia queues one request. Failed requests are reported to the
// chat and never retried.
func (c *Client) EnqueueConvertMedia(ctx context.Context, payload ConvertMediaPayload) (*asynq.TaskInfo, error) {
	task, err := NewConvertMediaTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, c.options()...)
}

func (c *Client) options() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
		asynq.Timeout(c.timeout),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}
