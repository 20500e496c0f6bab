// Package ratelimit throttles requests per chat with a token bucket kept in
// Redis, so every api replica shares the same budget.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "easyconvert:ratelimit:chat"

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below one.
func (d Decision) RetryAfterSeconds() int {
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// takeTokenScript refills the bucket for the elapsed time, then takes one
// token if available. It returns {allowed, remaining, retry_after_ms}.
var takeTokenScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_per_ms = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now_ms

tokens = math.min(capacity, tokens + math.max(0, now_ms - ts) * refill_per_ms)

local allowed = 0
local wait_ms = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait_ms = math.ceil((1 - tokens) / refill_per_ms)
end

redis.call("HSET", key, "tokens", tokens, "ts", now_ms)
redis.call("PEXPIRE", key, ttl_ms)

return {allowed, math.floor(tokens), wait_ms}
`)

// ChatLimiter grants each chat Capacity requests per Window.
type ChatLimiter struct {
	client      redis.UniversalClient
	capacity    int64
	refillPerMS float64
	ttl         time.Duration
	keyPrefix   string
	now         func() time.Time
}

func NewChatLimiter(client redis.UniversalClient, capacity int, window time.Duration) (*ChatLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}

	windowMS := max(window.Milliseconds(), 1)
	return &ChatLimiter{
		client:      client,
		capacity:    int64(capacity),
		refillPerMS: float64(capacity) / float64(windowMS),
		ttl:         2 * window,
		keyPrefix:   defaultKeyPrefix,
		now:         time.Now,
	}, nil
}

func (l *ChatLimiter) WithKeyPrefix(prefix string) *ChatLimiter {
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		l.keyPrefix = prefix
	}
	return l
}

func (l *ChatLimiter) key(chatID int64) string {
	return l.keyPrefix + ":" + strconv.FormatInt(chatID, 10)
}

func (l *ChatLimiter) Allow(ctx context.Context, chatID int64) (Decision, error) {
	raw, err := takeTokenScript.Run(
		ctx,
		l.client,
		[]string{l.key(chatID)},
		l.capacity,
		l.refillPerMS,
		l.now().UTC().UnixMilli(),
		l.ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("run token bucket script: %w", err)
	}
	return parseDecision(raw)
}

func parseDecision(values []int64) (Decision, error) {
	if len(values) != 3 {
		return Decision{}, fmt.Errorf("invalid token bucket response: %d values", len(values))
	}
	return Decision{
		Allowed:    values[0] == 1,
		Remaining:  values[1],
		RetryAfter: time.Duration(values[2]) * time.Millisecond,
	}, nil
}
