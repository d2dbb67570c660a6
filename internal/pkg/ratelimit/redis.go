package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// slidingWindowScript trims the sorted set to the window, then admits and
// records the request if there is room. Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	local allowed = 0
	if current < limit then
		local counter = redis.call('INCR', key .. ':seq')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', key .. ':seq', window_ms)
		current = current + 1
		allowed = 1
	end

	local reset_at = now + window_ms
	local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if first and #first >= 2 then
		reset_at = tonumber(first[2]) + window_ms
	end

	return {allowed, limit - current, reset_at}
`)

// RedisStore keeps windows in Redis sorted sets so several processes share
// one budget per key
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a store whose keys are prefixed with keyPrefix
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Allow implements Store
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*Result, error) {
	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	raw, err := slidingWindowScript.Run(ctx, s.client, []string{s.key(key)},
		nowMs, nowMs-windowMs, limit, windowMs).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit script: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("unexpected redis rate limit reply length: %d", len(raw))
	}

	values := make([]int64, len(raw))
	for i, v := range raw {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected redis rate limit reply element %T", v)
		}
		values[i] = n
	}

	result := &Result{
		Allowed:   values[0] == 1,
		Limit:     limit,
		Remaining: int(values[1]),
		ResetAt:   time.UnixMilli(values[2]),
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	if !result.Allowed {
		result.RetryAfter = result.ResetAt.Sub(now)
	}
	return result, nil
}

// Reset implements Store
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key), s.key(key)+":seq").Err()
}
