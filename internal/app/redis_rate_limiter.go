package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRateLimitPrefix = "monzo_mcp:rate_limit"

// invocationWindowScript counts one invocation in a fixed window and returns
// {count, remaining window in ms}. A key that lost its expiry is given a fresh one.
var invocationWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisRateLimiter limits invocations per tool and caller in fixed windows
// shared by every replica using the same Redis.
type RedisRateLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter allows perMinute invocations of each tool by each caller.
func NewRedisRateLimiter(client redis.Scripter, prefix string, perMinute int) *RedisRateLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  perMinute,
		window: time.Minute,
	}
}

func (r *RedisRateLimiter) key(tool, caller string) string {
	return r.prefix + ":tool_invoke:" + tool + ":" + caller
}

// Allow records one invocation of tool by caller and reports whether it fits
// the window.
func (r *RedisRateLimiter) Allow(ctx context.Context, tool, caller string) (RateDecision, error) {
	decision := RateDecision{Allowed: true, Limit: r.limit}
	if r.client == nil || r.limit <= 0 {
		return decision, nil
	}

	reply, err := invocationWindowScript.Run(ctx, r.client, []string{r.key(tool, caller)}, r.window.Milliseconds()).Result()
	if err != nil {
		return decision, fmt.Errorf("rate limit script for %s: %w", tool, err)
	}

	count, remaining, err := parseWindowReply(reply)
	if err != nil {
		return decision, fmt.Errorf("rate limit script for %s: %w", tool, err)
	}
	if remaining <= 0 {
		remaining = r.window
	}

	decision.Count = count
	decision.Allowed = count <= r.limit
	if !decision.Allowed {
		decision.RetryAfter = remaining
	}
	return decision, nil
}

func parseWindowReply(reply interface{}) (int, time.Duration, error) {
	values, ok := reply.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("want [count, ttl] reply, got %T %v", reply, reply)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("count is %T, want integer", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("ttl is %T, want integer", values[1])
	}
	return int(count), time.Duration(ttlMs) * time.Millisecond, nil
}
