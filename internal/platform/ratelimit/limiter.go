package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow：ZSET 里按毫秒时间戳记录每次请求，窗口外的先清掉再计数。
// 返回 {allowed, retryAfterMs}。
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
redis.call("ZADD", key, now, member)
local count = redis.call("ZCARD", key)
redis.call("PEXPIRE", key, window)

if count <= limit then
  return {1, 0}
end

redis.call("ZREM", key, member)

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] ~= nil then
  local retryAfter = (tonumber(oldest[2]) + window) - now
  if retryAfter < 0 then retryAfter = 0 end
  return {0, retryAfter}
end
return {0, window}
`)

// Limiter 是基于 Redis 的滑动窗口限流，多个进程共用同一个 key 时共享额度。
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow 返回：allowed、retryAfter（仅当超限时有意义）
func (l *Limiter) Allow(ctx context.Context, key, member string) (bool, time.Duration, error) {
	nowMS := time.Now().UnixMilli()
	res, err := slidingWindow.Run(ctx, l.client, []string{key}, nowMS, l.window.Milliseconds(), l.limit, member).Result()
	if err != nil {
		return false, 0, err
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("unexpected redis eval result: %T %v", res, res)
	}

	allowed, _ := arr[0].(int64)
	var retryAfterMs int64
	switch v := arr[1].(type) {
	case int64:
		retryAfterMs = v
	case string:
		retryAfterMs, _ = strconv.ParseInt(v, 10, 64)
	}
	return allowed == 1, time.Duration(retryAfterMs) * time.Millisecond, nil
}

// Wait 阻塞直到拿到额度或 ctx 结束。
// member 需要每次调用唯一，否则同一毫秒内的请求会被 ZADD 合并。
func (l *Limiter) Wait(ctx context.Context, key, member string) error {
	for {
		ok, retryAfter, err := l.Allow(ctx, key, member)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if retryAfter <= 0 {
			retryAfter = 10 * time.Millisecond
		}
		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
