package linkcache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"yourls.local/internal/platform/metrics"
)

// notFoundSentinel 标记“确认不存在”的 keyword（负缓存）。
const notFoundSentinel = "__nil__"

const keyPrefix = "yourls:expand:"

// ExpandCache 缓存 keyword -> 长链接。L1 为本地 ristretto，L2 为 Redis（可选）。
type ExpandCache struct {
	client   *redis.Client
	local    *LocalCache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewExpandCache client 为 nil 时只用 L1。
func NewExpandCache(client *redis.Client, local *LocalCache) *ExpandCache {
	return &ExpandCache{
		client:   client,
		local:    local,
		ttl:      time.Hour,
		emptyTTL: 30 * time.Second,
	}
}

// Get 返回 (值, 是否命中)。命中负缓存时值为 notFoundSentinel。
func (c *ExpandCache) Get(ctx context.Context, keyword string) (string, bool, error) {
	// L1: 本地缓存
	if c.local != nil {
		if v, ok := c.local.Get(keyword); ok {
			c.count("l1", v)
			return v, true, nil
		}
	}
	if c.client == nil {
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
		return "", false, nil
	}

	// L2: Redis
	v, err := c.client.Get(ctx, keyPrefix+keyword).Result()
	if err == redis.Nil {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	c.count("l2", v)

	// 回填本地缓存
	if c.local != nil {
		if v == notFoundSentinel {
			c.local.SetNotFound(keyword)
		} else {
			c.local.Set(keyword, v)
		}
	}
	return v, true, nil
}

func (c *ExpandCache) count(layer, v string) {
	if v == notFoundSentinel {
		metrics.CacheOperations.WithLabelValues(layer, "hit_negative").Inc()
		return
	}
	metrics.CacheOperations.WithLabelValues(layer, "hit").Inc()
}

func (c *ExpandCache) Set(ctx context.Context, keyword, longURL string) error {
	if c.local != nil {
		c.local.Set(keyword, longURL)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+keyword, longURL, c.ttl).Err()
}

// SetNotFound 用明确哨兵值做负缓存，避免反复查询不存在的 keyword。
func (c *ExpandCache) SetNotFound(ctx context.Context, keyword string) error {
	if c.local != nil {
		c.local.SetNotFound(keyword)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+keyword, notFoundSentinel, c.emptyTTL).Err()
}

func (c *ExpandCache) Delete(ctx context.Context, keyword string) error {
	if c.local != nil {
		c.local.Del(keyword)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keyPrefix+keyword).Err()
}

// Close 关闭本地缓存，Redis 客户端由创建方负责关闭。
func (c *ExpandCache) Close() {
	if c.local != nil {
		c.local.Close()
	}
}
