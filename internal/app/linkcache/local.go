package linkcache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalCache 基于 ristretto 的进程内缓存（L1）。
type LocalCache struct {
	cache    *ristretto.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewLocalCache 创建本地缓存
// maxItems: 最大缓存条目数
// maxCost: 最大内存占用（字节）
func NewLocalCache(maxItems int64, maxCost int64, ttl, emptyTTL time.Duration) (*LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache:    cache,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}, nil
}

func (l *LocalCache) Get(keyword string) (string, bool) {
	if v, ok := l.cache.Get(keyword); ok {
		return v.(string), true
	}
	return "", false
}

// Set 写入后等待 ristretto 的异步 buffer 落地，保证紧接着的 Get 能读到。
func (l *LocalCache) Set(keyword, longURL string) {
	l.cache.SetWithTTL(keyword, longURL, int64(len(longURL)), l.ttl)
	l.cache.Wait()
}

func (l *LocalCache) SetNotFound(keyword string) {
	l.cache.SetWithTTL(keyword, notFoundSentinel, 1, l.emptyTTL)
	l.cache.Wait()
}

func (l *LocalCache) Del(keyword string) {
	l.cache.Del(keyword)
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
