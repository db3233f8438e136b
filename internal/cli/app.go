package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"yourls.local/internal/app/history"
	"yourls.local/internal/app/linkcache"
	"yourls.local/internal/platform/cache"
	"yourls.local/internal/platform/config"
	"yourls.local/internal/platform/db"
	"yourls.local/yourls"
)

// app 按需创建依赖，命令结束时统一关闭。
type app struct {
	env Env
	cfg config.Config

	client *yourls.Client
	redis  *redis.Client
	pool   *pgxpool.Pool

	closers []func()
}

func (a *app) onClose(f func()) {
	a.closers = append(a.closers, f)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) yourlsClient() (*yourls.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := newYOURLSClient(a.cfg, a.env.Logger)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// api 返回要用的 API：开启缓存时包一层 linkcache。
func (a *app) api() (yourls.API, error) {
	c, err := a.yourlsClient()
	if err != nil {
		return nil, err
	}
	if !a.cfg.CacheEnabled {
		return c, nil
	}

	local, err := linkcache.NewLocalCache(10000, 1<<22, 5*time.Minute, 10*time.Second) // 1万条目，4MB
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	rc, err := a.redisClient()
	if err != nil {
		// Redis 只是 L2，连不上时退化为进程内缓存
		slog.Warn("expand cache without redis", "err", err)
		rc = nil
	}
	ec := linkcache.NewExpandCache(rc, local)
	a.onClose(ec.Close)
	return linkcache.NewCachedClient(c, ec, c.BaseURL()), nil
}

// redisClient REDIS_ADDR 为空时返回 (nil, error)。
func (a *app) redisClient() (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	if a.cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is not set")
	}
	rc, err := cache.NewRedisClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.redis = rc
	a.onClose(func() { _ = rc.Close() })
	return rc, nil
}

// historyRepo 连接数据库并执行迁移。
func (a *app) historyRepo(ctx context.Context) (*history.Repo, error) {
	if a.cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if a.pool == nil {
		dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		pool, err := db.New(dbctx, a.cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(dbctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		a.pool = pool
		a.onClose(pool.Close)
	}
	repo := history.NewRepo(a.pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
