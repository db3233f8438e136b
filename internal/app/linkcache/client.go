package linkcache

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"yourls.local/yourls"
)

// CachedClient 给 yourls.API 的 expand 加一层缓存，其它操作直接透传。
// 会改变 keyword 指向的操作（delete/update/change_keyword）成功后失效对应条目。
type CachedClient struct {
	yourls.API
	cache   *ExpandCache
	baseURL string
}

// NewCachedClient baseURL 为站点根地址，用来把完整短链归一成 keyword，
// 这样 "abc" 和 "https://sho.rt/abc" 共用一个缓存条目。
func NewCachedClient(api yourls.API, cache *ExpandCache, baseURL string) *CachedClient {
	return &CachedClient{
		API:     api,
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *CachedClient) keyOf(short string) string {
	if c.baseURL != "" {
		if rest, ok := strings.CutPrefix(short, c.baseURL+"/"); ok {
			return rest
		}
	}
	return short
}

func (c *CachedClient) Expand(ctx context.Context, short string) (string, error) {
	key := c.keyOf(short)

	v, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		// 缓存不可用时降级为直接请求
		slog.Warn("expand cache get failed", "keyword", key, "err", err)
	}
	if ok {
		if v == notFoundSentinel {
			return "", &yourls.Error{Kind: yourls.ErrNotFound, Message: "not found", Keyword: short}
		}
		return v, nil
	}

	longURL, err := c.API.Expand(ctx, short)
	if err != nil {
		if isMissing(err) {
			if cerr := c.cache.SetNotFound(ctx, key); cerr != nil {
				slog.Warn("expand cache set failed", "keyword", key, "err", cerr)
			}
		}
		return "", err
	}
	if cerr := c.cache.Set(ctx, key, longURL); cerr != nil {
		slog.Warn("expand cache set failed", "keyword", key, "err", cerr)
	}
	return longURL, nil
}

// isMissing 判断 expand 失败是否说明短链不存在。
// 真实服务端对不存在的 keyword 返回 HTTP 404 + "Error: short URL not found"，客户端把它归为 ErrHTTP。
func isMissing(err error) bool {
	if errors.Is(err, yourls.ErrNotFound) {
		return true
	}
	var apiErr *yourls.Error
	return errors.As(err, &apiErr) && apiErr.Kind == yourls.ErrHTTP && apiErr.StatusCode == http.StatusNotFound
}

// Shorten 成功后回填缓存，同时清掉可能存在的负缓存。
func (c *CachedClient) Shorten(ctx context.Context, longURL, keyword, title string) (yourls.ShortenedURL, error) {
	link, err := c.API.Shorten(ctx, longURL, keyword, title)
	if err != nil {
		return link, err
	}
	if link.Keyword != "" {
		if cerr := c.cache.Set(ctx, link.Keyword, link.URL); cerr != nil {
			slog.Warn("expand cache set failed", "keyword", link.Keyword, "err", cerr)
		}
	}
	return link, nil
}

func (c *CachedClient) Delete(ctx context.Context, short string) error {
	if err := c.API.Delete(ctx, short); err != nil {
		return err
	}
	c.invalidate(ctx, c.keyOf(short))
	return nil
}

func (c *CachedClient) Update(ctx context.Context, shortURL, longURL string, opts yourls.UpdateOptions) error {
	if err := c.API.Update(ctx, shortURL, longURL, opts); err != nil {
		return err
	}
	c.invalidate(ctx, c.keyOf(shortURL))
	return nil
}

// ChangeKeyword 新旧 keyword 都要失效：旧的可能被缓存为长链接，新的可能有负缓存。
func (c *CachedClient) ChangeKeyword(ctx context.Context, newKeyword string, opts yourls.ChangeKeywordOptions) error {
	if err := c.API.ChangeKeyword(ctx, newKeyword, opts); err != nil {
		return err
	}
	if opts.OldKeyword != "" {
		c.invalidate(ctx, c.keyOf(opts.OldKeyword))
	}
	c.invalidate(ctx, c.keyOf(newKeyword))
	return nil
}

func (c *CachedClient) invalidate(ctx context.Context, key string) {
	if err := c.cache.Delete(ctx, key); err != nil {
		slog.Warn("expand cache delete failed", "keyword", key, "err", err)
	}
}
