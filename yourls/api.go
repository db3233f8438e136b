package yourls

import (
	"context"
	"fmt"
	"strconv"
)

// CoreAPI 是 YOURLS 内置的 action。
type CoreAPI interface {
	Shorten(ctx context.Context, longURL, keyword, title string) (ShortenedURL, error)
	Expand(ctx context.Context, short string) (string, error)
	URLStats(ctx context.Context, short string) (ShortenedURL, error)
	Stats(ctx context.Context, q StatsQuery) ([]ShortenedURL, DBStats, error)
	DBStats(ctx context.Context) (DBStats, error)
}

// API 是 Client 提供的全部能力。
type API interface {
	Requester
	CoreAPI
	Deleter
	Editor
}

// StatsQuery 是 stats action 的参数。Start 为 nil 时不发送。
type StatsQuery struct {
	Filter string
	Limit  int
	Start  *int
}

type core struct {
	req Requester
}

// Shorten 缩短 longURL。keyword、title 为空时由服务端自动生成。
//
// 可能的错误：ErrKeywordExists（Keyword 字段）、ErrURLExists（Link 字段是已有短链）、
// ErrNoURL、ErrNoLoop、ErrAPI、ErrHTTP。
func (c core) Shorten(ctx context.Context, longURL, keyword, title string) (ShortenedURL, error) {
	resp, err := c.req.Request(ctx, "shorturl", Params{
		"url":     longURL,
		"keyword": keyword,
		"title":   title,
	})
	if err != nil {
		return ShortenedURL{}, err
	}
	return resp.data.existingLink()
}

// Expand 把短链或 keyword 还原成长链接。
func (c core) Expand(ctx context.Context, short string) (string, error) {
	resp, err := c.req.Request(ctx, "expand", Params{"shorturl": short})
	if err != nil {
		return "", err
	}
	if resp.data.LongURL == "" {
		return "", fmt.Errorf("expand: response has no longurl")
	}
	return resp.data.LongURL, nil
}

func (c core) URLStats(ctx context.Context, short string) (ShortenedURL, error) {
	resp, err := c.req.Request(ctx, "url-stats", Params{"shorturl": short})
	if err != nil {
		return ShortenedURL{}, err
	}
	if resp.data.Link == nil {
		return ShortenedURL{}, fmt.Errorf("url-stats: response has no link")
	}
	return resp.data.Link.toShortenedURL("")
}

// Stats 返回按 filter 选出的链接以及汇总数据。
// filter 不合法时直接返回 ErrInvalidFilter，不会发请求。
func (c core) Stats(ctx context.Context, q StatsQuery) ([]ShortenedURL, DBStats, error) {
	filter, err := ParseFilter(q.Filter)
	if err != nil {
		return nil, DBStats{}, err
	}
	params := Params{
		"filter": string(filter),
		"limit":  strconv.Itoa(q.Limit),
	}
	if q.Start != nil {
		params["start"] = strconv.Itoa(*q.Start)
	}

	resp, err := c.req.Request(ctx, "stats", params)
	if err != nil {
		return nil, DBStats{}, err
	}
	if resp.data.Stats == nil {
		return nil, DBStats{}, fmt.Errorf("stats: response has no stats")
	}
	links, err := resp.data.links()
	if err != nil {
		return nil, DBStats{}, err
	}
	return links, resp.data.Stats.toDBStats(), nil
}

func (c core) DBStats(ctx context.Context) (DBStats, error) {
	resp, err := c.req.Request(ctx, "db-stats", nil)
	if err != nil {
		return DBStats{}, err
	}
	if resp.data.DBStats == nil {
		return DBStats{}, fmt.Errorf("db-stats: response has no db-stats")
	}
	return resp.data.DBStats.toDBStats(), nil
}
