package bulk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yourls.local/internal/app/events"
	"yourls.local/internal/platform/metrics"
	"yourls.local/yourls"
)

// 每个 URL 的处理结果
const (
	StatusNew       = "new"
	StatusExists    = "exists"
	StatusDuplicate = "duplicate" // 输入里重复出现，没有发请求
	StatusFailed    = "failed"
)

// 生成的 keyword 冲突时最多换几次
const maxKeywordAttempts = 5

// Throttle 由 ratelimit.Limiter 实现。
type Throttle interface {
	Wait(ctx context.Context, key, member string) error
}

type Options struct {
	// Keywords 为 nil 时由服务端生成 keyword
	Keywords *KeywordGen
	Title    string
	Throttle Throttle
	// ThrottleKey 是限流窗口的 key，多个进程共享同一个 key 就共享额度
	ThrottleKey string
	Collector   events.Collector
	Logger      *slog.Logger
	Now         func() time.Time
}

type Result struct {
	URL    string
	Status string
	Link   yourls.ShortenedURL
	Err    error
}

type Summary struct {
	New       int
	Exists    int
	Duplicate int
	Failed    int
}

func (s Summary) String() string {
	return fmt.Sprintf("new=%d exists=%d duplicate=%d failed=%d", s.New, s.Exists, s.Duplicate, s.Failed)
}

type Importer struct {
	api  yourls.CoreAPI
	opts Options
}

func NewImporter(api yourls.CoreAPI, opts Options) *Importer {
	if opts.Collector == nil {
		opts.Collector = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ThrottleKey == "" {
		opts.ThrottleKey = "yourls:bulk"
	}
	return &Importer{api: api, opts: opts}
}

// ReadURLs 每行一个 URL，忽略空行和 # 开头的注释行。
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls: %w", err)
	}
	return urls, nil
}

// Import 串行缩短 urls。单个 URL 失败不会中断导入，只有 ctx 结束才提前返回。
func (im *Importer) Import(ctx context.Context, urls []string) ([]Result, Summary, error) {
	seen := newSeenSet(uint(len(urls)), 0.01)
	results := make([]Result, 0, len(urls))
	var sum Summary

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return results, sum, err
		}

		var res Result
		if seen.Add(u) {
			res = Result{URL: u, Status: StatusDuplicate}
		} else {
			if im.opts.Throttle != nil {
				member := strconv.FormatInt(im.opts.Now().UnixNano(), 10) + "-" + strconv.Itoa(i)
				if err := im.opts.Throttle.Wait(ctx, im.opts.ThrottleKey, member); err != nil {
					return results, sum, fmt.Errorf("throttle: %w", err)
				}
			}
			res = im.shorten(ctx, u)
		}

		switch res.Status {
		case StatusNew:
			sum.New++
		case StatusExists:
			sum.Exists++
		case StatusDuplicate:
			sum.Duplicate++
		default:
			sum.Failed++
		}
		metrics.BulkImportTotal.WithLabelValues(res.Status).Inc()
		im.publish(res)
		results = append(results, res)
	}

	im.opts.Logger.Info("bulk import finished", "total", len(urls), "summary", sum.String())
	return results, sum, nil
}

func (im *Importer) shorten(ctx context.Context, u string) Result {
	attempts := 1
	if im.opts.Keywords != nil {
		attempts = maxKeywordAttempts
	}

	var err error
	for range attempts {
		keyword := ""
		if im.opts.Keywords != nil {
			if keyword, err = im.opts.Keywords.Next(); err != nil {
				return Result{URL: u, Status: StatusFailed, Err: err}
			}
		}

		var link yourls.ShortenedURL
		link, err = im.api.Shorten(ctx, u, keyword, im.opts.Title)
		if err == nil {
			return Result{URL: u, Status: StatusNew, Link: link}
		}

		var apiErr *yourls.Error
		switch {
		case errors.As(err, &apiErr) && apiErr.Kind == yourls.ErrURLExists:
			res := Result{URL: u, Status: StatusExists}
			if apiErr.Link != nil {
				res.Link = *apiErr.Link
			}
			return res
		case errors.Is(err, yourls.ErrKeywordExists) && im.opts.Keywords != nil:
			im.opts.Logger.Debug("generated keyword taken, retrying", "keyword", keyword)
			continue
		}
		break
	}

	im.opts.Logger.Warn("bulk shorten failed", "url", u, "err", err)
	return Result{URL: u, Status: StatusFailed, Err: err}
}

func (im *Importer) publish(res Result) {
	var kind events.Kind
	switch res.Status {
	case StatusNew:
		kind = events.KindCreated
	case StatusExists:
		kind = events.KindExists
	default:
		return
	}
	im.opts.Collector.Collect(events.LinkEvent{
		Kind:     kind,
		Keyword:  res.Link.Keyword,
		ShortURL: res.Link.ShortURL,
		URL:      res.URL,
		Title:    res.Link.Title,
		At:       im.opts.Now(),
	})
}
