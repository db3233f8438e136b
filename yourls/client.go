// Package yourls 是 YOURLS (yourls-api.php) 的 HTTP/JSON 客户端。
//
// Client 由三部分能力组合而成：CoreAPI（shorten/expand/stats...）、Deleter、Editor，
// 它们共享同一个 Requester 负责认证和发请求。服务端的失败统一翻译成 *Error，
// 用 errors.Is(err, ErrNotFound) 这类哨兵值判断种类，用 errors.As 取出 keyword/url 等上下文。
package yourls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"yourls.local/internal/platform/metrics"
)

const apiSuffix = "yourls-api.php"

const tracerName = "yourls.local/yourls"

// Config 是创建 Client 的参数。
//
// Username+Password 与 Signature 二选一；都不传表示服务端不需要认证（除非 AuthRequired）。
// NonceLife > 0 时使用限时签名，只能和 Signature 一起使用。
type Config struct {
	APIURL string

	Username  string
	Password  string
	Signature string
	NonceLife time.Duration

	// AuthRequired 为 true 时，不带任何凭证视为配置错误。
	AuthRequired bool

	HTTPClient     *http.Client
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	// Now 仅用于测试注入时间
	Now func() time.Time
}

// Params 是某个 action 自己的 query 参数，值为空的可选参数不会发送。
type Params map[string]string

// Response 是一次成功（已通过错误翻译）的 API 调用结果。
type Response struct {
	StatusCode int
	Body       []byte

	data apiResponse
}

// Requester 是最基础的能力：带认证地调用任意 action。
// 插件提供的 action 也可以直接用它调用，自行解析 Response.Body。
type Requester interface {
	Request(ctx context.Context, action string, params Params) (*Response, error)
}

type base struct {
	apiURL  string
	siteURL string

	creds      *credentials
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Client 实现 API。可以被多个 goroutine 共享使用。
type Client struct {
	*base
	core
	deleter
	editor
}

var _ API = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, ErrMissingAPIURL
	}
	creds, err := newCredentials(cfg)
	if err != nil {
		return nil, err
	}

	apiURL, siteURL := normalizeAPIURL(cfg.APIURL)
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("%w: api url %q: %v", ErrConfig, cfg.APIURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	b := &base{
		apiURL:     apiURL,
		siteURL:    siteURL,
		creds:      creds,
		httpClient: httpClient,
		logger:     logger,
		tracer:     tp.Tracer(tracerName),
	}
	return &Client{
		base:    b,
		core:    core{req: b},
		deleter: deleter{req: b},
		editor:  editor{req: b},
	}, nil
}

// normalizeAPIURL 返回 (api 地址, 站点地址)。
// 用户可以省略 yourls-api.php，例如 https://sho.rt/ -> https://sho.rt/yourls-api.php
func normalizeAPIURL(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, apiSuffix) {
		site := strings.TrimSuffix(raw[:strings.Index(raw, apiSuffix)], "/")
		return raw, site
	}
	site := strings.TrimRight(raw, "/")
	return site + "/" + apiSuffix, site
}

// APIURL 返回实际请求的地址（带 yourls-api.php）。
func (b *base) APIURL() string { return b.apiURL }

// BaseURL 返回站点地址（不带 yourls-api.php）。
func (b *base) BaseURL() string { return b.siteURL }

// Request 合并 format=json、action、认证字段后发 GET 请求，并翻译响应。
// 网络层错误原样返回，不做重试。
func (b *base) Request(ctx context.Context, action string, params Params) (*Response, error) {
	q := make(map[string]string, len(params)+5)
	for k, v := range params {
		if v != "" {
			q[k] = v
		}
	}
	q["format"] = "json"
	q["action"] = action
	b.creds.apply(q)

	values := make(url.Values, len(q))
	for k, v := range q {
		values.Set(k, v)
	}

	ctx, span := b.tracer.Start(ctx, "yourls."+action,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("yourls.action", action)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	metrics.ClientInflightRequests.Inc()
	resp, err := b.httpClient.Do(req)
	metrics.ClientInflightRequests.Dec()
	if err != nil {
		b.finish(span, action, start, 0, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("read response: %w", err)
		b.finish(span, action, start, resp.StatusCode, err)
		return nil, err
	}

	out, err := translate(resp.StatusCode, body, q)
	b.finish(span, action, start, resp.StatusCode, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *base) finish(span trace.Span, action string, start time.Time, status int, err error) {
	outcome := outcomeOf(err)
	latency := time.Since(start)
	metrics.ClientRequestsTotal.WithLabelValues(action, outcome).Inc()
	metrics.ClientRequestDurationSeconds.WithLabelValues(action).Observe(latency.Seconds())

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	attrs := []any{
		"action", action,
		"status", status,
		"outcome", outcome,
		"auth", b.creds.mode(),
		"latency_ms", latency.Milliseconds(),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		b.logger.Debug("yourls request failed", append(attrs, "err", err.Error())...)
		return
	}
	b.logger.Debug("yourls request", attrs...)
}

var outcomeNames = []struct {
	kind error
	name string
}{
	{ErrKeywordExists, "keyword_exists"},
	{ErrURLExists, "url_exists"},
	{ErrNoURL, "no_url"},
	{ErrNoLoop, "no_loop"},
	{ErrNotFound, "not_found"},
	{ErrHTTP, "http_error"},
	{ErrAPI, "api_error"},
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		for _, o := range outcomeNames {
			if apiErr.Kind == o.kind {
				return o.name
			}
		}
	}
	return "transport"
}
