package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// ClientRequestsTotal：发往 YOURLS API 的请求数（Counter）。
	//
	// labels：
	// - action：API 动作，例如 shorturl/expand/stats（取值有限，不会产生高基数）
	// - outcome：ok / 错误种类（keyword_exists、not_found、http_error、transport ...）
	ClientRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yourls_client_requests_total",
			Help: "YOURLS API 请求总数",
		},
		[]string{"action", "outcome"},
	)

	// ClientRequestDurationSeconds：请求耗时分布（Histogram），用于看 P95/P99。
	ClientRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yourls_client_request_duration_seconds",
			Help:    "YOURLS API request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// ClientInflightRequests：正在进行中的请求数（Gauge）。
	ClientInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yourls_client_inflight_requests",
			Help: "Current number of in-flight YOURLS API requests.",
		},
	)

	// SignatureRefreshTotal：限时签名重新计算的次数。
	// 正常情况下每个 nonce 周期只 +1，持续上涨说明 nonce life 配置过小。
	SignatureRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "yourls_signature_refresh_total",
			Help: "Number of times the timed signature was recomputed.",
		},
	)

	// CacheOperations：expand 缓存的命中情况。
	// labels：layer = l1/l2，result = hit/hit_negative/miss
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yourls_cache_operations_total",
			Help: "Expand cache lookups by layer and result.",
		},
		[]string{"layer", "result"},
	)

	// BulkImportTotal：批量导入的结果。result = new/exists/duplicate/failed
	BulkImportTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yourls_bulk_import_total",
			Help: "Bulk import results.",
		},
		[]string{"result"},
	)

	// 以下由 exporter 定期从 db-stats 拉取
	TotalClicks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yourls_total_clicks",
			Help: "Total clicks reported by the YOURLS instance.",
		},
	)
	TotalLinks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "yourls_total_links",
			Help: "Total links reported by the YOURLS instance.",
		},
	)
	ScrapeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "yourls_exporter_scrape_errors_total",
			Help: "Number of failed db-stats polls.",
		},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			ClientRequestsTotal,
			ClientRequestDurationSeconds,
			ClientInflightRequests,
			SignatureRefreshTotal,
			CacheOperations,
			BulkImportTotal,
			TotalClicks,
			TotalLinks,
			ScrapeErrorsTotal,
		)
	})
}
