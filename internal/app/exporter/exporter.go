package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yourls.local/internal/platform/metrics"
	"yourls.local/yourls"
)

// StatsSource 由 yourls.Client 实现。
type StatsSource interface {
	DBStats(ctx context.Context) (yourls.DBStats, error)
}

// Exporter 定期拉取 db-stats，写入 yourls_total_clicks / yourls_total_links。
type Exporter struct {
	src      StatsSource
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error
}

func New(src StatsSource, interval time.Duration, logger *slog.Logger) *Exporter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		src:      src,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   logger,
		now:      time.Now,
	}
}

// Scrape 拉取一次。失败时保留上一次的 gauge 值，只累加错误计数。
func (e *Exporter) Scrape(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stats, err := e.src.DBStats(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		metrics.ScrapeErrorsTotal.Inc()
		e.lastErr = err
		e.logger.Warn("db-stats scrape failed", "err", err)
		return err
	}
	metrics.TotalClicks.Set(float64(stats.TotalClicks))
	metrics.TotalLinks.Set(float64(stats.TotalLinks))
	e.lastSuccess = e.now()
	e.lastErr = nil
	e.logger.Debug("db-stats scraped", "total_clicks", stats.TotalClicks, "total_links", stats.TotalLinks)
	return nil
}

// Run 立即拉取一次，之后每 interval 一次，直到 ctx 结束。
func (e *Exporter) Run(ctx context.Context) {
	_ = e.Scrape(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = e.Scrape(ctx)
		}
	}
}

// Ready 最近两个周期内成功拉取过。
func (e *Exporter) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastSuccess.IsZero() {
		return false
	}
	return e.now().Sub(e.lastSuccess) <= 2*e.interval
}

// Handler 提供 /metrics、/healthz、/readyz、/version。
func (e *Exporter) Handler(serviceName, version string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !e.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("db-stats not scraped recently"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": serviceName,
			"version":      version,
			"go_version":   runtime.Version(),
		})
	})
	return mux
}
