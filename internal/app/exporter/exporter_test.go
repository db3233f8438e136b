package exporter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"yourls.local/internal/platform/metrics"
	"yourls.local/yourls"
)

type fakeStats struct {
	mu    sync.Mutex
	stats yourls.DBStats
	err   error
	calls int
}

func (f *fakeStats) DBStats(ctx context.Context) (yourls.DBStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.stats, f.err
}

func (f *fakeStats) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScrape_SetsGauges(t *testing.T) {
	src := &fakeStats{stats: yourls.DBStats{TotalClicks: 1789, TotalLinks: 4021}}
	e := New(src, time.Minute, nil)

	if err := e.Scrape(t.Context()); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if got := testutil.ToFloat64(metrics.TotalClicks); got != 1789 {
		t.Fatalf("total clicks: got %v, want 1789", got)
	}
	if got := testutil.ToFloat64(metrics.TotalLinks); got != 4021 {
		t.Fatalf("total links: got %v, want 4021", got)
	}
	if !e.Ready() {
		t.Fatal("Ready: want true after successful scrape")
	}
}

func TestScrape_ErrorKeepsGauges(t *testing.T) {
	src := &fakeStats{stats: yourls.DBStats{TotalClicks: 5, TotalLinks: 6}}
	e := New(src, time.Minute, nil)
	if err := e.Scrape(t.Context()); err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	before := testutil.ToFloat64(metrics.ScrapeErrorsTotal)
	src.err = errors.New("boom")
	if err := e.Scrape(t.Context()); err == nil {
		t.Fatal("Scrape: want error")
	}
	if got := testutil.ToFloat64(metrics.ScrapeErrorsTotal); got != before+1 {
		t.Fatalf("scrape errors: got %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(metrics.TotalLinks); got != 6 {
		t.Fatalf("total links: got %v, want 6", got)
	}
}

func TestReady_Stale(t *testing.T) {
	src := &fakeStats{}
	e := New(src, time.Minute, nil)
	if e.Ready() {
		t.Fatal("Ready: want false before first scrape")
	}

	now := time.Now()
	e.now = func() time.Time { return now }
	_ = e.Scrape(t.Context())
	e.now = func() time.Time { return now.Add(3 * time.Minute) }
	if e.Ready() {
		t.Fatal("Ready: want false when last success is older than two intervals")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &fakeStats{}
	e := New(src, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("calls: got %d, want >= 3", src.callCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHandler(t *testing.T) {
	src := &fakeStats{stats: yourls.DBStats{TotalClicks: 1, TotalLinks: 2}}
	e := New(src, time.Minute, nil)
	h := e.Handler("yourls-cli", "test")

	get := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		body, _ := io.ReadAll(rec.Body)
		return rec.Code, string(body)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "ok" {
		t.Fatalf("/healthz: got (%d, %q)", code, body)
	}
	if code, _ := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before scrape: got %d, want 503", code)
	}
	_ = e.Scrape(t.Context())
	if code, _ := get("/readyz"); code != http.StatusOK {
		t.Fatalf("/readyz after scrape: got %d, want 200", code)
	}
	if code, _ := get("/metrics"); code != http.StatusOK {
		t.Fatalf("/metrics: got %d, want 200", code)
	}
}
