package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"yourls.local/internal/app/bulk"
	"yourls.local/internal/app/events"
	"yourls.local/internal/app/exporter"
	"yourls.local/internal/app/history"
	"yourls.local/internal/platform/httpserver"
	"yourls.local/internal/platform/ratelimit"
)

// collector 根据配置选择事件投递方式：
//   - Kafka：异步写入 topic，由 ingest 命令落库
//   - DB_DSN：本进程内 channel + history.Consumer 直接落库
//   - 都没有：丢弃
//
// 返回的 finish 会关闭 collector 并等待落库完成。
func (a *app) collector(ctx context.Context) (events.Collector, func()) {
	if a.cfg.KafkaEnabled {
		c := events.NewKafkaCollector(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
		return c, c.Close
	}
	if a.cfg.DBDSN != "" {
		repo, err := a.historyRepo(ctx)
		if err != nil {
			slog.Warn("link history disabled", "err", err)
			return events.Nop{}, func() {}
		}
		c := events.NewChannelCollector(1000)
		consumer := history.NewConsumer(repo, c.Events())
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			// source 关闭后 Run 会写掉剩余事件再返回
			consumer.Run(context.WithoutCancel(ctx))
		}()
		return c, func() {
			c.Close()
			wg.Wait()
		}
	}
	return events.Nop{}, func() {}
}

// record 投递单个事件，失败只记日志。
func (a *app) record(ctx context.Context, e events.LinkEvent) {
	if !a.cfg.KafkaEnabled && a.cfg.DBDSN == "" {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	c, finish := a.collector(ctx)
	c.Collect(e)
	finish()
}

func runBulk(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "bulk")
	genKeywords := fs.Bool("keywords", false, "generate keywords locally instead of letting the server pick")
	seed := fs.Uint64("seed", 1, "first sequence number for generated keywords")
	minLen := fs.Uint("min-length", 5, "minimum generated keyword length")
	title := fs.String("title", "", "title for every link")
	pos, err := parseCommand(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if *minLen > 255 {
		return usagef("-min-length must be <= 255")
	}

	var in io.Reader = os.Stdin
	if pos[0] != "-" {
		f, err := os.Open(pos[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	urls, err := bulk.ReadURLs(in)
	if err != nil {
		return err
	}

	api, err := a.api()
	if err != nil {
		return err
	}

	opts := bulk.Options{Title: *title, Logger: a.env.Logger}
	if *genKeywords {
		gen, err := bulk.NewKeywordGen(*seed, uint8(*minLen))
		if err != nil {
			return err
		}
		opts.Keywords = gen
	}
	if a.cfg.RateLimitEnabled {
		rc, err := a.redisClient()
		if err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		opts.Throttle = ratelimit.NewLimiter(rc, a.cfg.BulkRateLimit, a.cfg.BulkRateWindow)
	}
	col, finish := a.collector(ctx)
	opts.Collector = col

	results, sum, err := bulk.NewImporter(api, opts).Import(ctx, urls)
	finish()
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(a.env.Stdout, "%s\t%s\t%v\n", r.Status, r.URL, r.Err)
		case r.Link.ShortURL != "":
			fmt.Fprintf(a.env.Stdout, "%s\t%s\t%s\n", r.Status, r.URL, r.Link.ShortURL)
		default:
			fmt.Fprintf(a.env.Stdout, "%s\t%s\n", r.Status, r.URL)
		}
	}
	fmt.Fprintf(a.env.Stdout, "Summary: %s\n", sum)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d urls failed", sum.Failed, len(urls))
	}
	return nil
}

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "history")
	keyword := fs.String("keyword", "", "only this keyword")
	limit := fs.Int("limit", 20, "number of records")
	if _, err := parseCommand(fs, args, 0, 0); err != nil {
		return err
	}
	repo, err := a.historyRepo(ctx)
	if err != nil {
		return err
	}
	records, err := repo.List(ctx, *keyword, *limit)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(a.env.Stdout, "%s\t%s\t%s\t%s\n", r.OccurredAt.Format(time.RFC3339), r.Kind, r.Keyword, r.URL)
	}
	return nil
}

// runIngest 把 Kafka 中的事件落到 history 表，直到收到退出信号。
func runIngest(ctx context.Context, a *app, args []string) error {
	if _, err := parseCommand(newFlagSet(a, "ingest"), args, 0, 0); err != nil {
		return err
	}
	if !a.cfg.KafkaEnabled {
		return fmt.Errorf("ingest needs KAFKA_ENABLED=true")
	}
	repo, err := a.historyRepo(ctx)
	if err != nil {
		return err
	}
	src := history.NewKafkaSource(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
	defer src.Close()

	a.env.Logger.Info("ingesting link events", "brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaTopic)
	history.NewConsumer(repo, src.Events(ctx, 100)).Run(ctx)
	return nil
}

func runExporter(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "exporter")
	addr := fs.String("addr", a.cfg.MetricsAddr, "listen address")
	interval := fs.Duration("interval", a.cfg.ExporterInterval, "db-stats poll interval")
	if _, err := parseCommand(fs, args, 0, 0); err != nil {
		return err
	}
	c, err := a.yourlsClient()
	if err != nil {
		return err
	}

	exp := exporter.New(c, *interval, a.env.Logger)
	handler := exp.Handler(a.cfg.ServiceName, a.env.Version)
	if a.cfg.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "exporter")
	}
	srv := httpserver.New(httpserver.Options{
		Addr:              *addr,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ShutdownTimeout:   a.cfg.ShutdownTimeout,
	}, handler)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go exp.Run(runCtx)

	a.env.Logger.Info("exporter listening", "addr", *addr, "interval", interval.String(), "apiurl", c.APIURL())
	return httpserver.Run(runCtx, srv, a.cfg.ShutdownTimeout)
}
