package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yourls.local/internal/cli"
	"yourls.local/internal/platform/config"
	"yourls.local/internal/platform/logging"
	"yourls.local/internal/platform/metrics"
	"yourls.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	// 日志写 stderr，stdout 只留给命令输出
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	slog.SetDefault(logger)

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.ServiceName)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Debug("starting", "version", version, "commit", commit, "build_time", buildTime)
	return cli.Run(stopCtx, cli.Env{
		Config:  cfg,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
		Version: version,
	}, os.Args[1:])
}
