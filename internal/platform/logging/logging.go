package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New 按 format 选择 handler：json 给采集系统，其他值输出 text 方便终端阅读。
func New(w io.Writer, level slog.Level, format, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h)
	if service != "" {
		l = l.With("service", service)
	}
	return l
}
