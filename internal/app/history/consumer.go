package history

import (
	"context"
	"log/slog"
	"time"

	"yourls.local/internal/app/events"
)

// BatchSaver 由 Repo 实现。
type BatchSaver interface {
	SaveBatch(ctx context.Context, batch []events.LinkEvent) error
}

// Consumer 从事件通道批量写入历史表。
type Consumer struct {
	saver     BatchSaver
	source    <-chan events.LinkEvent
	batchSize int
	interval  time.Duration
}

func NewConsumer(saver BatchSaver, source <-chan events.LinkEvent) *Consumer {
	return &Consumer{
		saver:     saver,
		source:    source,
		batchSize: 100,         //批量写入大小
		interval:  time.Second, //最大等待时间
	}
}

// Run 阻塞，直到 ctx 结束或 source 关闭，退出前写掉剩余事件。
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]events.LinkEvent, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(batch)
			return
		case event, ok := <-c.source:
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (c *Consumer) flush(batch []events.LinkEvent) {
	if len(batch) == 0 {
		return
	}
	// ctx 可能已经取消，这里用独立的超时
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.saver.SaveBatch(ctx, batch); err != nil {
		slog.Error("link history: flush failed", "err", err, "count", len(batch))
		return
	}
	slog.Debug("link history: flushed", "count", len(batch))
}
