package history

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"yourls.local/internal/app/events"
)

// KafkaSource 把 Kafka 里的 LinkEvent 解码后送进 channel，交给 Consumer 批量落库。
type KafkaSource struct {
	reader *kafka.Reader
}

func NewKafkaSource(brokers []string, topic string) *KafkaSource {
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  "yourls-link-history",
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Events 启动读取协程，ctx 结束时关闭返回的 channel。
func (k *KafkaSource) Events(ctx context.Context, buffer int) <-chan events.LinkEvent {
	ch := make(chan events.LinkEvent, buffer)
	go func() {
		defer close(ch)
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("kafka read failed", "err", err)
				continue
			}
			var event events.LinkEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("unmarshal link event failed", "err", err, "offset", msg.Offset)
				continue
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (k *KafkaSource) Close() error {
	return k.reader.Close()
}
