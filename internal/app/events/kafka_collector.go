package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{}, // 同一个 keyword 落到同一分区，保证顺序
			Async:    true,
		},
	}
}

func (k *KafkaCollector) Collect(event LinkEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal link event failed", "err", err)
		return
	}
	err = k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Keyword),
		Value: data,
	})
	if err != nil {
		slog.Error("kafka write failed", "err", err)
	}
}

// Close 会把异步缓冲里的消息刷出去。
func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}
