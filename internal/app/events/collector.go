package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindCreated Kind = "created" // 新建短链
	KindExists  Kind = "exists"  // 长链接已有短链
	KindDeleted Kind = "deleted"
)

// LinkEvent 短链变更事件
type LinkEvent struct {
	Kind     Kind      `json:"kind"`
	Keyword  string    `json:"keyword"`
	ShortURL string    `json:"shorturl"`
	URL      string    `json:"url"`
	Title    string    `json:"title,omitempty"`
	At       time.Time `json:"at"`
}

// Collector 收集器接口（channel / Kafka）
type Collector interface {
	Collect(event LinkEvent)
	Close()
}

// ChannelCollector 基于 channel 的收集器，满了直接丢弃，不阻塞调用方。
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan LinkEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan LinkEvent, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event LinkEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
	}
}

func (c *ChannelCollector) Events() <-chan LinkEvent {
	return c.ch
}

// Close 可重复调用。
func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Nop 不做任何事，未开启事件投递时使用。
type Nop struct{}

func (Nop) Collect(LinkEvent) {}
func (Nop) Close()            {}
