package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"yourls.local/internal/app/events"
)

type fakeSaver struct {
	mu      sync.Mutex
	batches [][]events.LinkEvent
}

func (f *fakeSaver) SaveBatch(ctx context.Context, batch []events.LinkEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]events.LinkEvent(nil), batch...))
	return nil
}

func (f *fakeSaver) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestConsumer_FlushesOnClose(t *testing.T) {
	saver := &fakeSaver{}
	col := events.NewChannelCollector(10)
	c := NewConsumer(saver, col.Events())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	col.Collect(events.LinkEvent{Kind: events.KindCreated, Keyword: "a"})
	col.Collect(events.LinkEvent{Kind: events.KindExists, Keyword: "b"})
	col.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after source closed")
	}
	if n := saver.total(); n != 2 {
		t.Fatalf("saved: got %d, want 2", n)
	}
}

func TestConsumer_FlushesFullBatch(t *testing.T) {
	saver := &fakeSaver{}
	src := make(chan events.LinkEvent, 10)
	c := NewConsumer(saver, src)
	c.batchSize = 2
	c.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	src <- events.LinkEvent{Keyword: "a"}
	src <- events.LinkEvent{Keyword: "b"}

	deadline := time.Now().Add(2 * time.Second)
	for saver.total() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("full batch was not flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.batches) != 1 || len(saver.batches[0]) != 2 {
		t.Fatalf("batches: got %v", saver.batches)
	}
}

func TestConsumer_FlushesOnCancel(t *testing.T) {
	saver := &fakeSaver{}
	src := make(chan events.LinkEvent, 10)
	c := NewConsumer(saver, src)
	c.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	src <- events.LinkEvent{Keyword: "a"}
	// 等事件被读进 batch
	for len(src) > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if n := saver.total(); n != 1 {
		t.Fatalf("saved: got %d, want 1", n)
	}
}
