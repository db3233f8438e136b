package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestChannelCollector_DeliversInOrder(t *testing.T) {
	c := NewChannelCollector(4)
	c.Collect(LinkEvent{Kind: KindCreated, Keyword: "a"})
	c.Collect(LinkEvent{Kind: KindExists, Keyword: "b"})
	c.Close()

	var got []string
	for e := range c.Events() {
		got = append(got, string(e.Kind)+":"+e.Keyword)
	}
	if len(got) != 2 || got[0] != "created:a" || got[1] != "exists:b" {
		t.Fatalf("events: got %v", got)
	}
}

func TestChannelCollector_DropsWhenFull(t *testing.T) {
	c := NewChannelCollector(1)
	c.Collect(LinkEvent{Keyword: "a"})
	c.Collect(LinkEvent{Keyword: "b"}) // 不应阻塞

	if n := len(c.Events()); n != 1 {
		t.Fatalf("buffered: got %d, want 1", n)
	}
	c.Close()
}

func TestChannelCollector_CollectAfterClose(t *testing.T) {
	c := NewChannelCollector(1)
	c.Close()
	c.Close()
	c.Collect(LinkEvent{Keyword: "a"}) // 不应 panic
}

func TestLinkEvent_JSON(t *testing.T) {
	e := LinkEvent{
		Kind:     KindCreated,
		Keyword:  "abc",
		ShortURL: "https://sho.rt/abc",
		URL:      "http://example.com",
		At:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"kind":"created","keyword":"abc","shorturl":"https://sho.rt/abc","url":"http://example.com","at":"2026-01-02T03:04:05Z"}`
	if string(data) != want {
		t.Fatalf("json: got %s, want %s", data, want)
	}
}
