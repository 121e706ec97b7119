package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type chanPublisher struct {
	topic string
	ch    chan []AggregatedLogEntry
}

func (p *chanPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.topic = topic
	p.ch <- payload.([]AggregatedLogEntry)
	return nil
}

func TestWithWriterFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info").With(String("agent", "station"))
	l.Debug("hidden")
	l.Warn("source failed", String("source", "vix"), Float64("score", 12.5), Error(errors.New("timeout")))

	out := strings.TrimSpace(buf.String())
	if strings.Count(out, "\n") != 0 {
		t.Fatalf("debug entry should be filtered: %s", out)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if m["agent"] != "station" || m["source"] != "vix" || m["error"] != "timeout" || m["score"] != 12.5 {
		t.Fatalf("unexpected entry: %v", m)
	}
}

func TestCollectorDeduplicatesAndFlushesOnRemove(t *testing.T) {
	pub := &chanPublisher{ch: make(chan []AggregatedLogEntry, 1)}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Service: "tradeguard", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Warn("source failed", String("source", "vix"))
	}
	l.Error("agent panicked", String("agent", "pattern"))
	l.Info("not collected")
	if got := l.collector.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	l.RemoveCollector()

	select {
	case entries := <-pub.ch:
		if pub.topic != "logs" || len(entries) != 2 {
			t.Fatalf("topic %q entries %d", pub.topic, len(entries))
		}
		for _, e := range entries {
			if e.Service != "tradeguard" {
				t.Fatalf("service not stamped: %+v", e)
			}
			if e.Level == "warn" && e.Count != 3 {
				t.Fatalf("warn count = %d, want 3", e.Count)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no flush after close")
	}
}

func TestAddCollectorWithoutPublisherIsIgnored(t *testing.T) {
	l := NewNop()
	l.AddCollector(&CollectionConfig{Topic: "logs"})
	if l.collector != nil {
		t.Fatalf("collector without publisher should not attach")
	}
	l.Error("fine", Error(nil))
}

func TestCollectorThresholdFlushOrdersByCount(t *testing.T) {
	pub := &chanPublisher{ch: make(chan []AggregatedLogEntry, 2)}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("warn", "noisy", map[string]interface{}{"n": 1}, "b.go:2")
	c.AddLog("warn", "noisy", map[string]interface{}{"n": 1}, "b.go:2")
	c.AddLog("warn", "quiet", nil, "a.go:1")

	select {
	case entries := <-pub.ch:
		if len(entries) != 2 || entries[0].Message != "noisy" || entries[0].Count != 2 {
			t.Fatalf("unexpected batch: %+v", entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("threshold did not flush")
	}
	if c.Pending() != 0 {
		t.Fatalf("window not reset")
	}
}
