package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
	got     chan struct{}
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	select {
	case p.got <- struct{}{}:
	default:
	}
	return nil
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Format: "json", Output: "stdout"})
	require.Error(t, err)
}

func TestCollectorAggregatesDuplicateErrors(t *testing.T) {
	pub := &capturePublisher{got: make(chan struct{}, 1)}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "marketmood.logs",
		Publisher:      pub,
	})
	defer l.RemoveCollector()

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		l.Error("scrape failed", String("source", "moneycontrol"), Error(boom))
	}
	l.Error("store failed", Error(boom))

	select {
	case <-pub.got:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not flush")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "marketmood.logs", pub.topic)
	require.Len(t, pub.batches, 1)
	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Message] = e.Count
		assert.Equal(t, "error", e.Level)
	}
	assert.Equal(t, 2, counts["scrape failed"])
	assert.Equal(t, 1, counts["store failed"])
}

func TestWithSharesCollector(t *testing.T) {
	pub := &capturePublisher{got: make(chan struct{}, 1)}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 1, Topic: "t", Publisher: pub})
	defer l.RemoveCollector()

	l.With("scheduler").Error("run failed")

	select {
	case <-pub.got:
	case <-time.After(2 * time.Second):
		t.Fatal("child logger did not reach the collector")
	}
}

func TestErrorFieldNil(t *testing.T) {
	k, v := Error(nil).GetKeyValue()
	assert.Equal(t, "error", k)
	assert.Equal(t, "", v)
}

func TestWithFieldsTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	l.WithFields(String("conn_id", "c-1")).Info("connected")

	assert.Contains(t, buf.String(), `"conn_id":"c-1"`)
	assert.Contains(t, buf.String(), `"message":"connected"`)
}

func TestRemoveCollectorFlushesPending(t *testing.T) {
	pub := &capturePublisher{got: make(chan struct{}, 1)}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 50, Topic: "t", Publisher: pub})

	l.Error("archive insert failed", String("table", "sentiment_archive"))
	l.Error("archive insert failed", String("table", "index_archive"))
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 2)
}
