package repository

import (
	"context"
	"errors"
	"testing"

	"MarketMood/internal/domain/models"
	pkgkafka "MarketMood/pkg/kafka"
	applogger "MarketMood/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	topic   string
	key     []byte
	value   interface{}
	headers []pkgkafka.Header
}

type fakeWriter struct {
	sent []sentMessage
	err  error
}

func (f *fakeWriter) Publish(_ context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error {
	f.sent = append(f.sent, sentMessage{topic: topic, key: key, value: value, headers: headers})
	return f.err
}

func (f *fakeWriter) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	for _, m := range messages {
		f.sent = append(f.sent, sentMessage{topic: topic, key: m.Key, value: m.Value})
	}
	return f.err
}

func TestKafkaPublisherKeysBySourceAndTagsTrace(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, "marketmood.market-updates")
	ev := &models.MarketUpdatedEvent{ID: "ev-9", Source: "live"}

	require.NoError(t, p.PublishMarketUpdated(context.Background(), ev))
	require.Len(t, w.sent, 1)
	assert.Equal(t, "marketmood.market-updates", w.sent[0].topic)
	assert.Equal(t, []byte("live"), w.sent[0].key)
	assert.Same(t, ev, w.sent[0].value)
	assert.Equal(t, []pkgkafka.Header{{Key: pkgkafka.TraceHeader, Value: "ev-9"}}, w.sent[0].headers)
}

func TestKafkaPublisherWrapsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	err := NewKafkaPublisher(w, "updates").PublishMarketUpdated(context.Background(), &models.MarketUpdatedEvent{ID: "ev-1"})
	assert.ErrorContains(t, err, "publish ev-1 to updates")
}

func TestLogPublisherForwardsTopic(t *testing.T) {
	w := &fakeWriter{}
	payload := []string{"entry"}
	require.NoError(t, NewLogPublisher(w).PublishMessage(context.Background(), "marketmood.logs", payload))
	require.Len(t, w.sent, 1)
	assert.Equal(t, "marketmood.logs", w.sent[0].topic)
	assert.Nil(t, w.sent[0].key)
}

func TestLogPublisherSplitsAggregatedEntries(t *testing.T) {
	w := &fakeWriter{}
	entries := []applogger.AggregatedLogEntry{
		{Level: "error", Message: "scrape failed", Caller: "/internal/service/scraper/fetcher.go:160", Count: 3},
		{Level: "error", Message: "archive insert failed", Caller: "/internal/repository/clickhouse_archive.go:88", Count: 1},
	}

	require.NoError(t, NewLogPublisher(w).PublishMessage(context.Background(), "marketmood.logs", entries))
	require.Len(t, w.sent, 2)
	assert.Equal(t, []byte("/internal/service/scraper/fetcher.go:160"), w.sent[0].key)
	assert.Equal(t, entries[1], w.sent[1].value)
}
