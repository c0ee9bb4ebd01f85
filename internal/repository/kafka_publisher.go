package repository

import (
	"context"
	"fmt"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/repository"
	pkgkafka "MarketMood/pkg/kafka"
	applogger "MarketMood/pkg/logger"
)

// messageWriter is the subset of *kafka.Producer used here.
type messageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error
}

// KafkaPublisher publishes update cycles as JSON, keyed by their source so one
// source's cycles stay ordered on a partition.
type KafkaPublisher struct {
	producer messageWriter
	topic    string
}

// NewKafkaPublisher creates an event publisher for topic.
func NewKafkaPublisher(producer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

var _ repository.EventPublisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) PublishMarketUpdated(ctx context.Context, ev *models.MarketUpdatedEvent) error {
	if ev == nil {
		return nil
	}
	err := p.producer.Publish(ctx, p.topic, []byte(ev.Source), ev,
		pkgkafka.Header{Key: pkgkafka.TraceHeader, Value: ev.ID})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.ID, p.topic, err)
	}
	return nil
}

// batchWriter is the subset of *kafka.Producer the log publisher needs.
type batchWriter interface {
	messageWriter
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// LogPublisher ships aggregated error logs from the logger's collector, one
// message per distinct entry keyed by its call site.
type LogPublisher struct {
	producer batchWriter
}

func NewLogPublisher(producer batchWriter) *LogPublisher {
	return &LogPublisher{producer: producer}
}

var _ applogger.Publisher = (*LogPublisher)(nil)

func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	entries, ok := payload.([]applogger.AggregatedLogEntry)
	if !ok {
		return p.producer.Publish(ctx, topic, nil, payload)
	}
	msgs := make([]pkgkafka.Message, 0, len(entries))
	for i := range entries {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(entries[i].Caller), Value: entries[i]})
	}
	return p.producer.PublishBatch(ctx, topic, msgs)
}
