package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	drepo "MarketMood/internal/domain/repository"
)

// ArchiveHandler consumes market update events from Kafka and writes them to the archive.
type ArchiveHandler struct {
	topic   string
	archive drepo.Archive
	metrics drepo.Metrics
}

func NewArchiveHandler(topic string, archive drepo.Archive, metrics drepo.Metrics) *ArchiveHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ArchiveHandler{topic: topic, archive: archive, metrics: metrics}
}

func (h *ArchiveHandler) Topic() string { return h.topic }

// Handle decodes a MarketUpdatedEvent. Malformed payloads fail without touching the archive.
func (h *ArchiveHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.MarketUpdatedEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode market update: %w", err)
	}
	if ev.ID == "" {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode market update: missing id")
	}
	if !ev.CreatedAt.IsZero() {
		h.metrics.RecordLatency("archive_e2e", time.Since(ev.CreatedAt).Seconds())
	}

	start := time.Now()
	err := h.archive.ArchiveCycle(ctx, &ev)
	h.metrics.RecordLatency("archive_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_archive")
		return err
	}
	return nil
}
