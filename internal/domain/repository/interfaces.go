package repository

import (
	"context"
	"errors"
	"time"

	"MarketMood/internal/domain/models"
)

// ErrNoSentiment is returned when no sentiment reading has been stored yet.
var ErrNoSentiment = errors.New("no sentiment data found")

// DashboardReader serves the read side of the dashboard.
type DashboardReader interface {
	CurrentSentiment(ctx context.Context) (*models.CurrentSentiment, error)
	HistoricalSentiment(ctx context.Context, since time.Time) (*models.HistoricalSentiment, error)
	NewsItems(ctx context.Context, since time.Time) ([]models.NewsItem, error)
	MarketMetrics(ctx context.Context) (*models.MarketMetrics, error)
	MarketFactors(ctx context.Context) (*models.MarketFactors, error)
	UpcomingEvents(ctx context.Context, from time.Time, limit int) ([]models.UpcomingEvent, error)
}

// DashboardWriter appends observations. Each call is its own transaction.
type DashboardWriter interface {
	SaveMarketData(ctx context.Context, snap *models.MarketSnapshot) error
	SaveNews(ctx context.Context, items []models.NewsItem) error
	SaveSentiment(ctx context.Context, reading *models.SentimentReading) error
	SaveUpcomingEvents(ctx context.Context, events []models.UpcomingEvent) error
}

// Store is the full persistence contract.
type Store interface {
	DashboardReader
	DashboardWriter
	Ping(ctx context.Context) error
}

// EventPublisher fans update cycles out to downstream consumers.
type EventPublisher interface {
	PublishMarketUpdated(ctx context.Context, ev *models.MarketUpdatedEvent) error
}

// Archive keeps the long-term analytical history of update cycles.
type Archive interface {
	ArchiveCycle(ctx context.Context, ev *models.MarketUpdatedEvent) error
}

// Metrics records service-level measurements.
type Metrics interface {
	RecordUpdate(source, result string)
	RecordError(kind string)
	RecordSentiment(score float64)
	RecordLatency(op string, seconds float64)
	SetLiveConnections(n int)
}
