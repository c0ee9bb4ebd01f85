package service

import (
	"context"

	"MarketMood/internal/domain/models"
)

// MarketDataSource produces one cycle of market data.
type MarketDataSource interface {
	Name() string
	FetchMarketData(ctx context.Context) (*models.MarketSnapshot, error)
}

// NewsSource produces the news batch for one cycle.
type NewsSource interface {
	Name() string
	FetchNews(ctx context.Context) ([]models.NewsItem, error)
}

// SentimentAnalyzer derives a sentiment reading from a market snapshot and its news.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, snap *models.MarketSnapshot, news []models.NewsItem) (*models.SentimentReading, error)
}

// IndexScraper reads live index quotes.
type IndexScraper interface {
	ScrapeIndices(ctx context.Context) (*models.IndexSet, error)
}

// CalendarScraper reads upcoming economic events.
type CalendarScraper interface {
	ScrapeEconomicCalendar(ctx context.Context) ([]models.EconomicEvent, error)
}

// Rand is the randomness used by generators and the analyzer; *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}
