package scraper

import (
	"context"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/service"
	"MarketMood/pkg/util"
)

const liveSourceName = "live"

// LiveSource serves update cycles from Moneycontrol instead of the simulator.
type LiveSource struct {
	mc        *Moneycontrol
	newsLimit int
	now       func() time.Time
}

// NewLiveSource creates the scraper-backed source. newsLimit <= 0 keeps every headline.
func NewLiveSource(mc *Moneycontrol, newsLimit int) *LiveSource {
	return &LiveSource{mc: mc, newsLimit: newsLimit, now: time.Now}
}

func (s *LiveSource) Name() string { return liveSourceName }

// FetchMarketData maps global quotes to indices and Indian quotes to indianIndices,
// reporting the percent move as the change.
func (s *LiveSource) FetchMarketData(ctx context.Context) (*models.MarketSnapshot, error) {
	set, err := s.mc.ScrapeIndices(ctx)
	if err != nil {
		return nil, err
	}
	return &models.MarketSnapshot{
		Indices:       ToQuotes(set.Global),
		IndianIndices: ToQuotes(set.Indian),
		Timestamp:     s.now(),
	}, nil
}

// FetchNews turns the latest headlines into neutral-impact news items.
func (s *LiveSource) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	articles, err := s.mc.ScrapeLatestNews(ctx)
	if err != nil {
		return nil, err
	}
	if s.newsLimit > 0 && len(articles) > s.newsLimit {
		articles = articles[:s.newsLimit]
	}

	now := s.now()
	items := make([]models.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, models.NewsItem{
			Title:     a.Title,
			Summary:   a.Title,
			Timestamp: util.ParseTimeDefault(a.Timestamp, now),
			Source:    a.Source,
			URL:       a.Link,
			Tags:      []string{a.Source, a.Category},
		})
	}
	return items, nil
}

// ToQuotes converts scraped rows to stored quotes using the percent change.
func ToQuotes(in []models.MarketIndex) []models.IndexQuote {
	out := make([]models.IndexQuote, 0, len(in))
	for _, idx := range in {
		out = append(out, models.IndexQuote{Name: idx.Index, Value: idx.Value, Change: idx.ChangePercent})
	}
	return out
}

var (
	_ service.MarketDataSource = (*LiveSource)(nil)
	_ service.NewsSource       = (*LiveSource)(nil)
	_ service.IndexScraper     = (*Moneycontrol)(nil)
	_ service.CalendarScraper  = (*Calendar)(nil)
)
