package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketMood/internal/domain/models"
	svcmetrics "MarketMood/internal/service/metrics"
	"MarketMood/pkg/util"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMoneycontrolURL = "https://www.moneycontrol.com"

	indicesPath    = "/stocksmarketsindia/"
	latestNewsPath = "/news/"
	marketNewsPath = "/markets/"
)

// Moneycontrol scrapes index quotes and headlines from moneycontrol.com.
type Moneycontrol struct {
	fetcher PageFetcher
	baseURL string
	now     func() time.Time
}

// NewMoneycontrol creates a scraper rooted at baseURL.
func NewMoneycontrol(fetcher PageFetcher, baseURL string) *Moneycontrol {
	if baseURL == "" {
		baseURL = DefaultMoneycontrolURL
	}
	return &Moneycontrol{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// BaseURL returns the site root, also used as the Referer.
func (m *Moneycontrol) BaseURL() string { return m.baseURL }

func (m *Moneycontrol) document(ctx context.Context, path string) (*goquery.Document, error) {
	html, err := m.fetcher.Fetch(ctx, m.baseURL+path)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// ScrapeIndices reads the markets overview once and splits it into Indian and global indices.
func (m *Moneycontrol) ScrapeIndices(ctx context.Context) (*models.IndexSet, error) {
	doc, err := m.document(ctx, indicesPath)
	if err != nil {
		return nil, fmt.Errorf("scrape indices: %w", err)
	}
	set := ParseIndices(doc)
	svcmetrics.ScrapedRecords.WithLabelValues("indian_indices").Set(float64(len(set.Indian)))
	svcmetrics.ScrapedRecords.WithLabelValues("global_indices").Set(float64(len(set.Global)))
	return set, nil
}

func (m *Moneycontrol) ScrapeIndianIndices(ctx context.Context) ([]models.MarketIndex, error) {
	set, err := m.ScrapeIndices(ctx)
	if err != nil {
		return nil, err
	}
	return set.Indian, nil
}

func (m *Moneycontrol) ScrapeGlobalIndices(ctx context.Context) ([]models.MarketIndex, error) {
	set, err := m.ScrapeIndices(ctx)
	if err != nil {
		return nil, err
	}
	return set.Global, nil
}

func (m *Moneycontrol) ScrapeLatestNews(ctx context.Context) ([]models.NewsArticle, error) {
	doc, err := m.document(ctx, latestNewsPath)
	if err != nil {
		return nil, fmt.Errorf("scrape latest news: %w", err)
	}
	out := ParseLatestNews(doc, m.baseURL, m.now())
	svcmetrics.ScrapedRecords.WithLabelValues("latest_news").Set(float64(len(out)))
	return out, nil
}

func (m *Moneycontrol) ScrapeMarketNews(ctx context.Context) ([]models.MarketNews, error) {
	doc, err := m.document(ctx, marketNewsPath)
	if err != nil {
		return nil, fmt.Errorf("scrape market news: %w", err)
	}
	out := ParseMarketNews(doc, m.baseURL, m.now())
	svcmetrics.ScrapedRecords.WithLabelValues("market_news").Set(float64(len(out)))
	return out, nil
}

// ScrapeAllNews merges latest and market news, newest first.
// Items whose timestamp cannot be parsed sort after dated ones.
func (m *Moneycontrol) ScrapeAllNews(ctx context.Context) ([]models.MarketNews, error) {
	var (
		latest []models.NewsArticle
		market []models.MarketNews
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		latest, err = m.ScrapeLatestNews(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		market, err = m.ScrapeMarketNews(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]models.MarketNews, 0, len(latest)+len(market))
	for _, a := range latest {
		all = append(all, models.MarketNews{
			Title:     a.Title,
			Link:      a.Link,
			Category:  a.Category,
			Timestamp: a.Timestamp,
			Source:    a.Source,
			Type:      models.NewsTypeUpdate,
		})
	}
	all = append(all, market...)

	sort.SliceStable(all, func(i, j int) bool {
		ti, oki := util.ParseTime(all[i].Timestamp)
		tj, okj := util.ParseTime(all[j].Timestamp)
		switch {
		case oki && okj:
			return ti.After(tj)
		case oki:
			return true
		default:
			return false
		}
	})
	return all, nil
}
