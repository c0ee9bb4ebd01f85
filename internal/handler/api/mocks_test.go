package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/usecase"
	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"

	"github.com/stretchr/testify/mock"
)

type mockReader struct{ mock.Mock }

func (m *mockReader) CurrentSentiment(ctx context.Context) (*models.CurrentSentiment, error) {
	args := m.Called(ctx)
	cur, _ := args.Get(0).(*models.CurrentSentiment)
	return cur, args.Error(1)
}

func (m *mockReader) HistoricalSentiment(ctx context.Context, since time.Time) (*models.HistoricalSentiment, error) {
	args := m.Called(ctx, since)
	h, _ := args.Get(0).(*models.HistoricalSentiment)
	return h, args.Error(1)
}

func (m *mockReader) NewsItems(ctx context.Context, since time.Time) ([]models.NewsItem, error) {
	args := m.Called(ctx, since)
	items, _ := args.Get(0).([]models.NewsItem)
	return items, args.Error(1)
}

func (m *mockReader) MarketMetrics(ctx context.Context) (*models.MarketMetrics, error) {
	args := m.Called(ctx)
	mm, _ := args.Get(0).(*models.MarketMetrics)
	return mm, args.Error(1)
}

func (m *mockReader) MarketFactors(ctx context.Context) (*models.MarketFactors, error) {
	args := m.Called(ctx)
	f, _ := args.Get(0).(*models.MarketFactors)
	return f, args.Error(1)
}

func (m *mockReader) UpcomingEvents(ctx context.Context, from time.Time, limit int) ([]models.UpcomingEvent, error) {
	args := m.Called(ctx, from, limit)
	ev, _ := args.Get(0).([]models.UpcomingEvent)
	return ev, args.Error(1)
}

type mockUpdater struct{ mock.Mock }

func (m *mockUpdater) Update(ctx context.Context, trigger string) (*usecase.UpdateResult, error) {
	args := m.Called(ctx, trigger)
	res, _ := args.Get(0).(*usecase.UpdateResult)
	return res, args.Error(1)
}

type mockNewsScraper struct{ mock.Mock }

func (m *mockNewsScraper) ScrapeIndianIndices(ctx context.Context) ([]models.MarketIndex, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.MarketIndex)
	return v, args.Error(1)
}

func (m *mockNewsScraper) ScrapeGlobalIndices(ctx context.Context) ([]models.MarketIndex, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.MarketIndex)
	return v, args.Error(1)
}

func (m *mockNewsScraper) ScrapeLatestNews(ctx context.Context) ([]models.NewsArticle, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.NewsArticle)
	return v, args.Error(1)
}

func (m *mockNewsScraper) ScrapeMarketNews(ctx context.Context) ([]models.MarketNews, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.MarketNews)
	return v, args.Error(1)
}

func (m *mockNewsScraper) ScrapeAllNews(ctx context.Context) ([]models.MarketNews, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.MarketNews)
	return v, args.Error(1)
}

type mockCalendar struct{ mock.Mock }

func (m *mockCalendar) ScrapeEconomicCalendar(ctx context.Context) ([]models.EconomicEvent, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.EconomicEvent)
	return v, args.Error(1)
}

type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPinger struct{ mock.Mock }

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// serve runs one request through a full server so the error envelope and middleware apply.
func serve(t *testing.T, method, target string, handlers ...xhttp.Handler) *httptest.ResponseRecorder {
	t.Helper()
	srv := xhttp.NewServer(handlers, xhttp.WithLogger(xlogger.Nop()))
	req := httptest.NewRequest(method, target, strings.NewReader(""))
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}
