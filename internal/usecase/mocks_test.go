package usecase

import (
	"context"
	"sync"
	"time"

	"MarketMood/internal/domain/models"

	"github.com/stretchr/testify/mock"
)

type mockMarket struct{ mock.Mock }

func (m *mockMarket) Name() string { return "simulated" }

func (m *mockMarket) FetchMarketData(ctx context.Context) (*models.MarketSnapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*models.MarketSnapshot)
	return snap, args.Error(1)
}

type mockNews struct{ mock.Mock }

func (m *mockNews) Name() string { return "simulated" }

func (m *mockNews) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.NewsItem)
	return items, args.Error(1)
}

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, snap *models.MarketSnapshot, news []models.NewsItem) (*models.SentimentReading, error) {
	args := m.Called(ctx, snap, news)
	r, _ := args.Get(0).(*models.SentimentReading)
	return r, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishMarketUpdated(ctx context.Context, ev *models.MarketUpdatedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockArchive struct{ mock.Mock }

func (m *mockArchive) ArchiveCycle(ctx context.Context, ev *models.MarketUpdatedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockLocker struct{ mock.Mock }

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockLocker) Unlock(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockIndexScraper struct{ mock.Mock }

func (m *mockIndexScraper) ScrapeIndices(ctx context.Context) (*models.IndexSet, error) {
	args := m.Called(ctx)
	set, _ := args.Get(0).(*models.IndexSet)
	return set, args.Error(1)
}

type mockCalendarScraper struct{ mock.Mock }

func (m *mockCalendarScraper) ScrapeEconomicCalendar(ctx context.Context) ([]models.EconomicEvent, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.EconomicEvent)
	return rows, args.Error(1)
}

type mockSentimentReader struct{ mock.Mock }

func (m *mockSentimentReader) CurrentSentiment(ctx context.Context) (*models.CurrentSentiment, error) {
	args := m.Called(ctx)
	cur, _ := args.Get(0).(*models.CurrentSentiment)
	return cur, args.Error(1)
}

// recordingWriter keeps the order of writes and can fail a named write.
type recordingWriter struct {
	mu     sync.Mutex
	calls  []string
	failOn string
	err    error

	snapshot *models.MarketSnapshot
	news     []models.NewsItem
	reading  *models.SentimentReading
	events   []models.UpcomingEvent
}

func (w *recordingWriter) record(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, name)
	if name == w.failOn {
		return w.err
	}
	return nil
}

func (w *recordingWriter) SaveMarketData(_ context.Context, snap *models.MarketSnapshot) error {
	w.snapshot = snap
	return w.record("market")
}

func (w *recordingWriter) SaveNews(_ context.Context, items []models.NewsItem) error {
	w.news = items
	return w.record("news")
}

func (w *recordingWriter) SaveSentiment(_ context.Context, r *models.SentimentReading) error {
	w.reading = r
	return w.record("sentiment")
}

func (w *recordingWriter) SaveUpcomingEvents(_ context.Context, events []models.UpcomingEvent) error {
	w.events = events
	return w.record("events")
}

// recordingMetrics counts outcomes by label.
type recordingMetrics struct {
	mu      sync.Mutex
	updates map[string]int
	errors  map[string]int
	score   float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{updates: map[string]int{}, errors: map[string]int{}}
}

func (r *recordingMetrics) RecordUpdate(source, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[source+"/"+result]++
}

func (r *recordingMetrics) RecordError(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[kind]++
}

func (r *recordingMetrics) RecordSentiment(score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.score = score
}

func (r *recordingMetrics) RecordLatency(string, float64) {}
func (r *recordingMetrics) SetLiveConnections(int)        {}
