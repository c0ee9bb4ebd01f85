package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	applogger "MarketMood/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type updaterFixture struct {
	market   *mockMarket
	news     *mockNews
	analyzer *mockAnalyzer
	writer   *recordingWriter
	metrics  *recordingMetrics

	snap    *models.MarketSnapshot
	items   []models.NewsItem
	reading *models.SentimentReading
}

func newUpdaterFixture() *updaterFixture {
	return &updaterFixture{
		market:   &mockMarket{},
		news:     &mockNews{},
		analyzer: &mockAnalyzer{},
		writer:   &recordingWriter{},
		metrics:  newRecordingMetrics(),
		snap:     &models.MarketSnapshot{Indices: []models.IndexQuote{{Name: "S&P 500", Value: 5100, Change: 0.4}}},
		items:    []models.NewsItem{{Title: "Markets rally", SentimentImpact: 1.6}},
		reading:  &models.SentimentReading{Score: 63.2, MarketStatus: models.StatusNeutral},
	}
}

func (f *updaterFixture) expectHappyFetch() {
	f.market.On("FetchMarketData", mock.Anything).Return(f.snap, nil)
	f.news.On("FetchNews", mock.Anything).Return(f.items, nil)
	f.analyzer.On("Analyze", mock.Anything, f.snap, f.items).Return(f.reading, nil)
}

func (f *updaterFixture) updater(opts ...UpdaterOption) *MarketUpdater {
	opts = append([]UpdaterOption{WithUpdaterMetrics(f.metrics)}, opts...)
	u := NewMarketUpdater(f.market, f.news, f.analyzer, f.writer, applogger.Nop(), opts...)
	u.newID = func() string { return "ev-1" }
	return u
}

func TestUpdatePersistsInOrderAndPublishes(t *testing.T) {
	f := newUpdaterFixture()
	f.expectHappyFetch()
	pub := &mockPublisher{}
	pub.On("PublishMarketUpdated", mock.Anything, mock.MatchedBy(func(ev *models.MarketUpdatedEvent) bool {
		return ev.ID == "ev-1" && ev.Source == "simulated" && ev.Trigger == TriggerAPI &&
			ev.Sentiment == f.reading && ev.Snapshot == f.snap && ev.NewsCount == 1
	})).Return(nil).Once()

	res, err := f.updater(WithEventPublisher(pub)).Update(context.Background(), TriggerAPI)
	require.NoError(t, err)

	assert.Equal(t, []string{"market", "news", "sentiment"}, f.writer.calls)
	assert.Same(t, f.snap, f.writer.snapshot)
	assert.Equal(t, f.items, f.writer.news)
	assert.Same(t, f.reading, f.writer.reading)
	assert.Equal(t, "ev-1", res.EventID)
	assert.Equal(t, 1, res.NewsCount)
	assert.Equal(t, 1, f.metrics.updates["simulated/success"])
	assert.Equal(t, 63.2, f.metrics.score)
	pub.AssertExpectations(t)
}

func TestUpdateFetchFailureWritesNothing(t *testing.T) {
	f := newUpdaterFixture()
	f.market.On("FetchMarketData", mock.Anything).Return(f.snap, nil)
	f.news.On("FetchNews", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := f.updater().Update(context.Background(), TriggerScheduler)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch news")
	assert.Empty(t, f.writer.calls)
	assert.Equal(t, 1, f.metrics.updates["simulated/error"])
	assert.Equal(t, 1, f.metrics.errors["fetch_news"])
	f.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStopsAtFirstFailedWrite(t *testing.T) {
	f := newUpdaterFixture()
	f.expectHappyFetch()
	f.writer.failOn = "news"
	f.writer.err = errors.New("connection reset")
	archive := &mockArchive{}

	_, err := f.updater(WithArchive(archive)).Update(context.Background(), TriggerAPI)
	require.ErrorContains(t, err, "connection reset")
	assert.Equal(t, []string{"market", "news"}, f.writer.calls)
	assert.Equal(t, 1, f.metrics.errors["persist"])
	archive.AssertNotCalled(t, "ArchiveCycle", mock.Anything, mock.Anything)
}

func TestUpdateArchiveFailureDoesNotFailCycle(t *testing.T) {
	f := newUpdaterFixture()
	f.expectHappyFetch()
	archive := &mockArchive{}
	archive.On("ArchiveCycle", mock.Anything, mock.Anything).Return(errors.New("clickhouse down")).Once()

	res, err := f.updater(WithArchive(archive)).Update(context.Background(), TriggerScheduler)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, f.metrics.errors["archive"])
	archive.AssertExpectations(t)
}

func TestUpdateRejectedWhileLocked(t *testing.T) {
	f := newUpdaterFixture()
	locker := &mockLocker{}
	locker.On("TryLock", mock.Anything, updateLockKey, time.Minute).Return(false, nil).Once()

	_, err := f.updater(WithLocker(locker, time.Minute)).Update(context.Background(), TriggerAPI)
	assert.ErrorIs(t, err, ErrUpdateInProgress)
	f.market.AssertNotCalled(t, "FetchMarketData", mock.Anything)
	locker.AssertExpectations(t)
}

func TestUpdateReleasesLock(t *testing.T) {
	f := newUpdaterFixture()
	f.expectHappyFetch()
	locker := &mockLocker{}
	locker.On("TryLock", mock.Anything, updateLockKey, time.Minute).Return(true, nil).Once()
	locker.On("Unlock", mock.Anything, updateLockKey).Return(nil).Once()

	_, err := f.updater(WithLocker(locker, time.Minute)).Update(context.Background(), TriggerAPI)
	require.NoError(t, err)
	locker.AssertExpectations(t)
}
