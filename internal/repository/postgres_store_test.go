package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/repository"
	applogger "MarketMood/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPostgresStore(sqlx.NewDb(raw, "postgres"), applogger.Nop()), mock
}

func sqlRe(s string) string { return regexp.QuoteMeta(s) }

func TestCurrentSentimentEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(sqlRe("FROM sentiment_scores ORDER BY timestamp DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"score"}))

	_, err := store.CurrentSentiment(context.Background())
	assert.ErrorIs(t, err, repository.ErrNoSentiment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentSentimentMapsLatestRow(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(sqlRe("FROM sentiment_scores")).
		WillReturnRows(sqlmock.NewRows([]string{
			"score", "change", "market_status", "trend_direction", "volatility",
			"confidence_label", "confidence_value", "timestamp",
		}).AddRow(72.5, 1.8, "Bullish", "Upward", "Low", "High", 84.0, ts))

	cur, err := store.CurrentSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 72.5, cur.Score)
	assert.Equal(t, models.StatusBullish, cur.MarketStatus)
	assert.Equal(t, models.TrendUpward, cur.TrendDirection)
	assert.Equal(t, models.LevelLow, cur.Volatility)
	assert.Equal(t, models.Confidence{Label: models.LevelHigh, Value: 84}, cur.Confidence)
	assert.Equal(t, ts, cur.LastUpdated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoricalSentimentReturnsEmptySlices(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(sqlRe("FROM historical_sentiment WHERE timestamp >= $1 ORDER BY timestamp")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "score"}))
	mock.ExpectQuery(sqlRe("FROM key_events WHERE timestamp >= $1 ORDER BY timestamp")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"title", "description", "timestamp", "impact"}))

	h, err := store.HistoricalSentiment(context.Background(), since)
	require.NoError(t, err)
	assert.NotNil(t, h.SentimentHistory)
	assert.NotNil(t, h.KeyEvents)
	assert.Empty(t, h.SentimentHistory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsItemsDecodesTags(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(sqlRe("FROM news_items WHERE timestamp >= $1 ORDER BY timestamp DESC")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "summary", "source", "url", "sentiment_impact", "timestamp", "tags",
		}).AddRow(3, "Fed holds", "Rates unchanged", "Reuters", "https://www.reuters.com/fed-holds", 1.2, ts, []byte(`["Economy","Policy"]`)))

	items, err := store.NewsItems(context.Background(), ts.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, []string{"Economy", "Policy"}, items[0].Tags)
	assert.Equal(t, 1.2, items[0].SentimentImpact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketMetricsGroupsLatestRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(sqlRe("FROM market_latest")).
		WithArgs(kindIndex, kindIndianIndex, kindSector).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "name", "value", "change", "factor_id"}).
			AddRow(kindIndex, "S&P 500", 5120.4, 0.4, nil).
			AddRow(kindIndianIndex, "NIFTY 50", 22100.0, -0.2, nil).
			AddRow(kindSector, "Technology", 0, 1.1, nil))
	mock.ExpectQuery(sqlRe("FROM nifty_pcr ORDER BY timestamp DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	m, err := store.MarketMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.IndexQuote{{Name: "S&P 500", Value: 5120.4, Change: 0.4}}, m.Indices)
	assert.Equal(t, []models.IndexQuote{{Name: "NIFTY 50", Value: 22100.0, Change: -0.2}}, m.IndianIndices)
	assert.Equal(t, []models.SectorPerformance{{Name: "Technology", Change: 1.1}}, m.SectorPerformance)
	assert.Nil(t, m.NiftyPCR)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketFactorsAttachesElements(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(sqlRe("FROM market_latest")).
		WithArgs(kindFactor).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "name", "value", "change", "factor_id"}).
			AddRow(kindFactor, "Economic Indicators", 6.8, 0, 11).
			AddRow(kindFactor, "Technical Analysis", 7.2, 0, 12))
	mock.ExpectQuery(sqlRe("FROM factor_elements WHERE factor_id IN ($1, $2) ORDER BY id")).
		WithArgs(int64(11), int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"factor_id", "name", "status"}).
			AddRow(11, "GDP Growth", "Positive").
			AddRow(12, "Moving Averages", "Bullish").
			AddRow(11, "Inflation", "Concerning"))

	f, err := store.MarketFactors(context.Background())
	require.NoError(t, err)
	require.Len(t, f.Factors, 2)
	assert.Equal(t, "Economic Indicators", f.Factors[0].Name)
	assert.Equal(t, 6.8, f.Factors[0].Score)
	assert.Equal(t, []models.FactorElement{{Name: "GDP Growth", Status: "Positive"}, {Name: "Inflation", Status: "Concerning"}}, f.Factors[0].Elements)
	assert.Equal(t, []models.FactorElement{{Name: "Moving Averages", Status: "Bullish"}}, f.Factors[1].Elements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMarketDataWritesEachGroup(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	snap := &models.MarketSnapshot{
		Indices: []models.IndexQuote{
			{Name: "S&P 500", Value: 5100, Change: 0.1},
			{Name: ""},
			{Name: "S&P 500", Value: 5120.4, Change: 0.4},
		},
		NiftyPCR: &models.NiftyPCR{Value: 1.1, Change: 0.02, PutVolume: 100, CallVolume: 90},
		Factors: []models.MarketFactor{
			{Name: "Technical Analysis", Score: 7.2, Elements: []models.FactorElement{{Name: "RSI", Status: "Neutral"}}},
		},
		Timestamp: ts,
	}

	mock.ExpectBegin()
	mock.ExpectExec(sqlRe("INSERT INTO market_indices")).
		WithArgs("S&P 500", 5100.0, 0.1, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(sqlRe("INSERT INTO market_latest")).
		WithArgs(kindIndex, "S&P 500", 5100.0, 0.1, nil, 0, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(sqlRe("INSERT INTO nifty_pcr")).
		WithArgs(1.1, 0.02, int64(100), int64(90), ts).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("INSERT INTO market_factors")).
		WithArgs("Technical Analysis", 7.2, ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectExec(sqlRe("INSERT INTO factor_elements")).
		WithArgs(int64(21), "RSI", "Neutral").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(sqlRe("INSERT INTO market_latest")).
		WithArgs(kindFactor, "Technical Analysis", 7.2, 0, int64(21), 0, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveMarketData(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDedupeQuotesKeepsFirstPerName(t *testing.T) {
	got := dedupeQuotes([]models.IndexQuote{
		{Name: "NASDAQ", Value: 16000, Change: 0.3},
		{Name: ""},
		{Name: "Dow Jones", Value: 38000, Change: 0.2},
		{Name: "NASDAQ", Value: 16100, Change: 0.9},
	})
	assert.Equal(t, []models.IndexQuote{
		{Name: "NASDAQ", Value: 16000, Change: 0.3},
		{Name: "Dow Jones", Value: 38000, Change: 0.2},
	}, got)
}

func TestSaveMarketDataKeepsEarlierGroupsOnFailure(t *testing.T) {
	store, mock := newMockStore(t)
	snap := &models.MarketSnapshot{
		Indices:           []models.IndexQuote{{Name: "Dow Jones", Value: 38000, Change: 0.2}},
		SectorPerformance: []models.SectorPerformance{{Name: "Energy", Change: -0.5}},
		NiftyPCR:          &models.NiftyPCR{Value: 1},
		Timestamp:         time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(sqlRe("INSERT INTO market_indices")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(sqlRe("INSERT INTO market_latest")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(sqlRe("INSERT INTO sector_performance")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.SaveMarketData(context.Background(), snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save sector performance")
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSentimentWritesReadingHistoryAndEvents(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reading := &models.SentimentReading{
		Score:          61.5,
		Change:         -1.2,
		MarketStatus:   models.StatusNeutral,
		TrendDirection: models.TrendSideways,
		Volatility:     models.LevelMedium,
		Confidence:     models.Confidence{Label: models.LevelHigh, Value: 81},
		Timestamp:      ts,
		KeyEvents: []models.KeyEvent{
			{Title: "Rate cut", Description: "Central bank cuts", Timestamp: ts, Impact: models.ImpactPositive},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(sqlRe("INSERT INTO sentiment_scores")).
		WithArgs(61.5, -1.2, "Neutral", "Sideways", "Medium", "High", 81, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(sqlRe("INSERT INTO historical_sentiment")).
		WithArgs(ts, 61.5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(sqlRe("INSERT INTO key_events")).
		WithArgs("Rate cut", "Central bank cuts", ts, "positive").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveSentiment(context.Background(), reading))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNewsEncodesTags(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(sqlRe("INSERT INTO news_items")).
		WithArgs("t", "s", "Reuters", "https://x", 0.5, ts, []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveNews(context.Background(), []models.NewsItem{
		{Title: "t", Summary: "s", Source: "Reuters", URL: "https://x", SentimentImpact: 0.5, Timestamp: ts},
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUpcomingEventsSkipsDuplicates(t *testing.T) {
	store, mock := newMockStore(t)
	day := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(sqlRe("ON CONFLICT (title, event_date) DO NOTHING")).
		WithArgs("CPI", "Previous: 5.1%", day, "high", "economic", "neutral").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.SaveUpcomingEvents(context.Background(), []models.UpcomingEvent{{
		Title: "CPI", Description: "Previous: 5.1%", EventDate: day,
		Importance: models.ImportanceHigh, Type: "economic", Impact: models.ImpactNeutral,
	}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptyWritesAreNoops(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveMarketData(ctx, nil))
	require.NoError(t, store.SaveMarketData(ctx, &models.MarketSnapshot{}))
	require.NoError(t, store.SaveNews(ctx, nil))
	require.NoError(t, store.SaveSentiment(ctx, nil))
	require.NoError(t, store.SaveUpcomingEvents(ctx, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
