package repository

import (
	"context"
	"errors"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/repository"
	"MarketMood/pkg/cache"
	applogger "MarketMood/pkg/logger"
)

const dashboardPrefix = "dashboard"

// CachedStore is a read-through cache in front of a Store. Writes go straight to the
// store and then drop every dashboard key, whether or not the write succeeded.
type CachedStore struct {
	store  repository.Store
	cache  cache.Service
	ttl    time.Duration
	logger *applogger.Logger
}

// NewCachedStore wraps store with c. A non-positive ttl falls back to 30s.
func NewCachedStore(store repository.Store, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedStore{store: store, cache: c, ttl: ttl, logger: l.With("cached_store")}
}

var _ repository.Store = (*CachedStore)(nil)

// readThrough serves key from the cache or loads and stores it. Cache failures are
// logged and never fail the read.
func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	err := s.cache.Get(ctx, key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache get failed", applogger.String("key", key), applogger.Error(err))
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.logger.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return v, nil
}

// minuteKey truncates t so that requests within the same minute share an entry.
// Entries are loaded from the minute start, a superset of every request mapped to
// them, and callers trim rows older than their exact bound.
func minuteKey(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// eventOverfetch extra rows cover events dropped by the exact-bound trim.
const eventOverfetch = 16

func notBefore[T any](rows []T, bound time.Time, ts func(T) time.Time) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if !ts(r).Before(bound) {
			out = append(out, r)
		}
	}
	return out
}

func (s *CachedStore) CurrentSentiment(ctx context.Context) (*models.CurrentSentiment, error) {
	return readThrough(ctx, s, cache.Key(dashboardPrefix, "sentiment", "current"), s.store.CurrentSentiment)
}

func (s *CachedStore) HistoricalSentiment(ctx context.Context, since time.Time) (*models.HistoricalSentiment, error) {
	start := minuteKey(since)
	key := cache.Key(dashboardPrefix, "sentiment", "history", start)
	h, err := readThrough(ctx, s, key, func(ctx context.Context) (*models.HistoricalSentiment, error) {
		return s.store.HistoricalSentiment(ctx, start)
	})
	if err != nil || h == nil {
		return h, err
	}
	return &models.HistoricalSentiment{
		SentimentHistory: notBefore(h.SentimentHistory, since, func(p models.SentimentPoint) time.Time { return p.Timestamp }),
		KeyEvents:        notBefore(h.KeyEvents, since, func(e models.KeyEvent) time.Time { return e.Timestamp }),
	}, nil
}

func (s *CachedStore) NewsItems(ctx context.Context, since time.Time) ([]models.NewsItem, error) {
	start := minuteKey(since)
	key := cache.Key(dashboardPrefix, "news", start)
	items, err := readThrough(ctx, s, key, func(ctx context.Context) ([]models.NewsItem, error) {
		return s.store.NewsItems(ctx, start)
	})
	if err != nil {
		return nil, err
	}
	return notBefore(items, since, func(n models.NewsItem) time.Time { return n.Timestamp }), nil
}

func (s *CachedStore) MarketMetrics(ctx context.Context) (*models.MarketMetrics, error) {
	return readThrough(ctx, s, cache.Key(dashboardPrefix, "market", "metrics"), s.store.MarketMetrics)
}

func (s *CachedStore) MarketFactors(ctx context.Context) (*models.MarketFactors, error) {
	return readThrough(ctx, s, cache.Key(dashboardPrefix, "market", "factors"), s.store.MarketFactors)
}

func (s *CachedStore) UpcomingEvents(ctx context.Context, from time.Time, limit int) ([]models.UpcomingEvent, error) {
	start := minuteKey(from)
	key := cache.Key(dashboardPrefix, "events", start, limit)
	events, err := readThrough(ctx, s, key, func(ctx context.Context) ([]models.UpcomingEvent, error) {
		return s.store.UpcomingEvents(ctx, start, limit+eventOverfetch)
	})
	if err != nil {
		return nil, err
	}
	events = notBefore(events, from, func(e models.UpcomingEvent) time.Time { return e.EventDate })
	if limit >= 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *CachedStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *CachedStore) SaveMarketData(ctx context.Context, snap *models.MarketSnapshot) error {
	defer s.Invalidate(ctx)
	return s.store.SaveMarketData(ctx, snap)
}

func (s *CachedStore) SaveNews(ctx context.Context, items []models.NewsItem) error {
	defer s.Invalidate(ctx)
	return s.store.SaveNews(ctx, items)
}

func (s *CachedStore) SaveSentiment(ctx context.Context, reading *models.SentimentReading) error {
	defer s.Invalidate(ctx)
	return s.store.SaveSentiment(ctx, reading)
}

func (s *CachedStore) SaveUpcomingEvents(ctx context.Context, events []models.UpcomingEvent) error {
	defer s.Invalidate(ctx)
	return s.store.SaveUpcomingEvents(ctx, events)
}

// Invalidate drops every cached dashboard read.
func (s *CachedStore) Invalidate(ctx context.Context) {
	pattern := cache.Pattern(dashboardPrefix)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", applogger.String("pattern", pattern), applogger.Error(err))
	}
}
