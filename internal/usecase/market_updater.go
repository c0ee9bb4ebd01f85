package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	drepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/domain/service"
	applogger "MarketMood/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	TriggerScheduler = "scheduler"
	TriggerAPI       = "api"

	updateLockKey = "lock:market-update"
)

// ErrUpdateInProgress is returned when another update cycle holds the update lock.
var ErrUpdateInProgress = errors.New("market update already in progress")

// Locker guards update cycles across instances. *cache.RedisCache satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// UpdateResult summarizes one persisted cycle.
type UpdateResult struct {
	EventID   string
	Source    string
	Sentiment *models.SentimentReading
	NewsCount int
	Took      time.Duration
}

// MarketUpdater runs one fetch, analyze, persist and archive cycle.
type MarketUpdater struct {
	market    service.MarketDataSource
	news      service.NewsSource
	analyzer  service.SentimentAnalyzer
	store     drepo.DashboardWriter
	publisher drepo.EventPublisher
	archive   drepo.Archive
	locker    Locker
	lockTTL   time.Duration
	metrics   drepo.Metrics
	logger    *applogger.Logger
	now       func() time.Time
	newID     func() string
}

// UpdaterOption configures optional MarketUpdater collaborators.
type UpdaterOption func(*MarketUpdater)

// WithEventPublisher hands every persisted cycle to the event bus.
func WithEventPublisher(p drepo.EventPublisher) UpdaterOption {
	return func(u *MarketUpdater) { u.publisher = p }
}

// WithArchive writes every persisted cycle straight to the archive.
func WithArchive(a drepo.Archive) UpdaterOption {
	return func(u *MarketUpdater) { u.archive = a }
}

// WithLocker rejects a cycle while another one holds the lock.
func WithLocker(l Locker, ttl time.Duration) UpdaterOption {
	return func(u *MarketUpdater) {
		u.locker = l
		u.lockTTL = ttl
	}
}

// WithUpdaterMetrics records cycle outcomes.
func WithUpdaterMetrics(m drepo.Metrics) UpdaterOption {
	return func(u *MarketUpdater) { u.metrics = m }
}

func NewMarketUpdater(
	market service.MarketDataSource,
	news service.NewsSource,
	analyzer service.SentimentAnalyzer,
	store drepo.DashboardWriter,
	l *applogger.Logger,
	opts ...UpdaterOption,
) *MarketUpdater {
	if l == nil {
		l = applogger.Nop()
	}
	u := &MarketUpdater{
		market:   market,
		news:     news,
		analyzer: analyzer,
		store:    store,
		metrics:  nopMetrics{},
		lockTTL:  5 * time.Minute,
		logger:   l.With("market_updater"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update fetches market data and news in parallel, analyzes them, and persists market
// data, news and sentiment in that order. Archiving happens after persistence; its
// failures are logged and do not fail the cycle.
func (u *MarketUpdater) Update(ctx context.Context, trigger string) (*UpdateResult, error) {
	start := u.now()
	source := u.market.Name()

	if u.locker != nil {
		ok, err := u.locker.TryLock(ctx, updateLockKey, u.lockTTL)
		if err != nil {
			u.logger.Warn("update lock unavailable, continuing unguarded", applogger.Error(err))
		} else if !ok {
			return nil, ErrUpdateInProgress
		} else {
			defer func() {
				if err := u.locker.Unlock(context.WithoutCancel(ctx), updateLockKey); err != nil {
					u.logger.Warn("update unlock failed", applogger.Error(err))
				}
			}()
		}
	}

	res, err := u.run(ctx, source, trigger, start)
	if err != nil {
		u.metrics.RecordUpdate(source, "error")
		u.logger.Error("market update failed",
			applogger.String("source", source),
			applogger.String("trigger", trigger),
			applogger.Error(err),
		)
		return nil, err
	}

	u.metrics.RecordUpdate(source, "success")
	u.metrics.RecordSentiment(res.Sentiment.Score)
	u.metrics.RecordLatency("market_update", res.Took.Seconds())
	u.logger.Info("market update completed",
		applogger.String("event_id", res.EventID),
		applogger.String("source", source),
		applogger.String("trigger", trigger),
		applogger.Float64("score", res.Sentiment.Score),
		applogger.Int("news", res.NewsCount),
		applogger.Duration("took_ms", res.Took),
	)
	return res, nil
}

func (u *MarketUpdater) run(ctx context.Context, source, trigger string, start time.Time) (*UpdateResult, error) {
	var (
		snap *models.MarketSnapshot
		news []models.NewsItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if snap, err = u.market.FetchMarketData(gctx); err != nil {
			u.metrics.RecordError("fetch_market")
			return fmt.Errorf("fetch market data from %s: %w", u.market.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if news, err = u.news.FetchNews(gctx); err != nil {
			u.metrics.RecordError("fetch_news")
			return fmt.Errorf("fetch news from %s: %w", u.news.Name(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reading, err := u.analyzer.Analyze(ctx, snap, news)
	if err != nil {
		u.metrics.RecordError("analyze")
		return nil, fmt.Errorf("analyze sentiment: %w", err)
	}

	if err := u.store.SaveMarketData(ctx, snap); err != nil {
		u.metrics.RecordError("persist")
		return nil, err
	}
	if err := u.store.SaveNews(ctx, news); err != nil {
		u.metrics.RecordError("persist")
		return nil, err
	}
	if err := u.store.SaveSentiment(ctx, reading); err != nil {
		u.metrics.RecordError("persist")
		return nil, err
	}

	ev := &models.MarketUpdatedEvent{
		ID:        u.newID(),
		Source:    source,
		Trigger:   trigger,
		Sentiment: reading,
		Snapshot:  snap,
		NewsCount: len(news),
		CreatedAt: u.now(),
	}
	u.archiveCycle(ctx, ev)

	return &UpdateResult{
		EventID:   ev.ID,
		Source:    source,
		Sentiment: reading,
		NewsCount: len(news),
		Took:      u.now().Sub(start),
	}, nil
}

func (u *MarketUpdater) archiveCycle(ctx context.Context, ev *models.MarketUpdatedEvent) {
	if u.publisher != nil {
		if err := u.publisher.PublishMarketUpdated(ctx, ev); err != nil {
			u.metrics.RecordError("publish")
			u.logger.Warn("publish market update failed", applogger.String("event_id", ev.ID), applogger.Error(err))
		}
	}
	if u.archive != nil {
		if err := u.archive.ArchiveCycle(ctx, ev); err != nil {
			u.metrics.RecordError("archive")
			u.logger.Warn("archive market update failed", applogger.String("event_id", ev.ID), applogger.Error(err))
		}
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordUpdate(string, string)   {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordSentiment(float64)       {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) SetLiveConnections(int)        {}
