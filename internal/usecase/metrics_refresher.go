package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	drepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/domain/service"
	"MarketMood/internal/service/scraper"
	applogger "MarketMood/pkg/logger"
)

// MetricsRefresher stores freshly scraped index quotes without running a full update cycle.
type MetricsRefresher struct {
	scraper service.IndexScraper
	store   drepo.DashboardWriter
	logger  *applogger.Logger
	now     func() time.Time
}

func NewMetricsRefresher(s service.IndexScraper, store drepo.DashboardWriter, l *applogger.Logger) *MetricsRefresher {
	if l == nil {
		l = applogger.Nop()
	}
	return &MetricsRefresher{scraper: s, store: store, logger: l.With("metrics_refresher"), now: time.Now}
}

// Refresh persists global quotes as indices and Indian quotes as indianIndices, with the
// percent move as the stored change.
func (r *MetricsRefresher) Refresh(ctx context.Context) error {
	set, err := r.scraper.ScrapeIndices(ctx)
	if err != nil {
		return fmt.Errorf("failed to update market metrics: %w", err)
	}
	snap := &models.MarketSnapshot{
		Indices:       scraper.ToQuotes(set.Global),
		IndianIndices: scraper.ToQuotes(set.Indian),
		Timestamp:     r.now(),
	}
	if err := r.store.SaveMarketData(ctx, snap); err != nil {
		return fmt.Errorf("failed to update market metrics: %w", err)
	}
	r.logger.Info("market metrics refreshed",
		applogger.Int("global", len(snap.Indices)),
		applogger.Int("indian", len(snap.IndianIndices)),
	)
	return nil
}
