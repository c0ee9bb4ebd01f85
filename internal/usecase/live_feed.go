package usecase

import (
	"context"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/service"
	"MarketMood/pkg/util"
)

const (
	niftyBase   = 22000.0
	niftySpread = 200.0
	scoreJitter = 2.0
)

// SentimentReader is the read the live channel needs.
type SentimentReader interface {
	CurrentSentiment(ctx context.Context) (*models.CurrentSentiment, error)
}

// LiveFeed builds the frames pushed on the live channel. Ticks are never persisted.
type LiveFeed struct {
	reader SentimentReader
	rnd    service.Rand
	now    func() time.Time
}

func NewLiveFeed(reader SentimentReader, rnd service.Rand) *LiveFeed {
	return &LiveFeed{reader: reader, rnd: rnd, now: time.Now}
}

// Snapshot returns the current stored sentiment.
func (f *LiveFeed) Snapshot(ctx context.Context) (*models.CurrentSentiment, error) {
	return f.reader.CurrentSentiment(ctx)
}

// Tick jitters the Nifty level around 22000 and the current score by up to one point,
// keeping the score within [0, 100].
func (f *LiveFeed) Tick(ctx context.Context) (*models.LiveTick, error) {
	nifty := niftyBase + (f.rnd.Float64()-0.5)*niftySpread

	cur, err := f.reader.CurrentSentiment(ctx)
	if err != nil {
		return nil, err
	}
	score := util.Clamp(cur.Score+(f.rnd.Float64()-0.5)*scoreJitter, 0, 100)

	return &models.LiveTick{
		Timestamp:  f.now(),
		NiftyValue: nifty,
		Score:      score,
	}, nil
}
