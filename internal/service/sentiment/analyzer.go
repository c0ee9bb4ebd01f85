package sentiment

import (
	"context"
	"math"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/service"
	"MarketMood/pkg/util"
)

const (
	baseScore        = 50.0
	indexScale       = 2.0
	sectorScale      = 3.0
	newsScale        = 5.0
	keyEventImpact   = 1.5
	trendThreshold   = 1.5
	vixName          = "VIX"
	bullishFloor     = 70.0
	neutralFloor     = 45.0
	highConfidence   = 80
	mediumConfidence = 60
)

var indexWeights = map[string]float64{
	"S&P 500":   3,
	"NASDAQ":    2.5,
	"Dow Jones": 2,
	vixName:     -1.5,
}

// Analyzer scores a market snapshot and its news on a 0-100 scale.
type Analyzer struct {
	rnd service.Rand
	now func() time.Time
}

func NewAnalyzer(rnd service.Rand) *Analyzer {
	return &Analyzer{rnd: rnd, now: time.Now}
}

// Analyze only weighs global indices; Indian indices are informational.
func (a *Analyzer) Analyze(ctx context.Context, snap *models.MarketSnapshot, news []models.NewsItem) (*models.SentimentReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &models.MarketSnapshot{}
	}

	score := util.Clamp(baseScore+indexImpact(snap.Indices)+sectorImpact(snap.SectorPerformance)+newsImpact(news), 0, 100)
	change := a.rnd.Float64()*5 - 2.5

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = a.now()
	}

	confidence := int(math.Round(a.rnd.Float64()*15 + 70))

	return &models.SentimentReading{
		Score:          score,
		Change:         change,
		MarketStatus:   Status(score),
		TrendDirection: Trend(change),
		Volatility:     a.volatility(snap.Indices),
		Confidence:     models.Confidence{Label: ConfidenceLabel(confidence), Value: confidence},
		Timestamp:      ts,
		KeyEvents:      KeyEvents(news),
	}, nil
}

func indexImpact(indices []models.IndexQuote) float64 {
	var sum float64
	for _, idx := range indices {
		w, ok := indexWeights[idx.Name]
		if !ok {
			w = 1
		}
		sum += idx.Change * w
	}
	return sum * indexScale
}

func sectorImpact(sectors []models.SectorPerformance) float64 {
	if len(sectors) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sectors {
		sum += s.Change
	}
	return sum / float64(len(sectors)) * sectorScale
}

func newsImpact(news []models.NewsItem) float64 {
	if len(news) == 0 {
		return 0
	}
	var sum float64
	for _, n := range news {
		sum += n.SentimentImpact
	}
	return sum / float64(len(news)) * newsScale
}

func (a *Analyzer) volatility(indices []models.IndexQuote) models.Level {
	for _, idx := range indices {
		if idx.Name != vixName {
			continue
		}
		switch {
		case idx.Value > 30:
			return models.LevelHigh
		case idx.Value > 20:
			return models.LevelMedium
		default:
			return models.LevelLow
		}
	}

	r := a.rnd.Float64()
	switch {
	case r > 0.7:
		return models.LevelHigh
	case r > 0.3:
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}

func Status(score float64) models.MarketStatus {
	switch {
	case score >= bullishFloor:
		return models.StatusBullish
	case score >= neutralFloor:
		return models.StatusNeutral
	default:
		return models.StatusBearish
	}
}

func Trend(change float64) models.TrendDirection {
	switch {
	case change > trendThreshold:
		return models.TrendUpward
	case change < -trendThreshold:
		return models.TrendDownward
	default:
		return models.TrendSideways
	}
}

func ConfidenceLabel(v int) models.Level {
	switch {
	case v >= highConfidence:
		return models.LevelHigh
	case v >= mediumConfidence:
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}

// KeyEvents promotes headlines with |impact| >= 1.5.
func KeyEvents(news []models.NewsItem) []models.KeyEvent {
	var events []models.KeyEvent
	for _, n := range news {
		if math.Abs(n.SentimentImpact) < keyEventImpact {
			continue
		}
		impact := models.ImpactNegative
		if n.SentimentImpact > 0 {
			impact = models.ImpactPositive
		}
		events = append(events, models.KeyEvent{
			Title:       n.Title,
			Timestamp:   n.Timestamp,
			Impact:      impact,
			Description: n.Summary,
		})
	}
	return events
}

var _ service.SentimentAnalyzer = (*Analyzer)(nil)
