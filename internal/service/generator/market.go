package generator

import (
	"context"
	"math"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/service"
	"MarketMood/pkg/util"
)

const simulatedSourceName = "simulated"

type quoteSeed struct {
	name       string
	value      float64
	valueVol   float64
	changeBase float64
	changeVol  float64
}

var globalSeeds = []quoteSeed{
	{"S&P 500", 4325.76, 0.05, 1.2, 0.5},
	{"NASDAQ", 13756.33, 0.05, 1.8, 0.6},
	{"Dow Jones", 32845.13, 0.05, 0.9, 0.4},
	{"VIX", 18.32, 0.1, -5.4, 1.0},
	{"10-YR Treasury", 3.45, 0.02, 0.0, 0.05},
}

var indianSeeds = []quoteSeed{
	{"NIFTY 50", 21845.50, 0.05, 0.9, 0.5},
	{"SENSEX", 71532.25, 0.05, 0.8, 0.5},
	{"NIFTY BANK", 46735.20, 0.05, 1.2, 0.6},
	{"NIFTY IT", 32567.80, 0.05, 1.5, 0.7},
	{"INDIA VIX", 14.85, 0.1, -3.2, 1.0},
}

var sectorSeeds = []struct {
	name string
	base float64
	vol  float64
}{
	{"Technology", 2.7, 0.3},
	{"Healthcare", 1.5, 0.3},
	{"Financials", 1.2, 0.3},
	{"Industrials", 0.3, 0.3},
	{"Energy", -0.8, 0.4},
	{"Utilities", -1.2, 0.3},
}

// Market simulates a market data provider around fixed reference levels.
type Market struct {
	rnd service.Rand
	now func() time.Time
}

func NewMarket(rnd service.Rand) *Market {
	return &Market{rnd: rnd, now: time.Now}
}

func (m *Market) Name() string { return simulatedSourceName }

// FetchMarketData returns one simulated cycle. It never fails unless ctx is done.
func (m *Market) FetchMarketData(ctx context.Context) (*models.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.now()

	return &models.MarketSnapshot{
		Indices:           m.quotes(globalSeeds),
		IndianIndices:     m.quotes(indianSeeds),
		SectorPerformance: m.sectors(),
		NiftyPCR:          m.niftyPCR(now),
		Factors:           m.factors(),
		Timestamp:         now,
	}, nil
}

// change draws uniformly from [-vol*base, vol*base) and rounds to cents.
func (m *Market) change(base, vol float64) float64 {
	return util.Round2((m.rnd.Float64()*2 - 1) * vol * base)
}

func (m *Market) quotes(seeds []quoteSeed) []models.IndexQuote {
	out := make([]models.IndexQuote, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, models.IndexQuote{
			Name:   s.name,
			Value:  util.Round2(s.value + m.change(s.value, s.valueVol)),
			Change: m.change(s.changeBase, s.changeVol),
		})
	}
	return out
}

func (m *Market) sectors() []models.SectorPerformance {
	out := make([]models.SectorPerformance, 0, len(sectorSeeds))
	for _, s := range sectorSeeds {
		out = append(out, models.SectorPerformance{Name: s.name, Change: m.change(s.base, s.vol)})
	}
	return out
}

func (m *Market) niftyPCR(now time.Time) *models.NiftyPCR {
	return &models.NiftyPCR{
		Value:       util.Round2(1.25 + m.change(1.25, 0.05)),
		Change:      m.change(0.15, 0.1),
		PutVolume:   4528000 + int64(math.Floor(m.change(4528000, 0.1))),
		CallVolume:  3622400 + int64(math.Floor(m.change(3622400, 0.1))),
		LastUpdated: now,
	}
}

// pick3 mirrors a two-draw cascade: a when the first draw exceeds 0.7,
// otherwise b when the second exceeds 0.3, otherwise c.
func (m *Market) pick3(a, b, c string) string {
	if m.rnd.Float64() > 0.7 {
		return a
	}
	if m.rnd.Float64() > 0.3 {
		return b
	}
	return c
}

func (m *Market) pick2(a, b string) string {
	if m.rnd.Float64() > 0.3 {
		return a
	}
	return b
}

func (m *Market) score(base float64) float64 {
	return util.Round1(base + m.change(base, 0.2))
}

func (m *Market) factors() []models.MarketFactor {
	consumer := m.pick3("Weak", "Strong", "Moderate")
	movingAverages := m.pick3("Bearish", "Bullish", "Neutral")
	newsSentiment := m.pick3("Negative", "Positive", "Neutral")

	return []models.MarketFactor{
		{
			Name:  "Economic Indicators",
			Score: m.score(2.1),
			Elements: []models.FactorElement{
				{Name: "Employment", Status: m.pick2("Strong", "Moderate")},
				{Name: "GDP Growth", Status: m.pick2("Positive", "Neutral")},
				{Name: "Inflation", Status: "Moderate"},
				{Name: "Consumer Confidence", Status: consumer},
			},
		},
		{
			Name:  "Technical Factors",
			Score: m.score(1.8),
			Elements: []models.FactorElement{
				{Name: "Moving Averages", Status: movingAverages},
				{Name: "Momentum", Status: m.pick2("Strong", "Weak")},
				{Name: "Volume", Status: m.pick3("High", "Average", "Low")},
				{Name: "Breadth", Status: m.pick2("Positive", "Negative")},
			},
		},
		{
			Name:  "Market Sentiment",
			Score: m.score(1.5),
			Elements: []models.FactorElement{
				{Name: "News Sentiment", Status: newsSentiment},
				{Name: "Social Media", Status: m.pick2("Bullish", "Bearish")},
				{Name: "Analyst Ratings", Status: m.pick3("Bullish", "Neutral", "Bearish")},
				{Name: "Options Flow", Status: m.pick2("Bullish", "Bearish")},
			},
		},
	}
}

var _ service.MarketDataSource = (*Market)(nil)
