package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketMood/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mcBase = "https://mc.example"

func newStubMoneycontrol() (*Moneycontrol, *stubFetcher) {
	f := &stubFetcher{pages: map[string]string{
		mcBase + indicesPath:    indicesHTML,
		mcBase + latestNewsPath: latestNewsHTML,
		mcBase + marketNewsPath: marketNewsHTML,
	}}
	mc := NewMoneycontrol(f, mcBase+"/")
	mc.now = func() time.Time { return time.Date(2025, 3, 7, 9, 15, 0, 0, time.UTC) }
	return mc, f
}

func TestScrapeIndianAndGlobal(t *testing.T) {
	mc, f := newStubMoneycontrol()

	indian, err := mc.ScrapeIndianIndices(context.Background())
	require.NoError(t, err)
	assert.Len(t, indian, 3)

	global, err := mc.ScrapeGlobalIndices(context.Background())
	require.NoError(t, err)
	assert.Len(t, global, 4)

	assert.Equal(t, []string{mcBase + indicesPath, mcBase + indicesPath}, f.urls)
}

func TestScrapePropagatesFetchError(t *testing.T) {
	mc := NewMoneycontrol(&stubFetcher{err: errors.New("boom")}, mcBase)
	_, err := mc.ScrapeLatestNews(context.Background())
	assert.Error(t, err)
	_, err = mc.ScrapeIndices(context.Background())
	assert.Error(t, err)
}

func TestScrapeAllNewsMergesAndSorts(t *testing.T) {
	mc, _ := newStubMoneycontrol()
	all, err := mc.ScrapeAllNews(context.Background())
	require.NoError(t, err)

	require.Len(t, all, 6)
	// dated (ISO) latest-news items first, unparseable market timestamps after
	assert.Equal(t, "Sensex rallies 300 points", all[0].Title)
	assert.Equal(t, models.NewsTypeUpdate, all[0].Type)
	assert.Equal(t, "Buy TCS, target 4200", all[2].Title)
}

func TestLiveSourceMapsIndicesAndNews(t *testing.T) {
	mc, _ := newStubMoneycontrol()
	src := NewLiveSource(mc, 1)
	src.now = mc.now

	snap, err := src.FetchMarketData(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Indices, 4)
	require.Len(t, snap.IndianIndices, 3)
	assert.Equal(t, models.IndexQuote{Name: "NIFTY 50", Value: 22147.00, Change: 0.20}, snap.IndianIndices[0])
	assert.Empty(t, snap.SectorPerformance)
	assert.Nil(t, snap.NiftyPCR)

	news, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Sensex rallies 300 points", news[0].Title)
	assert.Equal(t, []string{"MoneyControl", "News"}, news[0].Tags)
	assert.Equal(t, 0.0, news[0].SentimentImpact)
	assert.True(t, news[0].Timestamp.Equal(mc.now()))
}
