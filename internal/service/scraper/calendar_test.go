package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketMood/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendarHTML = `<!DOCTYPE html><html><body><table>
<tr class="date"><td class="date"><strong>01 Mar 2025</strong></td></tr>
<tr class="entry" data-tag="india|H"><td class="event-name">Old event</td></tr>
<tr class="date"><td class="date"><strong>07 Mar 2025</strong></td></tr>
<tr class="entry" data-tag="india|H">
  <td class="event-name">RBI   Policy
     Decision Remind me</td>
  <td class="prev">6.50%</td><td class="actual"></td><td class="unit">%</td>
</tr>
<tr class="entry" data-tag="us|H"><td class="event-name">US CPI</td></tr>
<tr class="entry" data-tag="india|M"><td class="event-name">Trade balance</td></tr>
<tr class="date"><td class="date"><strong>20 Mar 2025</strong></td></tr>
<tr class="entry" data-tag="global india|H"><td class="event-name">India GDP</td><td class="prev">7.6</td><td class="actual">8.4</td><td class="unit">%</td></tr>
<tr class="entry" data-tag="india|H"><td class="event-name">Remind me</td></tr>
<tr class="date"><td class="date"><strong>not a date</strong></td></tr>
<tr class="entry" data-tag="india|H"><td class="event-name">Orphan</td></tr>
<tr class="date"><td class="date"><strong>15 May 2025</strong></td></tr>
<tr class="entry" data-tag="india|H"><td class="event-name">Too far out</td></tr>
</table></body></html>`

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
	urls  []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	if s.err != nil {
		return "", s.err
	}
	return s.pages[url], nil
}

func TestParseCalendarWindowAndTags(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	out := ParseCalendar(doc(t, calendarHTML), now)

	require.Len(t, out, 2)
	assert.Equal(t, models.EconomicEvent{
		Date:       "2025-03-07",
		Event:      "RBI Policy Decision",
		Importance: models.ImportanceHigh,
		Previous:   "6.50%",
		Actual:     "",
		Unit:       "%",
	}, out[0])
	assert.Equal(t, "2025-03-20", out[1].Date)
	assert.Equal(t, "India GDP", out[1].Event)
	assert.Equal(t, "8.4", out[1].Actual)
}

func TestParseCalendarIncludesToday(t *testing.T) {
	now := time.Date(2025, 3, 7, 23, 0, 0, 0, time.UTC)
	out := ParseCalendar(doc(t, calendarHTML), now)
	require.NotEmpty(t, out)
	assert.Equal(t, "2025-03-07", out[0].Date)
}

func TestScrapeEconomicCalendarWrapsFetchError(t *testing.T) {
	c := NewCalendar(&stubFetcher{err: errors.New("timeout")}, "", time.UTC)
	_, err := c.ScrapeEconomicCalendar(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scrape economic calendar data")
}

func TestScrapeEconomicCalendarUsesConfiguredURL(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{"https://cal.example/": calendarHTML}}
	c := NewCalendar(f, "https://cal.example/", time.UTC)
	c.now = func() time.Time { return time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC) }

	out, err := c.ScrapeEconomicCalendar(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, []string{"https://cal.example/"}, f.urls)
}
