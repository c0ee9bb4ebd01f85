package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketMood/internal/domain/models"
	svcmetrics "MarketMood/internal/service/metrics"
	"MarketMood/pkg/util"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultCalendarURL = "https://zerodha.com/markets/calendar/"

	calendarDateLayout = "2006-01-02"
	indiaHighTag       = "india|H"
)

// IST is the zone calendar days are published in.
var IST = time.FixedZone("IST", 5*3600+1800)

// Calendar scrapes India high-importance events from the Zerodha markets calendar.
type Calendar struct {
	fetcher PageFetcher
	url     string
	loc     *time.Location
	now     func() time.Time
}

// NewCalendar creates a calendar scraper. Dates are interpreted in loc (IST when nil).
func NewCalendar(fetcher PageFetcher, pageURL string, loc *time.Location) *Calendar {
	if pageURL == "" {
		pageURL = DefaultCalendarURL
	}
	if loc == nil {
		loc = IST
	}
	return &Calendar{fetcher: fetcher, url: pageURL, loc: loc, now: time.Now}
}

func (c *Calendar) ScrapeEconomicCalendar(ctx context.Context) ([]models.EconomicEvent, error) {
	html, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape economic calendar data: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to scrape economic calendar data: %w", err)
	}
	events := ParseCalendar(doc, c.now().In(c.loc))
	svcmetrics.ScrapedRecords.WithLabelValues("economic_calendar").Set(float64(len(events)))
	return events, nil
}

// ParseCalendar walks the calendar table. A date row opens a day when it falls within
// [today, today+1 month]; entry rows under an open day tagged india|H become events.
func ParseCalendar(doc *goquery.Document, now time.Time) []models.EconomicEvent {
	today := util.StartOfDay(now)
	horizon := today.AddDate(0, 1, 0)

	out := []models.EconomicEvent{}
	var current string

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		switch {
		case row.HasClass("date"):
			current = ""
			day, ok := util.ParseDate(row.Find("td.date strong").First().Text(), now.Location())
			if !ok || day.Before(today) || day.After(horizon) {
				return
			}
			current = day.Format(calendarDateLayout)

		case row.HasClass("entry"):
			if current == "" {
				return
			}
			tag, _ := row.Attr("data-tag")
			if !strings.Contains(tag, indiaHighTag) {
				return
			}
			name := util.CollapseSpaces(strings.ReplaceAll(row.Find("td.event-name").Text(), "Remind me", ""))
			if name == "" {
				return
			}
			out = append(out, models.EconomicEvent{
				Date:       current,
				Event:      name,
				Importance: models.ImportanceHigh,
				Previous:   util.CollapseSpaces(row.Find("td.prev").Text()),
				Actual:     util.CollapseSpaces(row.Find("td.actual").Text()),
				Unit:       util.CollapseSpaces(row.Find("td.unit").Text()),
			})
		}
	})
	return out
}
