package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketMood/internal/domain/models"
	drepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/domain/service"
	applogger "MarketMood/pkg/logger"
)

const (
	eventTypeEconomic = "economic"
	calendarDayLayout = "2006-01-02"
)

// CalendarSync copies the scraped economic calendar into upcoming events.
type CalendarSync struct {
	scraper service.CalendarScraper
	store   drepo.DashboardWriter
	loc     *time.Location
	logger  *applogger.Logger
}

// NewCalendarSync creates the sync job. Calendar days are interpreted in loc (UTC when nil).
func NewCalendarSync(s service.CalendarScraper, store drepo.DashboardWriter, loc *time.Location, l *applogger.Logger) *CalendarSync {
	if loc == nil {
		loc = time.UTC
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CalendarSync{scraper: s, store: store, loc: loc, logger: l.With("calendar_sync")}
}

// Sync scrapes the calendar and stores every dated entry. Returns the number of events handed to the store.
func (c *CalendarSync) Sync(ctx context.Context) (int, error) {
	rows, err := c.scraper.ScrapeEconomicCalendar(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync economic calendar: %w", err)
	}
	events := make([]models.UpcomingEvent, 0, len(rows))
	for _, row := range rows {
		ev, ok := c.toEvent(row)
		if !ok {
			c.logger.Debug("calendar row skipped", applogger.String("event", row.Event), applogger.String("date", row.Date))
			continue
		}
		events = append(events, ev)
	}
	if err := c.store.SaveUpcomingEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("sync economic calendar: %w", err)
	}
	c.logger.Info("economic calendar synced", applogger.Int("events", len(events)))
	return len(events), nil
}

func (c *CalendarSync) toEvent(row models.EconomicEvent) (models.UpcomingEvent, bool) {
	day, err := time.ParseInLocation(calendarDayLayout, row.Date, c.loc)
	if err != nil || row.Event == "" {
		return models.UpcomingEvent{}, false
	}
	importance := row.Importance
	if importance == "" {
		importance = models.ImportanceHigh
	}
	return models.UpcomingEvent{
		Title:       row.Event,
		Description: describe(row),
		EventDate:   day,
		Importance:  importance,
		Type:        eventTypeEconomic,
		Impact:      models.ImpactNeutral,
	}, true
}

// describe joins the non-empty figures of a calendar row.
func describe(row models.EconomicEvent) string {
	parts := make([]string, 0, 3)
	if row.Previous != "" {
		parts = append(parts, "Previous: "+row.Previous)
	}
	if row.Actual != "" {
		parts = append(parts, "Actual: "+row.Actual)
	}
	if row.Unit != "" {
		parts = append(parts, "Unit: "+row.Unit)
	}
	return strings.Join(parts, ", ")
}
