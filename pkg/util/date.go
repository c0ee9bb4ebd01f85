package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// calendarLayouts are the day formats seen on public market calendars.
var calendarLayouts = []string{
	"2006-01-02",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006",
	"Mon, 2 Jan 2006",
	"Monday, 2 January 2006",
	"Monday, January 2, 2006",
	"02/01/2006",
}

// ParseDate parses a calendar day in loc. Extra whitespace is ignored.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = CollapseSpaces(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range calendarLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, ok := ParseTime(s); ok {
		return t.In(loc), true
	}
	return time.Time{}, false
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ISOTime formats t the way JSON clients expect timestamps (UTC, millisecond precision).
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// CollapseSpaces trims s and folds every whitespace run into one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
