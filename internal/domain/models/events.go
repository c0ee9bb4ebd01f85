package models

import "time"

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

type UpcomingEvent struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	EventDate   time.Time  `json:"eventDate" db:"event_date"`
	Importance  Importance `json:"importance" db:"importance"`
	Type        string     `json:"type" db:"type"`
	Impact      Impact     `json:"impact" db:"impact"`
}

// EconomicEvent is a scraped economic calendar row.
type EconomicEvent struct {
	Date       string     `json:"date"`
	Event      string     `json:"event"`
	Importance Importance `json:"importance"`
	Previous   string     `json:"previous"`
	Actual     string     `json:"actual"`
	Unit       string     `json:"unit"`
}
