package models

import "time"

type MarketStatus string

const (
	StatusBullish MarketStatus = "Bullish"
	StatusNeutral MarketStatus = "Neutral"
	StatusBearish MarketStatus = "Bearish"
)

type TrendDirection string

const (
	TrendUpward   TrendDirection = "Upward"
	TrendDownward TrendDirection = "Downward"
	TrendSideways TrendDirection = "Sideways"
)

// Level is the shared High/Medium/Low scale used for volatility and confidence.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// IsValid reports whether i is one of the known impact tags.
func (i Impact) IsValid() bool {
	switch i {
	case ImpactPositive, ImpactNegative, ImpactNeutral:
		return true
	}
	return false
}

type Confidence struct {
	Label Level `json:"label"`
	Value int   `json:"value"`
}

// SentimentReading is one analyzed observation, together with the key events that produced it.
type SentimentReading struct {
	Score          float64        `json:"score"`
	Change         float64        `json:"change"`
	MarketStatus   MarketStatus   `json:"marketStatus"`
	TrendDirection TrendDirection `json:"trendDirection"`
	Volatility     Level          `json:"volatility"`
	Confidence     Confidence     `json:"confidence"`
	Timestamp      time.Time      `json:"timestamp"`
	KeyEvents      []KeyEvent     `json:"keyEvents,omitempty"`
}

// CurrentSentiment is the latest stored reading as served by the API.
type CurrentSentiment struct {
	Score          float64        `json:"score"`
	Change         float64        `json:"change"`
	MarketStatus   MarketStatus   `json:"marketStatus"`
	TrendDirection TrendDirection `json:"trendDirection"`
	Volatility     Level          `json:"volatility"`
	Confidence     Confidence     `json:"confidence"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

type SentimentPoint struct {
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Score     float64   `json:"score" db:"score"`
}

type KeyEvent struct {
	Title       string    `json:"title" db:"title"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Impact      Impact    `json:"impact" db:"impact"`
	Description string    `json:"description,omitempty" db:"description"`
}

type HistoricalSentiment struct {
	SentimentHistory []SentimentPoint `json:"sentimentHistory"`
	KeyEvents        []KeyEvent       `json:"keyEvents"`
}
