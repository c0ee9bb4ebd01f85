package models

import "time"

// NewsItem is a stored headline with its sentiment weight.
type NewsItem struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Timestamp       time.Time `json:"timestamp"`
	Source          string    `json:"source"`
	URL             string    `json:"url"`
	SentimentImpact float64   `json:"sentimentImpact"`
	Tags            []string  `json:"tags"`
}

// NewsArticle is a scraped headline link.
type NewsArticle struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

type MarketNewsType string

const (
	NewsTypeUpdate         MarketNewsType = "update"
	NewsTypeRecommendation MarketNewsType = "recommendation"
	NewsTypeAnalysis       MarketNewsType = "analysis"
	NewsTypeCommentary     MarketNewsType = "commentary"
)

// MarketNews is a scraped markets-section headline.
type MarketNews struct {
	Title     string         `json:"title"`
	Link      string         `json:"link"`
	Category  string         `json:"category"`
	Timestamp string         `json:"timestamp"`
	Source    string         `json:"source"`
	Type      MarketNewsType `json:"type"`
}
