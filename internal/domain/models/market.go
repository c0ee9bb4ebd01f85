package models

import "time"

// IndexQuote is a stored index observation. Used for global and Indian indices alike.
type IndexQuote struct {
	Name   string  `json:"name" db:"name"`
	Value  float64 `json:"value" db:"value"`
	Change float64 `json:"change" db:"change"`
}

type SectorPerformance struct {
	Name   string  `json:"name" db:"name"`
	Change float64 `json:"change" db:"change"`
}

type NiftyPCR struct {
	Value       float64   `json:"value" db:"value"`
	Change      float64   `json:"change" db:"change"`
	PutVolume   int64     `json:"putVolume" db:"put_volume"`
	CallVolume  int64     `json:"callVolume" db:"call_volume"`
	LastUpdated time.Time `json:"lastUpdated" db:"timestamp"`
}

type FactorElement struct {
	Name   string `json:"name" db:"name"`
	Status string `json:"status" db:"status"`
}

type MarketFactor struct {
	Name     string          `json:"name" db:"name"`
	Score    float64         `json:"score" db:"score"`
	Elements []FactorElement `json:"elements"`
}

// MarketSnapshot is one cycle of market data from a source, before persistence.
// Nil/empty parts are not written.
type MarketSnapshot struct {
	Indices           []IndexQuote        `json:"indices"`
	IndianIndices     []IndexQuote        `json:"indianIndices"`
	SectorPerformance []SectorPerformance `json:"sectorPerformance"`
	NiftyPCR          *NiftyPCR           `json:"niftyPCR,omitempty"`
	Factors           []MarketFactor      `json:"factors"`
	Timestamp         time.Time           `json:"timestamp"`
}

// MarketMetrics is the read model of /api/market-metrics.
type MarketMetrics struct {
	Indices           []IndexQuote        `json:"indices"`
	IndianIndices     []IndexQuote        `json:"indianIndices"`
	SectorPerformance []SectorPerformance `json:"sectorPerformance"`
	NiftyPCR          *NiftyPCR           `json:"niftyPCR,omitempty"`
}

type MarketFactors struct {
	Factors []MarketFactor `json:"factors"`
}

// MarketIndex is a scraped quote row.
type MarketIndex struct {
	Index         string  `json:"index"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// IndexSet splits one scrape into its two markets.
type IndexSet struct {
	Indian []MarketIndex
	Global []MarketIndex
}
