package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ScrapeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketmood",
			Subsystem: "scraper",
			Name:      "requests_total",
			Help:      "Outbound scrape attempts by host and result",
		},
		[]string{"host", "result"},
	)

	ScrapeRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketmood",
			Subsystem: "scraper",
			Name:      "retries_total",
			Help:      "Scrape retries by host",
		},
		[]string{"host"},
	)

	ScrapeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketmood",
			Subsystem: "scraper",
			Name:      "latency_seconds",
			Help:      "Latency of a single scrape attempt",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	ScrapedRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "marketmood",
			Subsystem: "scraper",
			Name:      "records",
			Help:      "Records accepted by the last parse of each page kind",
		},
		[]string{"kind"},
	)
)

// Register registers the scraper collectors once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ScrapeRequests, ScrapeRetries, ScrapeLatency, ScrapedRecords)
	})
}
