package repository

import (
	"context"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/repository"
	"MarketMood/pkg/clickhouse"
)

const (
	marketGlobal = "global"
	marketIndian = "indian"
)

// ClickHouseArchive appends every update cycle to ClickHouse. Tables are
// ReplacingMergeTree keyed on the event id, so a replayed Kafka event collapses
// into the row it duplicates.
type ClickHouseArchive struct {
	client   *clickhouse.Client
	database string
}

func NewClickHouseArchive(client *clickhouse.Client, database string) *ClickHouseArchive {
	return &ClickHouseArchive{client: client, database: database}
}

var _ repository.Archive = (*ClickHouseArchive)(nil)

// SchemaStatements returns the idempotent DDL for the archive tables.
func (a *ClickHouseArchive) SchemaStatements() []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", a.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sentiment_archive (
			event_id String,
			source LowCardinality(String),
			trigger LowCardinality(String),
			ts DateTime64(3),
			score Float64,
			change Float64,
			market_status LowCardinality(String),
			trend_direction LowCardinality(String),
			volatility LowCardinality(String),
			confidence UInt8,
			news_count UInt32
		) ENGINE = ReplacingMergeTree PARTITION BY toYYYYMM(ts) ORDER BY (ts, event_id)`, a.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.index_archive (
			event_id String,
			ts DateTime64(3),
			market LowCardinality(String),
			name String,
			value Float64,
			change Float64
		) ENGINE = ReplacingMergeTree PARTITION BY toYYYYMM(ts) ORDER BY (market, name, ts, event_id)`, a.database),
	}
}

// Init creates the archive tables.
func (a *ClickHouseArchive) Init(ctx context.Context) error {
	return a.client.InitSchema(ctx, a.SchemaStatements())
}

// ArchiveCycle writes the cycle's sentiment reading and index observations.
func (a *ClickHouseArchive) ArchiveCycle(ctx context.Context, ev *models.MarketUpdatedEvent) error {
	if ev == nil {
		return nil
	}
	ts := ev.CreatedAt
	if ev.Sentiment != nil && !ev.Sentiment.Timestamp.IsZero() {
		ts = ev.Sentiment.Timestamp
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	if r := ev.Sentiment; r != nil {
		row := []interface{}{
			ev.ID, ev.Source, ev.Trigger, ts,
			r.Score, r.Change,
			string(r.MarketStatus), string(r.TrendDirection), string(r.Volatility),
			uint8(r.Confidence.Value), uint32(ev.NewsCount),
		}
		q := fmt.Sprintf(`INSERT INTO %s.sentiment_archive (event_id, source, trigger, ts, score, change,
			market_status, trend_direction, volatility, confidence, news_count)`, a.database)
		if err := a.client.InsertBatch(ctx, q, [][]interface{}{row}); err != nil {
			return fmt.Errorf("archive sentiment %s: %w", ev.ID, err)
		}
	}

	if snap := ev.Snapshot; snap != nil {
		rows := make([][]interface{}, 0, len(snap.Indices)+len(snap.IndianIndices))
		for _, q := range snap.Indices {
			rows = append(rows, []interface{}{ev.ID, ts, marketGlobal, q.Name, q.Value, q.Change})
		}
		for _, q := range snap.IndianIndices {
			rows = append(rows, []interface{}{ev.ID, ts, marketIndian, q.Name, q.Value, q.Change})
		}
		q := fmt.Sprintf(`INSERT INTO %s.index_archive (event_id, ts, market, name, value, change)`, a.database)
		if err := a.client.InsertBatch(ctx, q, rows); err != nil {
			return fmt.Errorf("archive indices %s: %w", ev.ID, err)
		}
	}
	return nil
}
