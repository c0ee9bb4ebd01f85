package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/repository"
	applogger "MarketMood/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// market_latest kinds
const (
	kindIndex       = "index"
	kindIndianIndex = "indian_index"
	kindSector      = "sector"
	kindFactor      = "factor"
)

const upsertLatest = `INSERT INTO market_latest (kind, name, value, change, factor_id, position, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (kind, name) DO UPDATE SET
	value = EXCLUDED.value,
	change = EXCLUDED.change,
	factor_id = EXCLUDED.factor_id,
	position = EXCLUDED.position,
	updated_at = EXCLUDED.updated_at`

// PostgresStore implements repository.Store on Postgres.
// Every entity group is written in its own transaction.
type PostgresStore struct {
	db     *sqlx.DB
	logger *applogger.Logger
	now    func() time.Time
}

// NewPostgresStore creates the store over an open pool.
func NewPostgresStore(db *sqlx.DB, l *applogger.Logger) *PostgresStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &PostgresStore{db: db, logger: l.With("postgres_store"), now: time.Now}
}

var _ repository.Store = (*PostgresStore)(nil)

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sentimentRow struct {
	Score           float64   `db:"score"`
	Change          float64   `db:"change"`
	MarketStatus    string    `db:"market_status"`
	TrendDirection  string    `db:"trend_direction"`
	Volatility      string    `db:"volatility"`
	ConfidenceLabel string    `db:"confidence_label"`
	ConfidenceValue float64   `db:"confidence_value"`
	Timestamp       time.Time `db:"timestamp"`
}

// CurrentSentiment returns the most recent reading or repository.ErrNoSentiment.
func (s *PostgresStore) CurrentSentiment(ctx context.Context) (*models.CurrentSentiment, error) {
	var row sentimentRow
	err := s.db.GetContext(ctx, &row, `SELECT score, change, market_status, trend_direction, volatility,
		confidence_label, confidence_value, timestamp
		FROM sentiment_scores ORDER BY timestamp DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoSentiment
	}
	if err != nil {
		return nil, fmt.Errorf("select current sentiment: %w", err)
	}
	return &models.CurrentSentiment{
		Score:          row.Score,
		Change:         row.Change,
		MarketStatus:   models.MarketStatus(row.MarketStatus),
		TrendDirection: models.TrendDirection(row.TrendDirection),
		Volatility:     models.Level(row.Volatility),
		Confidence: models.Confidence{
			Label: models.Level(row.ConfidenceLabel),
			Value: int(row.ConfidenceValue),
		},
		LastUpdated: row.Timestamp,
	}, nil
}

// HistoricalSentiment returns points and key events at or after since, oldest first.
func (s *PostgresStore) HistoricalSentiment(ctx context.Context, since time.Time) (*models.HistoricalSentiment, error) {
	out := &models.HistoricalSentiment{
		SentimentHistory: []models.SentimentPoint{},
		KeyEvents:        []models.KeyEvent{},
	}
	if err := s.db.SelectContext(ctx, &out.SentimentHistory,
		`SELECT timestamp, score FROM historical_sentiment WHERE timestamp >= $1 ORDER BY timestamp`, since); err != nil {
		return nil, fmt.Errorf("select sentiment history: %w", err)
	}
	if err := s.db.SelectContext(ctx, &out.KeyEvents,
		`SELECT title, COALESCE(description, '') AS description, timestamp, impact
		FROM key_events WHERE timestamp >= $1 ORDER BY timestamp`, since); err != nil {
		return nil, fmt.Errorf("select key events: %w", err)
	}
	return out, nil
}

type newsRow struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Summary         string    `db:"summary"`
	Source          string    `db:"source"`
	URL             string    `db:"url"`
	SentimentImpact float64   `db:"sentiment_impact"`
	Timestamp       time.Time `db:"timestamp"`
	Tags            []byte    `db:"tags"`
}

// NewsItems returns news at or after since, newest first.
func (s *PostgresStore) NewsItems(ctx context.Context, since time.Time) ([]models.NewsItem, error) {
	var rows []newsRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, title, summary, source, url, sentiment_impact, timestamp, tags
		FROM news_items WHERE timestamp >= $1 ORDER BY timestamp DESC`, since); err != nil {
		return nil, fmt.Errorf("select news: %w", err)
	}
	items := make([]models.NewsItem, 0, len(rows))
	for _, r := range rows {
		tags := []string{}
		if len(r.Tags) > 0 {
			if err := json.Unmarshal(r.Tags, &tags); err != nil {
				return nil, fmt.Errorf("decode tags of news %d: %w", r.ID, err)
			}
		}
		items = append(items, models.NewsItem{
			ID:              r.ID,
			Title:           r.Title,
			Summary:         r.Summary,
			Source:          r.Source,
			URL:             r.URL,
			SentimentImpact: r.SentimentImpact,
			Timestamp:       r.Timestamp,
			Tags:            tags,
		})
	}
	return items, nil
}

type latestRow struct {
	Kind     string        `db:"kind"`
	Name     string        `db:"name"`
	Value    float64       `db:"value"`
	Change   float64       `db:"change"`
	FactorID sql.NullInt64 `db:"factor_id"`
}

// MarketMetrics returns the current value of every index and sector plus the latest Nifty PCR.
func (s *PostgresStore) MarketMetrics(ctx context.Context) (*models.MarketMetrics, error) {
	var rows []latestRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT kind, name, value, change, factor_id FROM market_latest
		WHERE kind IN ($1, $2, $3) ORDER BY kind, position, name`,
		kindIndex, kindIndianIndex, kindSector); err != nil {
		return nil, fmt.Errorf("select latest metrics: %w", err)
	}

	out := &models.MarketMetrics{
		Indices:           []models.IndexQuote{},
		IndianIndices:     []models.IndexQuote{},
		SectorPerformance: []models.SectorPerformance{},
	}
	for _, r := range rows {
		switch r.Kind {
		case kindIndex:
			out.Indices = append(out.Indices, models.IndexQuote{Name: r.Name, Value: r.Value, Change: r.Change})
		case kindIndianIndex:
			out.IndianIndices = append(out.IndianIndices, models.IndexQuote{Name: r.Name, Value: r.Value, Change: r.Change})
		case kindSector:
			out.SectorPerformance = append(out.SectorPerformance, models.SectorPerformance{Name: r.Name, Change: r.Change})
		}
	}

	var pcr models.NiftyPCR
	err := s.db.GetContext(ctx, &pcr,
		`SELECT value, change, put_volume, call_volume, timestamp FROM nifty_pcr ORDER BY timestamp DESC LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("select nifty pcr: %w", err)
	default:
		out.NiftyPCR = &pcr
	}
	return out, nil
}

type elementRow struct {
	FactorID int64  `db:"factor_id"`
	Name     string `db:"name"`
	Status   string `db:"status"`
}

// MarketFactors returns the current score of every factor with the elements of its latest row.
func (s *PostgresStore) MarketFactors(ctx context.Context) (*models.MarketFactors, error) {
	var rows []latestRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT kind, name, value, change, factor_id FROM market_latest
		WHERE kind = $1 ORDER BY position, name`, kindFactor); err != nil {
		return nil, fmt.Errorf("select latest factors: %w", err)
	}

	out := &models.MarketFactors{Factors: make([]models.MarketFactor, 0, len(rows))}
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if r.FactorID.Valid {
			ids = append(ids, r.FactorID.Int64)
		}
	}
	byFactor := make(map[int64][]models.FactorElement, len(ids))
	if len(ids) > 0 {
		q, args, err := sqlx.In(`SELECT factor_id, name, status FROM factor_elements WHERE factor_id IN (?) ORDER BY id`, ids)
		if err != nil {
			return nil, fmt.Errorf("build elements query: %w", err)
		}
		var elems []elementRow
		if err := s.db.SelectContext(ctx, &elems, s.db.Rebind(q), args...); err != nil {
			return nil, fmt.Errorf("select factor elements: %w", err)
		}
		for _, e := range elems {
			byFactor[e.FactorID] = append(byFactor[e.FactorID], models.FactorElement{Name: e.Name, Status: e.Status})
		}
	}

	for _, r := range rows {
		elements := byFactor[r.FactorID.Int64]
		if elements == nil {
			elements = []models.FactorElement{}
		}
		out.Factors = append(out.Factors, models.MarketFactor{Name: r.Name, Score: r.Value, Elements: elements})
	}
	return out, nil
}

// UpcomingEvents returns up to limit events dated at or after from, soonest first.
func (s *PostgresStore) UpcomingEvents(ctx context.Context, from time.Time, limit int) ([]models.UpcomingEvent, error) {
	events := []models.UpcomingEvent{}
	if err := s.db.SelectContext(ctx, &events,
		`SELECT id, title, COALESCE(description, '') AS description, event_date, importance, type, impact
		FROM upcoming_events WHERE event_date >= $1 ORDER BY event_date LIMIT $2`, from, limit); err != nil {
		return nil, fmt.Errorf("select upcoming events: %w", err)
	}
	return events, nil
}

// SaveMarketData appends every present part of snap to its history table and refreshes
// market_latest. Parts are committed independently in the order indices, Indian indices,
// sectors, Nifty PCR, factors; the first failure stops the remaining parts.
func (s *PostgresStore) SaveMarketData(ctx context.Context, snap *models.MarketSnapshot) error {
	if snap == nil {
		return nil
	}
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	if err := s.saveQuotes(ctx, "market_indices", kindIndex, snap.Indices, ts); err != nil {
		return err
	}
	if err := s.saveQuotes(ctx, "indian_market_indices", kindIndianIndex, snap.IndianIndices, ts); err != nil {
		return err
	}
	if err := s.saveSectors(ctx, snap.SectorPerformance, ts); err != nil {
		return err
	}
	if snap.NiftyPCR != nil {
		if err := s.savePCR(ctx, snap.NiftyPCR, ts); err != nil {
			return err
		}
	}
	if err := s.saveFactors(ctx, snap.Factors, ts); err != nil {
		return err
	}

	s.logger.Debug("market data saved",
		applogger.Int("indices", len(snap.Indices)),
		applogger.Int("indian_indices", len(snap.IndianIndices)),
		applogger.Int("sectors", len(snap.SectorPerformance)),
		applogger.Int("factors", len(snap.Factors)),
	)
	return nil
}

// dedupeQuotes drops unnamed quotes and keeps the first quote per name.
func dedupeQuotes(quotes []models.IndexQuote) []models.IndexQuote {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]models.IndexQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.Name == "" {
			continue
		}
		if _, ok := seen[q.Name]; ok {
			continue
		}
		seen[q.Name] = struct{}{}
		out = append(out, q)
	}
	return out
}

func (s *PostgresStore) saveQuotes(ctx context.Context, table, kind string, quotes []models.IndexQuote, ts time.Time) error {
	quotes = dedupeQuotes(quotes)
	if len(quotes) == 0 {
		return nil
	}
	insert := fmt.Sprintf(`INSERT INTO %s (name, value, change, timestamp) VALUES ($1, $2, $3, $4)`, table)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, q := range quotes {
			if _, err := tx.ExecContext(ctx, insert, q.Name, q.Value, q.Change, ts); err != nil {
				return fmt.Errorf("insert %s %q: %w", table, q.Name, err)
			}
			if _, err := tx.ExecContext(ctx, upsertLatest, kind, q.Name, q.Value, q.Change, nil, i, ts); err != nil {
				return fmt.Errorf("upsert latest %s %q: %w", kind, q.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) saveSectors(ctx context.Context, sectors []models.SectorPerformance, ts time.Time) error {
	if len(sectors) == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, sec := range sectors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sector_performance (name, change, timestamp) VALUES ($1, $2, $3)`,
				sec.Name, sec.Change, ts); err != nil {
				return fmt.Errorf("insert sector %q: %w", sec.Name, err)
			}
			if _, err := tx.ExecContext(ctx, upsertLatest, kindSector, sec.Name, 0, sec.Change, nil, i, ts); err != nil {
				return fmt.Errorf("upsert latest sector %q: %w", sec.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save sector performance: %w", err)
	}
	return nil
}

func (s *PostgresStore) savePCR(ctx context.Context, pcr *models.NiftyPCR, ts time.Time) error {
	if !pcr.LastUpdated.IsZero() {
		ts = pcr.LastUpdated
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO nifty_pcr (value, change, put_volume, call_volume, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		pcr.Value, pcr.Change, pcr.PutVolume, pcr.CallVolume, ts); err != nil {
		return fmt.Errorf("save nifty pcr: %w", err)
	}
	return nil
}

func (s *PostgresStore) saveFactors(ctx context.Context, factors []models.MarketFactor, ts time.Time) error {
	if len(factors) == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, f := range factors {
			var id int64
			if err := tx.QueryRowxContext(ctx,
				`INSERT INTO market_factors (name, score, timestamp) VALUES ($1, $2, $3) RETURNING id`,
				f.Name, f.Score, ts).Scan(&id); err != nil {
				return fmt.Errorf("insert factor %q: %w", f.Name, err)
			}
			for _, e := range f.Elements {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO factor_elements (factor_id, name, status) VALUES ($1, $2, $3)`,
					id, e.Name, e.Status); err != nil {
					return fmt.Errorf("insert element %q of factor %q: %w", e.Name, f.Name, err)
				}
			}
			if _, err := tx.ExecContext(ctx, upsertLatest, kindFactor, f.Name, f.Score, 0, id, i, ts); err != nil {
				return fmt.Errorf("upsert latest factor %q: %w", f.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save market factors: %w", err)
	}
	return nil
}

// SaveNews appends news items in one transaction.
func (s *PostgresStore) SaveNews(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, n := range items {
			tags := n.Tags
			if tags == nil {
				tags = []string{}
			}
			raw, err := json.Marshal(tags)
			if err != nil {
				return fmt.Errorf("encode tags: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO news_items (title, summary, source, url, sentiment_impact, timestamp, tags)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				n.Title, n.Summary, n.Source, n.URL, n.SentimentImpact, n.Timestamp, raw); err != nil {
				return fmt.Errorf("insert news %q: %w", n.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save news: %w", err)
	}
	return nil
}

// SaveSentiment appends the reading, its history point and its key events in one transaction.
func (s *PostgresStore) SaveSentiment(ctx context.Context, r *models.SentimentReading) error {
	if r == nil {
		return nil
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentiment_scores (score, change, market_status, trend_direction, volatility,
			confidence_label, confidence_value, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.Score, r.Change, string(r.MarketStatus), string(r.TrendDirection), string(r.Volatility),
			string(r.Confidence.Label), r.Confidence.Value, ts); err != nil {
			return fmt.Errorf("insert sentiment score: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO historical_sentiment (timestamp, score) VALUES ($1, $2)`, ts, r.Score); err != nil {
			return fmt.Errorf("insert sentiment history: %w", err)
		}
		for _, ev := range r.KeyEvents {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO key_events (title, description, timestamp, impact) VALUES ($1, $2, $3, $4)`,
				ev.Title, ev.Description, ev.Timestamp, string(ev.Impact)); err != nil {
				return fmt.Errorf("insert key event %q: %w", ev.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save sentiment: %w", err)
	}
	return nil
}

// SaveUpcomingEvents inserts events, skipping any already stored with the same title and date.
func (s *PostgresStore) SaveUpcomingEvents(ctx context.Context, events []models.UpcomingEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, ev := range events {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO upcoming_events (title, description, event_date, importance, type, impact)
				VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (title, event_date) DO NOTHING`,
				ev.Title, ev.Description, ev.EventDate, string(ev.Importance), ev.Type, string(ev.Impact)); err != nil {
				return fmt.Errorf("insert event %q: %w", ev.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save upcoming events: %w", err)
	}
	return nil
}
