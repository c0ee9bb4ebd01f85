package postgres

import (
	"context"
	"fmt"
	"time"

	applogger "MarketMood/pkg/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Client owns the sqlx connection pool.
type Client struct {
	db *sqlx.DB
}

// connectFunc is swapped in tests.
var connectFunc = func(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return sqlx.ConnectContext(ctx, "postgres", dsn)
}

// NewClient connects to Postgres, retrying a bounded number of times before giving up.
func NewClient(ctx context.Context, l *applogger.Logger, opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectRetries:  5,
		ConnectDelay:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if cfg.ConnectRetries < 1 {
		cfg.ConnectRetries = 1
	}

	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		db, err = connectFunc(ctx, cfg.URL)
		if err == nil {
			break
		}
		l.Warn("postgres connect failed",
			applogger.Int("attempt", attempt),
			applogger.Int("max_attempts", cfg.ConnectRetries),
			applogger.Error(err),
		)
		if attempt == cfg.ConnectRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres connect: %w", ctx.Err())
		case <-time.After(cfg.ConnectDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("postgres connect after %d attempts: %w", cfg.ConnectRetries, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	l.Info("postgres connected",
		applogger.Int("max_open_conns", cfg.MaxOpenConns),
		applogger.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return &Client{db: db}, nil
}

// NewFromDB wraps an existing pool (tests, sqlmock).
func NewFromDB(db *sqlx.DB) *Client {
	return &Client{db: db}
}

// DB returns the sqlx pool.
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Health pings the database with a short deadline.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
