package postgres

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds Postgres pool and connect settings.
type ClientConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	ConnectDelay    time.Duration
}

// WithURL sets the connection string (postgres://...).
func WithURL(url string) ClientOption {
	return func(c *ClientConfig) {
		c.URL = url
	}
}

// WithPool sets pool sizing.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		c.ConnMaxLifetime = lifetime
	}
}

// WithConnectRetry sets how many connect attempts are made and the pause between them.
func WithConnectRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ConnectRetries = attempts
		c.ConnectDelay = delay
	}
}
