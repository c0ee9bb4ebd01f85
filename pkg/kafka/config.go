package kafka

import "time"

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration. Writes are always synchronous so
// callers see delivery errors.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	BatchTimeout time.Duration
	HashByKey    bool
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) {
		c.Brokers = brokers
	}
}

// WithDelivery sets acks (-1 = all), writer attempts and compression codec.
// Zero attempts and an empty codec keep the defaults.
func WithDelivery(acks, maxAttempts int, compression string) ProducerOption {
	return func(c *ProducerConfig) {
		c.RequiredAcks = acks
		if maxAttempts > 0 {
			c.MaxAttempts = maxAttempts
		}
		if compression != "" {
			c.Compression = compression
		}
	}
}

// WithBatching sets the batch flush thresholds: message count, bytes and linger.
func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if size > 0 {
			c.BatchSize = size
		}
		if bytes > 0 {
			c.BatchBytes = bytes
		}
		if linger > 0 {
			c.BatchTimeout = linger
		}
	}
}

// WithTimeouts sets writer read/write timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if write > 0 {
			c.WriteTimeout = write
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithKeyOrdering routes messages with the same key to the same partition.
func WithKeyOrdering() ProducerOption {
	return func(c *ProducerConfig) {
		c.HashByKey = true
	}
}
