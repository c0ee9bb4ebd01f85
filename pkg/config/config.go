package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"MarketMood/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"

	SourceSimulated = "simulated"
	SourceLive      = "live"

	ArchiveNone       = "none"
	ArchiveKafka      = "kafka"
	ArchiveClickHouse = "clickhouse"

	// DevelopmentPort is used when no port is configured in development.
	DevelopmentPort = 3001
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Database struct {
		URL             string        `yaml:"url"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"25"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"5m"`
		ConnectRetries  int           `yaml:"connect_retries" default:"5"`
		ConnectDelay    time.Duration `yaml:"connect_delay" default:"2s"`
		MigrationsPath  string        `yaml:"migrations_path" default:"migrations"`
	} `yaml:"database"`
	Source struct {
		Mode      string `yaml:"mode" default:"simulated"`
		NewsCount int    `yaml:"news_count" default:"5"`
	} `yaml:"source"`
	Scheduler struct {
		Enabled          bool          `yaml:"enabled" default:"true"`
		Interval         time.Duration `yaml:"interval" default:"15m"`
		CalendarInterval time.Duration `yaml:"calendar_interval" default:"6h"`
		StopTimeout      time.Duration `yaml:"stop_timeout" default:"30s"`
	} `yaml:"scheduler"`
	Scraper struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		BaseURL      string        `yaml:"base_url" default:"https://www.moneycontrol.com"`
		CalendarURL  string        `yaml:"calendar_url" default:"https://zerodha.com/markets/calendar/"`
		RequestDelay time.Duration `yaml:"request_delay" default:"5s"`
		MaxRetries   int           `yaml:"max_retries" default:"3"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		UserAgent    string        `yaml:"user_agent"`
	} `yaml:"scraper"`
	Live struct {
		TickInterval  time.Duration `yaml:"tick_interval" default:"3s"`
		InboundBurst  float64       `yaml:"inbound_burst" default:"10"`
		InboundPerSec float64       `yaml:"inbound_per_sec" default:"2"`
	} `yaml:"live"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"marketmood"`
	} `yaml:"redis"`
	Cache struct {
		TTL        time.Duration `yaml:"ttl" default:"30s"`
		MemorySize int           `yaml:"memory_size" default:"256"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Topics       struct {
			Updates string `yaml:"updates" default:"marketmood.market-updates"`
			Logs    string `yaml:"logs" default:"marketmood.logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"marketmood-archiver"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"marketmood"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Archive struct {
		Backend string `yaml:"backend" default:"none"`
	} `yaml:"archive"`
	Sentry struct {
		DSN         string  `yaml:"dsn"`
		SampleRate  float64 `yaml:"sample_rate" default:"1"`
		Environment string  `yaml:"environment"`
	} `yaml:"sentry"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	return load(path, os.Getenv)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
// getenv may be nil to skip environment overrides.
func Parse(b []byte, getenv func(string) string) (*Config, error) {
	var c Config
	// defaults first so explicit zero values in YAML (enabled: false) survive
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if getenv != nil {
		c.applyEnv(getenv)
	}
	c.applyPortDefault()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func load(path string, getenv func(string) string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("NODE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("DATA_SOURCE"); v != "" {
		c.Source.Mode = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, _ := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		c.Redis.Port = util.ParseIntDefault(port, 6379)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := getenv("SENTRY_DSN"); v != "" {
		c.Sentry.DSN = v
	}
}

func (c *Config) applyPortDefault() {
	if c.Server.Port == 0 && c.IsDevelopment() {
		c.Server.Port = DevelopmentPort
	}
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LiveSource reports whether market data and news come from the scrapers.
func (c *Config) LiveSource() bool {
	return c.Source.Mode == SourceLive
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required outside %s", EnvDevelopment)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Source.Mode != SourceSimulated && c.Source.Mode != SourceLive {
		return fmt.Errorf("source.mode must be '%s' or '%s', got '%s'", SourceSimulated, SourceLive, c.Source.Mode)
	}
	if c.LiveSource() && !c.Scraper.Enabled {
		return fmt.Errorf("source.mode '%s' requires scraper.enabled", SourceLive)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	if c.Live.TickInterval <= 0 {
		return fmt.Errorf("live.tick_interval must be positive")
	}
	switch c.Archive.Backend {
	case ArchiveNone:
	case ArchiveKafka:
		if !c.Kafka.Enabled || !c.ClickHouse.Enabled {
			return fmt.Errorf("archive.backend 'kafka' requires kafka.enabled and clickhouse.enabled")
		}
	case ArchiveClickHouse:
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("archive.backend 'clickhouse' requires clickhouse.enabled")
		}
	default:
		return fmt.Errorf("archive.backend must be one of none, kafka, clickhouse, got '%s'", c.Archive.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
