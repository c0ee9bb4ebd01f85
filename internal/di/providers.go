package di

import (
	"context"
	"fmt"
	"time"

	"MarketMood/internal/domain/repository"
	"MarketMood/internal/domain/service"
	"MarketMood/internal/handler/api"
	internalrepo "MarketMood/internal/repository"
	"MarketMood/internal/service/errtrack"
	"MarketMood/internal/service/generator"
	"MarketMood/internal/service/ratelimit"
	"MarketMood/internal/service/scraper"
	"MarketMood/internal/service/sentiment"
	"MarketMood/internal/usecase"
	"MarketMood/pkg/cache"
	pkgch "MarketMood/pkg/clickhouse"
	"MarketMood/pkg/config"
	xhttp "MarketMood/pkg/http"
	pkgkafka "MarketMood/pkg/kafka"
	applogger "MarketMood/pkg/logger"
	"MarketMood/pkg/metrics"
	"MarketMood/pkg/postgres"
	"MarketMood/pkg/server"

	"github.com/labstack/echo/v4"
)

const (
	initTimeout         = 10 * time.Second
	logFlushInterval    = 30 * time.Second
	logFlushThreshold   = 100
	trackerFlushTimeout = 2 * time.Second
	updateLockTTL       = 5 * time.Minute
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts, cfg.Kafka.Compression),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithKeyOrdering(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. With Kafka enabled, error logs are
// aggregated and shipped to the logs topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   logFlushInterval,
		CountThreshold: logFlushThreshold,
		Topic:          cfg.Kafka.Topics.Logs,
		Publisher:      internalrepo.NewLogPublisher(producer),
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideErrorTracker creates the Sentry tracker, a no-op without DSN.
func ProvideErrorTracker(cfg *config.Config) (errtrack.Tracker, func(), error) {
	env := cfg.Sentry.Environment
	if env == "" {
		env = cfg.Environment
	}
	t, err := errtrack.New(errtrack.Options{
		DSN:         cfg.Sentry.DSN,
		Environment: env,
		SampleRate:  cfg.Sentry.SampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error tracker: %w", err)
	}
	return t, func() { t.Flush(trackerFlushTimeout) }, nil
}

// ProvidePostgresClient connects to Postgres and applies pending migrations.
func ProvidePostgresClient(cfg *config.Config, l *applogger.Logger) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(context.Background(), l.With("postgres"),
		postgres.WithURL(cfg.Database.URL),
		postgres.WithPool(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime),
		postgres.WithConnectRetry(cfg.Database.ConnectRetries, cfg.Database.ConnectDelay),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres client: %w", err)
	}
	if err := client.RunMigrations(l, cfg.Database.MigrationsPath); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideCache creates the response cache: memory in front of Redis when Redis is
// enabled, memory only otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize))
		return mc, func() { _ = mc.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPoolSize(cfg.Redis.PoolSize),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(cfg.Cache.TTL),
	)
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideArchive creates the ClickHouse archive and its schema, or nil without ClickHouse.
func ProvideArchive(cfg *config.Config, client *pkgch.Client) (*internalrepo.ClickHouseArchive, error) {
	if client == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(client, cfg.ClickHouse.Database)
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideStore wraps the Postgres store with the read-through response cache.
func ProvideStore(pg *postgres.Client, c cache.Service, cfg *config.Config, l *applogger.Logger) repository.Store {
	return internalrepo.NewCachedStore(internalrepo.NewPostgresStore(pg.DB(), l), c, cfg.Cache.TTL, l)
}

func ProvideRand() service.Rand {
	return generator.NewRand(time.Now().UnixNano())
}

// ProvideFetcher creates the paced scraper fetcher, or nil when scraping is disabled.
func ProvideFetcher(cfg *config.Config, l *applogger.Logger) *scraper.Fetcher {
	if !cfg.Scraper.Enabled {
		return nil
	}
	opts := []scraper.Option{
		scraper.WithClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Scraper.Timeout), xhttp.WithMaxBody(scraper.MaxBodyBytes))),
		scraper.WithRequestDelay(cfg.Scraper.RequestDelay),
		scraper.WithMaxRetries(cfg.Scraper.MaxRetries),
		scraper.WithLogger(l.With("scraper")),
	}
	if cfg.Scraper.UserAgent != "" {
		opts = append(opts, scraper.WithUserAgent(cfg.Scraper.UserAgent))
	}
	return scraper.NewFetcher(opts...)
}

func ProvideMoneycontrol(cfg *config.Config, fetcher *scraper.Fetcher) *scraper.Moneycontrol {
	if fetcher == nil {
		return nil
	}
	return scraper.NewMoneycontrol(fetcher, cfg.Scraper.BaseURL)
}

func ProvideCalendar(cfg *config.Config, fetcher *scraper.Fetcher) *scraper.Calendar {
	if fetcher == nil {
		return nil
	}
	return scraper.NewCalendar(fetcher, cfg.Scraper.CalendarURL, nil)
}

// ProvideMarketSource picks the scraper or the generator per source.mode.
func ProvideMarketSource(cfg *config.Config, mc *scraper.Moneycontrol, rnd service.Rand) service.MarketDataSource {
	if cfg.LiveSource() {
		return scraper.NewLiveSource(mc, cfg.Source.NewsCount)
	}
	return generator.NewMarket(rnd)
}

func ProvideNewsSource(cfg *config.Config, mc *scraper.Moneycontrol, rnd service.Rand) service.NewsSource {
	if cfg.LiveSource() {
		return scraper.NewLiveSource(mc, cfg.Source.NewsCount)
	}
	return generator.NewNews(rnd, cfg.Source.NewsCount)
}

func ProvideAnalyzer(rnd service.Rand) service.SentimentAnalyzer {
	return sentiment.NewAnalyzer(rnd)
}

// ProvideMarketUpdater wires the update cycle to the configured archive backend.
// The cross-instance update lock needs Redis.
func ProvideMarketUpdater(
	cfg *config.Config,
	market service.MarketDataSource,
	news service.NewsSource,
	analyzer service.SentimentAnalyzer,
	store repository.Store,
	producer *pkgkafka.Producer,
	archive *internalrepo.ClickHouseArchive,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.MarketUpdater {
	opts := []usecase.UpdaterOption{usecase.WithUpdaterMetrics(m)}
	switch cfg.Archive.Backend {
	case config.ArchiveKafka:
		opts = append(opts, usecase.WithEventPublisher(internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Updates)))
	case config.ArchiveClickHouse:
		opts = append(opts, usecase.WithArchive(archive))
	}
	if cfg.Redis.Enabled {
		opts = append(opts, usecase.WithLocker(c, updateLockTTL))
	}
	return usecase.NewMarketUpdater(market, news, analyzer, store, l, opts...)
}

func ProvideMetricsRefresher(mc *scraper.Moneycontrol, store repository.Store, l *applogger.Logger) *usecase.MetricsRefresher {
	if mc == nil {
		return nil
	}
	return usecase.NewMetricsRefresher(mc, store, l)
}

func ProvideCalendarSync(cal *scraper.Calendar, store repository.Store, l *applogger.Logger) *usecase.CalendarSync {
	if cal == nil {
		return nil
	}
	return usecase.NewCalendarSync(cal, store, scraper.IST, l)
}

// ProvideScheduler registers the periodic jobs. Failed runs are reported to the tracker.
// The index refresh only exists when the scraper is enabled.
func ProvideScheduler(
	cfg *config.Config,
	updater *usecase.MarketUpdater,
	calendar *usecase.CalendarSync,
	refresher *usecase.MetricsRefresher,
	tracker errtrack.Tracker,
	l *applogger.Logger,
) *usecase.Scheduler {
	s := usecase.NewScheduler(l, func(name string, err error) {
		tracker.CaptureError(context.Background(), err, map[string]string{"job": name})
	})
	s.Register("market-update", cfg.Scheduler.Interval, func(ctx context.Context) error {
		_, err := updater.Update(ctx, usecase.TriggerScheduler)
		return err
	})
	if refresher != nil {
		s.Register("metrics-refresh", cfg.Scheduler.Interval, refresher.Refresh)
	}
	if calendar != nil && cfg.Scheduler.CalendarInterval > 0 {
		s.Register("calendar-sync", cfg.Scheduler.CalendarInterval, func(ctx context.Context) error {
			_, err := calendar.Sync(ctx)
			return err
		})
	}
	return s
}

func ProvideLiveHandler(cfg *config.Config, store repository.Store, rnd service.Rand, m repository.Metrics, l *applogger.Logger) *api.LiveHandler {
	feed := usecase.NewLiveFeed(store, rnd)
	limiter := ratelimit.New(int(cfg.Live.InboundBurst), cfg.Live.InboundPerSec)
	return api.NewLiveHandler(l, feed, limiter, m, cfg.Live.TickInterval)
}

// ProvideHTTPServer registers every route group. Scraper routes exist only with the scraper enabled.
func ProvideHTTPServer(
	cfg *config.Config,
	store repository.Store,
	updater *usecase.MarketUpdater,
	mc *scraper.Moneycontrol,
	cal *scraper.Calendar,
	refresher *usecase.MetricsRefresher,
	live *api.LiveHandler,
	tracker errtrack.Tracker,
	l *applogger.Logger,
) *xhttp.Server {
	handlers := []xhttp.Handler{
		api.NewSystemHandler(l, store, cfg.Environment),
		api.NewDashboardHandler(l, store, updater),
		live,
	}
	if mc != nil {
		handlers = append(handlers, api.NewScraperHandler(l, mc, cal, refresher))
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(l),
		xhttp.WithPanicReporter(func(c echo.Context, recovered interface{}) {
			tracker.CapturePanic(c.Request().Context(), recovered, requestTags(c))
		}),
		xhttp.WithErrorReporter(func(c echo.Context, err error) {
			tracker.CaptureError(c.Request().Context(), err, requestTags(c))
		}),
	)
}

func requestTags(c echo.Context) map[string]string {
	return map[string]string{
		"route":  c.Path(),
		"method": c.Request().Method,
	}
}

// ProvideKafkaConsumer creates the archive consumer when cycles are archived through Kafka.
func ProvideKafkaConsumer(
	cfg *config.Config,
	archive *internalrepo.ClickHouseArchive,
	m repository.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if cfg.Archive.Backend != config.ArchiveKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewArchiveHandler(cfg.Kafka.Topics.Updates, archive, m))
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LogHook(l.With("archive_consumer"))))
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	live *api.LiveHandler,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, srv, scheduler, consumer, live, l)
}
