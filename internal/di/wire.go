//go:build wireinject
// +build wireinject

package di

import (
	"MarketMood/pkg/config"
	"MarketMood/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes infrastructure clients in reverse construction order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideErrorTracker,
		ProvidePostgresClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideMetrics,

		// Repositories
		ProvideArchive,
		ProvideStore,

		// Sources
		ProvideRand,
		ProvideFetcher,
		ProvideMoneycontrol,
		ProvideCalendar,
		ProvideMarketSource,
		ProvideNewsSource,
		ProvideAnalyzer,

		// Use cases
		ProvideMarketUpdater,
		ProvideMetricsRefresher,
		ProvideCalendarSync,
		ProvideScheduler,

		// Transport
		ProvideLiveHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
