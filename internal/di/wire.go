//go:build wireinject
// +build wireinject

package di

import (
	"ShopScore/pkg/config"
	"ShopScore/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideMetrics,

	// Domain services
	ProvideCatalog,
	ProvideDetector,
	ProvideSeriesModel,
	ProvideForecasters,
	ProvideEstimator,
	ProvideAggregator,

	// Infrastructure clients
	ProvideRedisCache,
	ProvideCache,
	ProvideClickHouseClient,
	ProvideKafkaProducer,

	// Repositories
	ProvideSeriesStore,
	ProvideScorePublisher,

	// Use cases
	ProvideSeriesUseCase,
	ProvideProductReportUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		coreSet,
		ProvideQueue,
		ProvideScoreSubmitter,
		ProvideRateLimiter,
		ProvideScoreHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeReporter wires the evaluation graph without the HTTP surface.
func InitializeReporter(cfg *config.Config) (*Reporter, error) {
	wire.Build(coreSet, ProvideReporter)
	return &Reporter{}, nil
}
