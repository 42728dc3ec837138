//go:build wireinject
// +build wireinject

package di

import (
	"skyline/pkg/config"
	"skyline/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Logging & metrics
        ProvideLogger,
        ProvideMetrics,

        // Infrastructure clients
        ProvideClickHouseClient,
        ProvideKafkaProducer,
        ProvideKafkaConsumer,
        ProvideRedisCache,
        ProvideCacheService,

        // Repositories
        ProvidePlayStore,
        ProvidePredictionStore,
        ProvideSessionStore,
        ProvidePlayPublisher,
        ProvideFeedStream,

        // External service clients
        ProvideCommentator,
        ProvideSynthesizer,
        ProvidePredictor,

        // Use cases
        ProvidePlayProcessor,
        ProvidePlayCollector,
        ProvideKafkaPlaysHandler,
        ProvideReplayManager,
        ProvideGamesService,
        ProvidePredictionService,

        // HTTP
        ProvideRouter,

        // Application server
        ProvideApp,
    )
    return &server.App{}, nil
}
