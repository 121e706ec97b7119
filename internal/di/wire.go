//go:build wireinject
// +build wireinject

package di

import (
	"TradeGuard/pkg/config"
	"TradeGuard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresPool,
		ProvideKafkaProducer,

		// Repositories
		ProvideBrokerGateway,
		ProvideCandleFeed,
		ProvidePositionSource,
		ProvideOrderSource,
		ProvideMarketContext,
		ProvideEvaluationStore,
		ProvideEvaluationPublisher,

		// Engine
		ProvideAgentDeps,
		ProvideBehavioralAgent,
		ProvideStructureAgent,
		ProvidePatternAgent,
		ProvideStationAgent,

		// Use cases
		ProvideRiskOrchestrator,
		ProvideStationsUseCase,
		ProvideHistory,
		ProvideIntakeHandler,

		// Transport
		ProvideRiskHandler,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
