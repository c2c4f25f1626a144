//go:build wireinject
// +build wireinject

package di

import (
	"ChainPulse/pkg/config"
	"ChainPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Persistence
		ProvideStoreSet,
		ProvideSignalStore,
		ProvideTradeStore,

		// External services
		ProvideMarketFeed,
		ProvideVenueRegistry,
		ProvideNotifier,
		ProvideJournal,

		// Use cases
		ProvideSignalIngestor,
		ProvideTradingEngine,
		ProvidePositionMonitor,
		ProvideHeartbeat,
		ProvideSupervisor,

		// HTTP surface
		ProvideOpsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
