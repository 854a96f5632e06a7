// Package di provides dependency injection configuration for the ScoreDeck server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/scoredeck/scoredeck-server/internal/auth"
	"github.com/scoredeck/scoredeck-server/internal/config"
	"github.com/scoredeck/scoredeck-server/internal/di/providers"
	"github.com/scoredeck/scoredeck-server/internal/logger"
	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAuditLog)

	// Ranking projections
	do.Provide(injector, providers.ProvideRankingIndex)
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideBootstrap)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchIndexer)

	// Realtime layer
	do.Provide(injector, providers.ProvideHub)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideScoreboardService)

	// Workers
	do.Provide(injector, providers.ProvideSweeper)
	do.Provide(injector, providers.ProvideSessionCleanupJob)
	do.Provide(injector, providers.ProvideConfigWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.AuditLogHandle](injector)
	_ = do.MustInvoke[*ranking.Index](injector)
	_ = do.MustInvoke[*ranking.Catalog](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.HubHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.ScoreboardService](injector)
	_ = do.MustInvoke[*providers.Bootstrap](injector)

	// Workers
	_ = do.MustInvoke[*providers.SweeperHandle](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.ConfigWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Reconcile the search index with the store after projections are warm
	providers.SyncSearchIndexIfNeeded(injector)

	return nil
}
