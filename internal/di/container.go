// Package di provides dependency injection configuration for the Steam reviews server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/api"
	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/di/providers"
	"github.com/Duerkos/steam-reviews-ai/internal/harvest"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/ranking"
	"github.com/Duerkos/steam-reviews-ai/internal/service"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	registerServices(injector)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// NewCLIContainer creates a container around an already loaded config and
// logger. It registers no HTTP server.
func NewCLIContainer(cfg *config.Config, log *logger.Logger) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	registerServices(injector)

	return injector
}

func registerServices(injector do.Injector) {
	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCatalogSnapshot)

	// Upstream
	do.Provide(injector, providers.ProvideFetcher)
	do.Provide(injector, providers.ProvideSteamClient)
	do.Provide(injector, providers.ProvideCatalog)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSummaryIndexService)
	do.Provide(injector, providers.ProvidePopularityCache)
	do.Provide(injector, providers.ProvideRanker)
	do.Provide(injector, providers.ProvideSearchService)

	// Summaries
	do.Provide(injector, providers.ProvideHarvester)
	do.Provide(injector, providers.ProvideSummarizer)
	do.Provide(injector, providers.ProvideSummaryService)

	// Workers
	do.Provide(injector, providers.ProvideCatalogWatcher)
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if err := BootstrapServices(injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*api.Server](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}

// BootstrapServices initializes everything except the HTTP server.
func BootstrapServices(injector do.Injector) error {
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SnapshotHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[summarizer.Summarizer](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.FetcherHandle](injector)
	_ = do.MustInvoke[*providers.SteamClient](injector)
	_ = do.MustInvoke[*providers.CatalogHandle](injector)
	_ = do.MustInvoke[*service.SummaryIndexService](injector)
	_ = do.MustInvoke[*service.PopularityCache](injector)
	_ = do.MustInvoke[*ranking.Ranker](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*harvest.Harvester](injector)
	_ = do.MustInvoke[*service.SummaryService](injector)

	// Workers
	_ = do.MustInvoke[*providers.CatalogWatcherHandle](injector)

	return nil
}
