package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/search"
	"github.com/Duerkos/steam-reviews-ai/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve index over stored summaries.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)

	index, err := search.NewSearchIndex(search.Options{
		Path:   cfg.Storage.SearchIndexPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	// Names come from whatever catalog is loaded when a summary is indexed.
	index.SetNameResolver(catalogHandle.Name)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSummaryIndexService provides the summary index service.
func ProvideSummaryIndexService(i do.Injector) (*service.SummaryIndexService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSummaryIndexService(storeHandle.Store, indexHandle.SearchIndex, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// does not match the store. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexService := do.MustInvoke[*service.SummaryIndexService](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		if err := indexService.EnsureIndexed(context.Background()); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		count, _ := indexService.DocumentCount()
		log.Info("Search index ready", "documents", count)
	}()
}
