package api

import (
	"github.com/Duerkos/steam-reviews-ai/internal/catalog"
	"github.com/Duerkos/steam-reviews-ai/internal/service"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Search       *service.SearchService       // Catalog search and review stats
	Summary      *service.SummaryService      // Summary cache and bug reports
	SummaryIndex *service.SummaryIndexService // Full-text search over stored summaries
	Catalog      *catalog.Loader
	Store        store.SummaryStore // Health checks only
}
