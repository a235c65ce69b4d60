package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/ranking"
)

// CatalogProvider serves the current catalog.
type CatalogProvider interface {
	Entries(ctx context.Context) ([]domain.CatalogEntry, error)
}

// SearchService finds apps by name. It bridges the catalog loader, the
// ranker and the popularity cache.
type SearchService struct {
	catalog    CatalogProvider
	ranker     *ranking.Ranker
	popularity *PopularityCache
	logger     *slog.Logger
}

// NewSearchService creates a new search service. The ranker should use
// popularity as its source so counts are shared with Stats.
func NewSearchService(catalog CatalogProvider, ranker *ranking.Ranker, popularity *PopularityCache, log *slog.Logger) *SearchService {
	return &SearchService{
		catalog:    catalog,
		ranker:     ranker,
		popularity: popularity,
		logger:     logger.OrNop(log).With("component", "search_service"),
	}
}

// Search returns the ranked shortlist for query. limit <= 0 uses the
// ranker's default.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.Validation("query cannot be empty")
	}

	entries, err := s.catalog.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return s.ranker.RankTop(ctx, entries, query, limit)
}

// Stats returns the review summary of an app.
func (s *SearchService) Stats(ctx context.Context, appID int64) (*domain.ReviewStats, error) {
	if appID <= 0 {
		return nil, domainerrors.Validationf("invalid app id %d", appID)
	}
	return s.popularity.Stats(ctx, appID)
}
