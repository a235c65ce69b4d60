package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/search"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

// ReindexResult reports what a full reindex did.
type ReindexResult struct {
	Summaries int   `json:"summaries"`
	Indexed   int   `json:"indexed"`
	Skipped   int   `json:"skipped"`
	TookMs    int64 `json:"took_ms"`
}

// SummaryIndexService keeps the full-text index in step with the summary
// store and serves searches over it.
type SummaryIndexService struct {
	store  store.SummaryStore
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSummaryIndexService creates a new summary index service.
func NewSummaryIndexService(st store.SummaryStore, index *search.SearchIndex, log *slog.Logger) *SummaryIndexService {
	return &SummaryIndexService{
		store:  st,
		index:  index,
		logger: logger.OrNop(log).With("component", "summary_index"),
	}
}

// Reindex drops the index and rebuilds it from every stored summary.
func (s *SummaryIndexService) Reindex(ctx context.Context) (*ReindexResult, error) {
	start := time.Now()

	var records []*domain.SummaryRecord
	for rec, err := range s.store.StreamSummaries(ctx) {
		if err != nil {
			return nil, fmt.Errorf("stream summaries: %w", err)
		}
		records = append(records, rec)
	}

	if err := s.index.Rebuild(); err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}

	indexed, skipped, err := s.index.IndexSummaries(records)
	if err != nil {
		return nil, fmt.Errorf("index summaries: %w", err)
	}

	res := &ReindexResult{
		Summaries: len(records),
		Indexed:   indexed,
		Skipped:   skipped,
		TookMs:    time.Since(start).Milliseconds(),
	}
	s.logger.Info("summary index rebuilt",
		"summaries", res.Summaries,
		"indexed", res.Indexed,
		"skipped", res.Skipped,
		"duration_ms", res.TookMs,
	)
	return res, nil
}

// EnsureIndexed rebuilds the index when its document count does not match
// the store, which happens after a mapping change or a fresh data directory.
func (s *SummaryIndexService) EnsureIndexed(ctx context.Context) error {
	stored, err := s.store.CountSummaries(ctx)
	if err != nil {
		return fmt.Errorf("count summaries: %w", err)
	}
	docs, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if uint64(stored) == docs {
		return nil
	}

	s.logger.Info("summary index out of date", "stored", stored, "indexed", docs)
	_, err = s.Reindex(ctx)
	return err
}

// Search runs a full-text query over stored summaries.
func (s *SummaryIndexService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if params.MinScore < 0 || params.MaxScore < 0 {
		return nil, domainerrors.Validation("score filters cannot be negative")
	}
	if params.MaxScore > 0 && params.MinScore > params.MaxScore {
		return nil, domainerrors.Validation("min_score cannot exceed max_score")
	}
	if params.Limit <= 0 {
		params.Limit = search.DefaultSearchParams().Limit
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.index.Search(ctx, params)
}

// DocumentCount returns the number of indexed summaries.
func (s *SummaryIndexService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
