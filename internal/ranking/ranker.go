// Package ranking turns a free-text query into a shortlist of catalog
// entries. The pipeline is a chain of pure stages: ScoreAll, SortByRelevance,
// SelectPopular and SortByBoost. Only SelectPopular touches the network.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// Options tunes the ranker.
type Options struct {
	// Threshold is exclusive: a candidate must score strictly above it.
	Threshold float64
	TopK      int
	Workers   int
}

// DefaultOptions returns threshold 90 and a shortlist of 30.
func DefaultOptions() Options {
	return Options{Threshold: 90, TopK: 30}
}

// Ranker runs the ranking pipeline.
type Ranker struct {
	source PopularitySource
	opts   Options
	logger *slog.Logger
}

// New creates a Ranker.
func New(source PopularitySource, opts Options, log *slog.Logger) *Ranker {
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Ranker{
		source: source,
		opts:   opts,
		logger: logger.OrNop(log).With("component", "ranking"),
	}
}

// Rank returns the shortlist for query. No match is an empty slice, not an error.
func (r *Ranker) Rank(ctx context.Context, catalog []domain.CatalogEntry, query string) ([]domain.Candidate, error) {
	return r.RankTop(ctx, catalog, query, r.opts.TopK)
}

// RankTop is Rank with an explicit shortlist size.
func (r *Ranker) RankTop(ctx context.Context, catalog []domain.CatalogEntry, query string, topK int) ([]domain.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domainerrors.Validation("query cannot be empty")
	}
	if topK <= 0 {
		topK = r.opts.TopK
	}

	start := time.Now()

	scored, err := ScoreAll(ctx, catalog, query, r.opts.Threshold, r.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("score catalog: %w", err)
	}

	shortlist, err := SelectPopular(ctx, SortByRelevance(scored), r.source, topK)
	if err != nil {
		return nil, fmt.Errorf("check popularity: %w", err)
	}

	ranked := SortByBoost(shortlist)

	r.logger.Debug("query ranked",
		"query", query,
		"catalog", len(catalog),
		"matched", len(scored),
		"returned", len(ranked),
		"duration", time.Since(start),
	)
	return ranked, nil
}
