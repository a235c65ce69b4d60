// Package harvest collects review text for one app by walking the
// cursor-paginated review listing.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/steam"
)

// ReviewSource serves pages of the review listing.
type ReviewSource interface {
	ReviewPage(ctx context.Context, appID int64, req steam.PageRequest) (*steam.ReviewPage, error)
}

// Options configures a harvest.
type Options struct {
	PageSize int
	Language string
	DayRange int

	// TrimToCap stops exactly at the cap. Without it the last page is kept
	// whole, so a harvest may return up to cap+PageSize-1 records.
	TrimToCap bool
}

// DefaultOptions mirrors steam.DefaultPageRequest.
func DefaultOptions() Options {
	req := steam.DefaultPageRequest()
	return Options{PageSize: req.NumPerPage, Language: req.Language, DayRange: req.DayRange}
}

// Harvester walks review pages.
type Harvester struct {
	source    ReviewSource
	opts      Options
	sanitizer *Sanitizer
	logger    *slog.Logger
}

// New creates a Harvester.
func New(source ReviewSource, opts Options, log *slog.Logger) *Harvester {
	def := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = def.PageSize
	}
	if opts.Language == "" {
		opts.Language = def.Language
	}
	if opts.DayRange <= 0 {
		opts.DayRange = def.DayRange
	}
	return &Harvester{
		source:    source,
		opts:      opts,
		sanitizer: NewSanitizer(),
		logger:    logger.OrNop(log).With("component", "harvest"),
	}
}

// Harvest collects at least limit reviews when the upstream has them.
// Records are numbered from 1 in arrival order.
func (h *Harvester) Harvest(ctx context.Context, appID int64, limit int) (*domain.ReviewBatch, error) {
	if limit <= 0 {
		return nil, domainerrors.Validationf("review cap must be positive, got %d", limit)
	}

	runID := uuid.NewString()
	log := h.logger.With("run_id", runID, "appid", appID)
	start := time.Now()

	req := steam.DefaultPageRequest()
	req.NumPerPage = h.opts.PageSize
	req.Language = h.opts.Language
	req.DayRange = h.opts.DayRange

	batch := domain.NewReviewBatch()
	nextID := 1
	pages := 0

	for batch.Len() < limit {
		page, err := h.source.ReviewPage(ctx, appID, req)
		if err != nil {
			log.Warn("harvest aborted", "page", pages+1, "collected", batch.Len(), "error", err)
			return nil, fmt.Errorf("harvest app %d page %d: %w", appID, pages+1, err)
		}
		pages++

		if pages == 1 {
			batch.TotalAvailable = page.Summary.TotalReviews
		}
		if page.Summary.NumReviews == 0 || len(page.Reviews) == 0 {
			break
		}

		for _, r := range page.Reviews {
			if h.opts.TrimToCap && batch.Len() >= limit {
				break
			}
			batch.Records[nextID] = domain.ReviewRecord{
				ID:        nextID,
				Text:      h.sanitizer.Clean(r.Text),
				Sentiment: domain.SentimentFromVote(r.VotedUp),
			}
			nextID++
		}

		if page.Cursor == "" || page.Cursor == req.Cursor {
			break
		}
		req.Cursor = page.Cursor
	}

	log.Info("harvest complete",
		"pages", pages,
		"records", batch.Len(),
		"positive", batch.Positive(),
		"negative", batch.Negative(),
		"total_available", batch.TotalAvailable,
		"duration", time.Since(start),
	)
	return batch, nil
}
