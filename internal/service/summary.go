package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/id"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
	"github.com/Duerkos/steam-reviews-ai/internal/validation"
)

// Summary cache defaults.
const (
	DefaultReviewCap             = 50
	DefaultPersistenceRetryDelay = 5 * time.Second
	DefaultRegenerateTimeout     = 5 * time.Minute
)

// ReviewHarvester collects review text for an app.
type ReviewHarvester interface {
	Harvest(ctx context.Context, appID int64, limit int) (*domain.ReviewBatch, error)
}

// ReviewCounter reports the current review count of an app.
type ReviewCounter interface {
	ReviewCount(ctx context.Context, appID int64) (int, error)
}

// SummaryOptions configures the summary cache.
type SummaryOptions struct {
	Policy                domain.FreshnessPolicy
	ReviewCap             int
	PersistenceRetryDelay time.Duration

	// RegenerateTimeout bounds a shared regeneration. It runs detached from
	// the caller that started it, so no single caller can cancel it.
	RegenerateTimeout time.Duration
}

// DefaultSummaryOptions returns the 30 day / 90% policy with a 50 review cap.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		Policy:                domain.DefaultFreshnessPolicy(),
		ReviewCap:             DefaultReviewCap,
		PersistenceRetryDelay: DefaultPersistenceRetryDelay,
		RegenerateTimeout:     DefaultRegenerateTimeout,
	}
}

// LookupResult is the outcome of a summary lookup.
type LookupResult struct {
	Content   *summarizer.Content
	FromCache bool
	Record    *domain.SummaryRecord
}

// SummaryResult is the outcome of Summarize. Apps without reviews are not
// summarized and come back with Available false.
type SummaryResult struct {
	Available          bool
	CurrentReviewCount int
	*LookupResult
}

// SummaryService is the summary cache: it serves stored summaries while they
// are fresh and regenerates them otherwise.
type SummaryService struct {
	store      store.SummaryStore
	harvester  ReviewHarvester
	summarizer summarizer.Summarizer
	counter    ReviewCounter
	indexer    store.SummaryIndexer
	validator  *validation.Validator
	opts       SummaryOptions
	logger     *slog.Logger

	group singleflight.Group
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSummaryService creates a new summary service. indexer may be nil.
func NewSummaryService(
	st store.SummaryStore,
	harvester ReviewHarvester,
	sum summarizer.Summarizer,
	counter ReviewCounter,
	indexer store.SummaryIndexer,
	opts SummaryOptions,
	log *slog.Logger,
) *SummaryService {
	def := DefaultSummaryOptions()
	if opts.Policy.MaxAge <= 0 {
		opts.Policy.MaxAge = def.Policy.MaxAge
	}
	if opts.Policy.MinRatio <= 0 {
		opts.Policy.MinRatio = def.Policy.MinRatio
	}
	if opts.ReviewCap <= 0 {
		opts.ReviewCap = def.ReviewCap
	}
	if opts.PersistenceRetryDelay < 0 {
		opts.PersistenceRetryDelay = 0
	}
	if opts.RegenerateTimeout <= 0 {
		opts.RegenerateTimeout = def.RegenerateTimeout
	}
	if indexer == nil {
		indexer = store.NewNoopSummaryIndexer()
	}

	return &SummaryService{
		store:      st,
		harvester:  harvester,
		summarizer: sum,
		counter:    counter,
		indexer:    indexer,
		validator:  validation.New(),
		opts:       opts,
		logger:     logger.OrNop(log).With("component", "summary"),
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Summarize fetches the app's current review count and looks the summary up
// against it. Apps with no reviews are reported as unavailable without
// touching the cache.
func (s *SummaryService) Summarize(ctx context.Context, appID int64) (*SummaryResult, error) {
	if appID <= 0 {
		return nil, domainerrors.Validationf("invalid app id %d", appID)
	}

	count, err := s.counter.ReviewCount(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("current review count: %w", err)
	}
	if count <= 0 {
		s.logger.Debug("app has no reviews", "appid", appID)
		return &SummaryResult{Available: false}, nil
	}

	res, err := s.Lookup(ctx, appID, count)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{Available: true, CurrentReviewCount: count, LookupResult: res}, nil
}

// Lookup returns the summary for an app, reusing the stored one when it is
// fresh for currentReviewCount. Every successful lookup counts as one
// consultation. A failed regeneration leaves the stored record untouched.
func (s *SummaryService) Lookup(ctx context.Context, appID int64, currentReviewCount int) (*LookupResult, error) {
	if appID <= 0 {
		return nil, domainerrors.Validationf("invalid app id %d", appID)
	}
	if currentReviewCount < 0 {
		return nil, domainerrors.Validation("current review count cannot be negative")
	}

	rec, err := retryPersistence(ctx, s, "get summary", func() (*domain.SummaryRecord, error) {
		return s.store.GetSummary(ctx, appID)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		rec = nil
	case err != nil:
		return nil, err
	}

	if rec != nil && s.opts.Policy.IsFresh(rec, currentReviewCount, s.now()) {
		content, decodeErr := summarizer.Decode(rec.Content)
		if decodeErr == nil {
			touched, err := s.touch(ctx, appID)
			if err != nil {
				return nil, err
			}
			s.logger.Debug("summary cache hit",
				"appid", appID,
				"times_consulted", touched.TimesConsulted,
			)
			return &LookupResult{Content: content, FromCache: true, Record: touched}, nil
		}
		s.logger.Warn("stored summary unreadable, regenerating", "appid", appID, "error", decodeErr)
	}

	// Misses for the same app in this process share one regeneration. It
	// outlives the caller that started it; every caller waits on its own ctx.
	// Callers that joined someone else's regeneration record their own
	// consultation.
	leader := false
	ch := s.group.DoChan(strconv.FormatInt(appID, 10), func() (any, error) {
		leader = true
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RegenerateTimeout)
		defer cancel()
		return s.regenerate(workCtx, appID, currentReviewCount, rec)
	})

	var shared singleflight.Result
	select {
	case shared = <-ch:
	case <-ctx.Done():
		s.logger.Debug("stopped waiting for summary", "appid", appID, "error", ctx.Err())
		return nil, ctx.Err()
	}
	if shared.Err != nil {
		return nil, shared.Err
	}

	res := shared.Val.(*LookupResult)
	if leader {
		return res, nil
	}

	touched, err := s.touch(ctx, appID)
	if err != nil {
		return nil, err
	}
	return &LookupResult{Content: res.Content, FromCache: false, Record: touched}, nil
}

// regenerate harvests, summarizes and stores a new summary. prev is the
// record the caller saw, or nil when there was none.
func (s *SummaryService) regenerate(ctx context.Context, appID int64, currentReviewCount int, prev *domain.SummaryRecord) (*LookupResult, error) {
	start := s.now()
	reason := "absent"
	if prev != nil {
		reason = "stale"
		if prev.BugFlag {
			reason = "flagged"
		}
	}
	log := s.logger.With("appid", appID, "reason", reason)
	log.Info("regenerating summary", "current_reviews", currentReviewCount)

	batch, err := s.harvester.Harvest(ctx, appID, s.opts.ReviewCap)
	if err != nil {
		return nil, fmt.Errorf("harvest reviews: %w", err)
	}
	if batch.Len() == 0 {
		return nil, domainerrors.ErrNoReviews.WithDetails(map[string]int64{"appid": appID})
	}

	content, err := s.summarizer.Summarize(ctx, batch)
	if err != nil {
		return nil, err
	}
	if err := summarizer.Normalize(content, s.validator); err != nil {
		return nil, domainerrors.SummarizerFailed(err, "summarizer returned invalid content")
	}
	raw, err := content.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	rec := &domain.SummaryRecord{
		AppID:                 appID,
		SummaryDate:           s.now(),
		TotalReviewsAtSummary: currentReviewCount,
		Content:               raw,
		RawReviews:            batch,
		TimesConsulted:        1,
	}

	if err := s.write(ctx, rec, prev); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrVersionConflict) {
			// Another process stored a summary first; serve theirs.
			log.Info("concurrent summary write lost, adopting stored record")
			return s.adopt(ctx, appID)
		}
		return nil, err
	}

	if err := s.indexer.IndexSummary(ctx, rec); err != nil {
		log.Warn("failed to index summary", "error", err)
	}

	log.Info("summary stored",
		"reviews", batch.Len(),
		"positive", batch.Positive(),
		"negative", batch.Negative(),
		"score", content.Score,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return &LookupResult{Content: content, FromCache: false, Record: rec}, nil
}

func (s *SummaryService) write(ctx context.Context, rec *domain.SummaryRecord, prev *domain.SummaryRecord) error {
	if prev == nil {
		_, err := retryPersistence(ctx, s, "insert summary", func() (struct{}, error) {
			return struct{}{}, s.store.InsertSummary(ctx, rec)
		})
		return err
	}

	_, err := retryPersistence(ctx, s, "replace summary", func() (struct{}, error) {
		return struct{}{}, s.store.ReplaceSummary(ctx, rec, prev.Version)
	})
	if errors.Is(err, store.ErrNotFound) {
		return s.write(ctx, rec, nil)
	}
	return err
}

// adopt counts a consultation on the stored record and returns it.
func (s *SummaryService) adopt(ctx context.Context, appID int64) (*LookupResult, error) {
	rec, err := s.touch(ctx, appID)
	if err != nil {
		return nil, err
	}
	content, err := summarizer.Decode(rec.Content)
	if err != nil {
		return nil, domainerrors.Internalf("stored summary for %d is unreadable", appID).WithCause(err)
	}
	return &LookupResult{Content: content, FromCache: false, Record: rec}, nil
}

func (s *SummaryService) touch(ctx context.Context, appID int64) (*domain.SummaryRecord, error) {
	return retryPersistence(ctx, s, "touch summary", func() (*domain.SummaryRecord, error) {
		return s.store.TouchSummary(ctx, appID)
	})
}

// ReportBug flags the app's summary so the next lookup regenerates it and
// appends an audit row. An empty snapshot captures the stored content.
func (s *SummaryService) ReportBug(ctx context.Context, appID int64, contentSnapshot json.RawMessage, reason string) (*domain.BugReport, error) {
	if appID <= 0 {
		return nil, domainerrors.Validationf("invalid app id %d", appID)
	}
	reason = strings.TrimSpace(reason)
	if err := s.validator.Var("reason", reason, "required,max="+strconv.Itoa(domain.MaxBugReasonLength)); err != nil {
		return nil, err
	}
	if len(contentSnapshot) > 0 && !json.Valid(contentSnapshot) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"content": "must be valid JSON"})
	}

	reportID, err := id.Generate(id.PrefixBugReport)
	if err != nil {
		return nil, domainerrors.Internal("could not generate report id").WithCause(err)
	}

	report := &domain.BugReport{
		ReportID:        reportID,
		AppID:           appID,
		ReportDate:      s.now(),
		ContentSnapshot: contentSnapshot,
		Reason:          reason,
	}

	_, err = retryPersistence(ctx, s, "report bug", func() (struct{}, error) {
		return struct{}{}, s.store.ReportBug(ctx, report)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("no summary for app %d", appID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("summary reported",
		"appid", appID,
		"report_id", report.ReportID,
		"reason", report.Reason,
	)

	// Keep the flag visible in summary search.
	if rec, err := s.store.GetSummary(ctx, appID); err == nil {
		if err := s.indexer.IndexSummary(ctx, rec); err != nil {
			s.logger.Warn("failed to reindex flagged summary", "appid", appID, "error", err)
		}
	}

	return report, nil
}

// BugReports returns the audit trail of an app.
func (s *SummaryService) BugReports(ctx context.Context, appID int64) ([]*domain.BugReport, error) {
	if appID <= 0 {
		return nil, domainerrors.Validationf("invalid app id %d", appID)
	}
	reports, err := retryPersistence(ctx, s, "list bug reports", func() ([]*domain.BugReport, error) {
		return s.store.ListBugReports(ctx, appID)
	})
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []*domain.BugReport{}
	}
	return reports, nil
}

// Record returns the stored record of an app without counting a consultation.
func (s *SummaryService) Record(ctx context.Context, appID int64) (*domain.SummaryRecord, error) {
	rec, err := retryPersistence(ctx, s, "get summary", func() (*domain.SummaryRecord, error) {
		return s.store.GetSummary(ctx, appID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("no summary for app %d", appID)
	}
	return rec, err
}

// retryPersistence runs fn and, on an unexpected store failure, retries it
// once after the configured delay. Expected outcomes (not found, already
// exists, version conflict) are returned as is. A failure that survives the
// retry is reported as PERSISTENCE_UNAVAILABLE.
func retryPersistence[T any](ctx context.Context, s *SummaryService, op string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil || isStoreOutcome(err) {
		return v, err
	}

	s.logger.Warn("store operation failed, retrying",
		"op", op,
		"delay", s.opts.PersistenceRetryDelay,
		"error", err,
	)
	if sleepErr := s.sleep(ctx, s.opts.PersistenceRetryDelay); sleepErr != nil {
		var zero T
		return zero, domainerrors.PersistenceUnavailable(err)
	}

	v, err = fn()
	if err == nil || isStoreOutcome(err) {
		return v, err
	}

	s.logger.Error("store unavailable", "op", op, "error", err)
	var zero T
	return zero, domainerrors.PersistenceUnavailable(err)
}

func isStoreOutcome(err error) bool {
	return errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrAlreadyExists) ||
		errors.Is(err, store.ErrVersionConflict) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
