// Package store defines the persistence interface for stored review summaries.
package store

import (
	"context"
	"iter"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
)

// SummaryStore persists one SummaryRecord per app id plus the append-only
// bug report log.
type SummaryStore interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Summaries
	GetSummary(ctx context.Context, appID int64) (*domain.SummaryRecord, error)

	// InsertSummary creates the first record for an app. It returns
	// ErrAlreadyExists when another writer got there first; the stored record
	// is left unchanged.
	InsertSummary(ctx context.Context, rec *domain.SummaryRecord) error

	// ReplaceSummary overwrites content, totals and date, clears the bug flag
	// and increments times_consulted, provided the stored version still equals
	// expectedVersion. It returns ErrVersionConflict otherwise. On success
	// rec carries the stored values.
	ReplaceSummary(ctx context.Context, rec *domain.SummaryRecord, expectedVersion int64) error

	// TouchSummary atomically increments times_consulted and returns the
	// updated record.
	TouchSummary(ctx context.Context, appID int64) (*domain.SummaryRecord, error)

	// ReportBug sets the bug flag and appends the report in one transaction.
	ReportBug(ctx context.Context, report *domain.BugReport) error

	ListBugReports(ctx context.Context, appID int64) ([]*domain.BugReport, error)
	CountSummaries(ctx context.Context) (int, error)
	StreamSummaries(ctx context.Context) iter.Seq2[*domain.SummaryRecord, error]
}

// SummaryIndexer maintains the full-text index of stored summaries.
type SummaryIndexer interface {
	IndexSummary(ctx context.Context, rec *domain.SummaryRecord) error
	DeleteSummary(ctx context.Context, appID int64) error
}

// NoopSummaryIndexer is a no-op implementation for testing.
type NoopSummaryIndexer struct{}

func (NoopSummaryIndexer) IndexSummary(context.Context, *domain.SummaryRecord) error { return nil }
func (NoopSummaryIndexer) DeleteSummary(context.Context, int64) error                { return nil }

// NewNoopSummaryIndexer creates a new no-op summary indexer.
func NewNoopSummaryIndexer() SummaryIndexer { return NoopSummaryIndexer{} }
