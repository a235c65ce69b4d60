package domain

import (
	"encoding/json"
	"time"
)

// Freshness window defaults.
const (
	DefaultSummaryMaxAge   = 30 * 24 * time.Hour
	DefaultSummaryMinRatio = 0.9
	MaxBugReasonLength     = 500
)

// BugReasons are the canonical reasons offered when reporting a summary.
var BugReasons = []string{
	"Bullet points repeat",
	"Summary is not correct",
	"Too long",
	"Missing information",
	"Wrong remarks",
}

// SummaryRecord is the persisted summary for an app. There is at most one
// record per app id; it is mutated in place and never deleted.
type SummaryRecord struct {
	AppID                 int64           `json:"appid"`
	SummaryDate           time.Time       `json:"summary_date"`
	TotalReviewsAtSummary int             `json:"total_reviews_at_summary"`
	Content               json.RawMessage `json:"content,omitempty"`
	RawReviews            *ReviewBatch    `json:"raw_reviews,omitempty"`
	TimesConsulted        int             `json:"times_consulted"`
	BugFlag               bool            `json:"bug_flag"`

	// Version is incremented on every summary write and used for optimistic
	// concurrency by the store.
	Version int64 `json:"-"`
}

// FreshnessPolicy holds the thresholds that decide whether a record can be reused.
type FreshnessPolicy struct {
	MaxAge   time.Duration
	MinRatio float64
}

// DefaultFreshnessPolicy returns the 30 day / 90% policy.
func DefaultFreshnessPolicy() FreshnessPolicy {
	return FreshnessPolicy{MaxAge: DefaultSummaryMaxAge, MinRatio: DefaultSummaryMinRatio}
}

// IsFresh reports whether the record can be served from cache given the
// current review count. Flagged records and records without content are never fresh.
func (p FreshnessPolicy) IsFresh(r *SummaryRecord, currentReviewCount int, now time.Time) bool {
	if r == nil || len(r.Content) == 0 || string(r.Content) == "null" || r.BugFlag {
		return false
	}
	if now.Sub(r.SummaryDate) > p.MaxAge {
		return false
	}
	return float64(currentReviewCount) >= p.MinRatio*float64(r.TotalReviewsAtSummary)
}

// BugReport is an append-only audit row created when a user flags a summary.
type BugReport struct {
	ReportID        string          `json:"report_id"`
	AppID           int64           `json:"appid"`
	SummaryDate     time.Time       `json:"summary_date"`
	ReportDate      time.Time       `json:"report_date"`
	ContentSnapshot json.RawMessage `json:"content_snapshot,omitempty"`
	TimesConsulted  int             `json:"times_consulted"`
	Reason          string          `json:"reason"`
}
