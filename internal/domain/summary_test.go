package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFreshnessPolicy_IsFresh(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	policy := DefaultFreshnessPolicy()
	content := json.RawMessage(`{"summary":"ok"}`)

	record := func(age time.Duration, total int) *SummaryRecord {
		return &SummaryRecord{
			AppID:                 620,
			SummaryDate:           now.Add(-age),
			TotalReviewsAtSummary: total,
			Content:               content,
		}
	}

	tests := []struct {
		name    string
		rec     *SummaryRecord
		current int
		want    bool
	}{
		{"nil record", nil, 100, false},
		{"recent with enough reviews", record(10*24*time.Hour, 100), 95, true},
		{"exactly at ratio", record(time.Hour, 100), 90, true},
		{"below ratio", record(time.Hour, 100), 80, false},
		{"count grew", record(time.Hour, 100), 500, true},
		{"exactly max age", record(DefaultSummaryMaxAge, 100), 100, true},
		{"older than max age", record(31*24*time.Hour, 100), 100, false},
		{"zero reviews at summary", record(time.Hour, 0), 0, true},
		{"flagged", func() *SummaryRecord { r := record(time.Hour, 100); r.BugFlag = true; return r }(), 100, false},
		{"no content", func() *SummaryRecord { r := record(time.Hour, 100); r.Content = nil; return r }(), 100, false},
		{"null content", func() *SummaryRecord { r := record(time.Hour, 100); r.Content = json.RawMessage("null"); return r }(), 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsFresh(tt.rec, tt.current, now))
		})
	}
}

func TestFreshnessPolicy_Custom(t *testing.T) {
	now := time.Now()
	rec := &SummaryRecord{SummaryDate: now.Add(-2 * time.Hour), TotalReviewsAtSummary: 10, Content: json.RawMessage(`{}`)}

	assert.False(t, FreshnessPolicy{MaxAge: time.Hour, MinRatio: 0.5}.IsFresh(rec, 10, now))
	assert.True(t, FreshnessPolicy{MaxAge: 3 * time.Hour, MinRatio: 0.5}.IsFresh(rec, 5, now))
}

func TestBugReasons(t *testing.T) {
	assert.Len(t, BugReasons, 5)
	for _, r := range BugReasons {
		assert.LessOrEqual(t, len(r), MaxBugReasonLength)
	}
}
