// Package search provides full-text search over stored review summaries
// using Bleve. It lets operators find apps by what their reviews say
// ("crashes", "great soundtrack") rather than by name.
package search

import (
	"strconv"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
)

// SummaryDocument is the indexed form of a SummaryRecord.
type SummaryDocument struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"` // App name from the catalog, may be empty

	Summary         string   `json:"summary"`
	PositiveFactors []string `json:"positive_factors,omitempty"`
	NegativeFactors []string `json:"negative_factors,omitempty"`

	Score        int   `json:"score"`
	TotalReviews int   `json:"total_reviews"`
	SummaryDate  int64 `json:"summary_date"` // Unix millis
	BugFlag      bool  `json:"bug_flag"`
}

// DocID returns the index document id for an app.
func DocID(appID int64) string {
	return strconv.FormatInt(appID, 10)
}

// NewSummaryDocument builds a document from a stored record.
func NewSummaryDocument(rec *domain.SummaryRecord, name string) (*SummaryDocument, error) {
	content, err := summarizer.Decode(rec.Content)
	if err != nil {
		return nil, err
	}

	doc := &SummaryDocument{
		AppID:        rec.AppID,
		Name:         name,
		Summary:      content.Summary,
		Score:        content.Score,
		TotalReviews: rec.TotalReviewsAtSummary,
		SummaryDate:  rec.SummaryDate.UnixMilli(),
		BugFlag:      rec.BugFlag,
	}
	for _, f := range content.PositiveFactors {
		doc.PositiveFactors = append(doc.PositiveFactors, f.Text)
	}
	for _, f := range content.NegativeFactors {
		doc.NegativeFactors = append(doc.NegativeFactors, f.Text)
	}
	return doc, nil
}

// ToMap converts the document to a map with the field names of the mapping.
func (d *SummaryDocument) ToMap() map[string]any {
	m := map[string]any{
		"appid":         DocID(d.AppID),
		"summary":       d.Summary,
		"score":         d.Score,
		"total_reviews": d.TotalReviews,
		"summary_date":  d.SummaryDate,
		"bug_flag":      d.BugFlag,
	}
	if d.Name != "" {
		m["name"] = d.Name
	}
	if len(d.PositiveFactors) > 0 {
		m["positive_factors"] = d.PositiveFactors
	}
	if len(d.NegativeFactors) > 0 {
		m["negative_factors"] = d.NegativeFactors
	}
	return m
}
