// Package summarizer defines the boundary between the summary cache and the
// language model that turns harvested reviews into a structured summary.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/validation"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 10
)

// Summarizer produces a summary for a batch of reviews.
type Summarizer interface {
	Summarize(ctx context.Context, batch *domain.ReviewBatch) (*Content, error)
}

// Disabled stands in when no model is configured. Stored summaries are still
// served; every regeneration fails with SUMMARIZER_FAILED.
type Disabled struct {
	Reason string
}

// Summarize implements Summarizer.
func (d Disabled) Summarize(context.Context, *domain.ReviewBatch) (*Content, error) {
	return nil, domainerrors.SummarizerFailed(nil, d.Reason)
}

// Content is the structured summary stored in SummaryRecord.Content.
type Content struct {
	Summary         string   `json:"summary" validate:"required,notblank"`
	Score           int      `json:"score"`
	PositiveFactors []Factor `json:"positive_factors"`
	NegativeFactors []Factor `json:"negative_factors"`
}

// Factor is a single positive or negative remark, optionally linked to the
// reviews it came from.
type Factor struct {
	Text      string `json:"text"`
	ReviewIDs []int  `json:"review_ids,omitempty"`
}

// UnmarshalJSON accepts either a bare string or an object. Models are not
// consistent about the key names so "factor" and "reviews" are accepted too.
func (f *Factor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.Text)
	}

	var raw struct {
		Text      string `json:"text"`
		Factor    string `json:"factor"`
		ReviewIDs []int  `json:"review_ids"`
		Reviews   []int  `json:"reviews"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode factor: %w", err)
	}

	f.Text = raw.Text
	if f.Text == "" {
		f.Text = raw.Factor
	}
	f.ReviewIDs = raw.ReviewIDs
	if f.ReviewIDs == nil {
		f.ReviewIDs = raw.Reviews
	}
	return nil
}

type payloadReview struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type payload struct {
	Positive []payloadReview `json:"positive_reviews"`
	Negative []payloadReview `json:"negative_reviews"`
}

// BuildPayload renders the batch as the user message sent to the model.
// Reviews are split by sentiment and keep their harvest ids.
func BuildPayload(batch *domain.ReviewBatch) ([]byte, error) {
	if batch.Len() == 0 {
		return nil, domainerrors.ErrNoReviews
	}

	p := payload{
		Positive: []payloadReview{},
		Negative: []payloadReview{},
	}
	for _, r := range batch.Sorted() {
		item := payloadReview{ID: r.ID, Text: r.Text}
		if r.Sentiment == domain.SentimentPositive {
			p.Positive = append(p.Positive, item)
		} else {
			p.Negative = append(p.Negative, item)
		}
	}
	return json.Marshal(p)
}

// Parse decodes model output. Code fences around the JSON are tolerated.
func Parse(raw string) (*Content, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty content")
	}

	var c Content
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return &c, nil
}

// Normalize validates c and brings it in line with the score: the score is
// clamped to 0..10, at most score positive factors and at most 10-score
// negative factors are kept. Blank factors are dropped first.
func Normalize(c *Content, v *validation.Validator) error {
	if c == nil {
		return domainerrors.Validation("summary content is missing")
	}
	if v != nil {
		if err := v.Validate(c); err != nil {
			return err
		}
	}

	c.Summary = strings.TrimSpace(c.Summary)
	c.Score = min(max(c.Score, MinScore), MaxScore)
	c.PositiveFactors = trimFactors(c.PositiveFactors, c.Score)
	c.NegativeFactors = trimFactors(c.NegativeFactors, MaxScore-c.Score)
	return nil
}

func trimFactors(factors []Factor, limit int) []Factor {
	out := make([]Factor, 0, min(len(factors), limit))
	for _, f := range factors {
		if len(out) == limit {
			break
		}
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Marshal encodes normalized content for storage.
func (c *Content) Marshal() (json.RawMessage, error) {
	return json.Marshal(c)
}

// Decode reads stored content back.
func Decode(raw json.RawMessage) (*Content, error) {
	if len(raw) == 0 {
		return nil, domainerrors.NotFound("summary has no content")
	}
	var c Content
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode stored content: %w", err)
	}
	return &c, nil
}
