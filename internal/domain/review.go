package domain

import "sort"

// Sentiment is the upstream thumbs-up/down classification of a review.
type Sentiment string

// Review sentiments.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

// SentimentFromVote maps the upstream voted_up flag to a sentiment.
func SentimentFromVote(votedUp bool) Sentiment {
	if votedUp {
		return SentimentPositive
	}
	return SentimentNegative
}

// ReviewRecord is one harvested review. IDs are numbered from 1 across a
// whole harvest, not per page.
type ReviewRecord struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
}

// ReviewBatch is the output of a single harvest.
type ReviewBatch struct {
	Records        map[int]ReviewRecord `json:"records"`
	TotalAvailable int                  `json:"total_available"`
}

// NewReviewBatch returns an empty batch.
func NewReviewBatch() *ReviewBatch {
	return &ReviewBatch{Records: make(map[int]ReviewRecord)}
}

// Len returns the number of records.
func (b *ReviewBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// Positive returns the number of positive records.
func (b *ReviewBatch) Positive() int {
	return b.count(SentimentPositive)
}

// Negative returns the number of negative records.
func (b *ReviewBatch) Negative() int {
	return b.count(SentimentNegative)
}

func (b *ReviewBatch) count(s Sentiment) int {
	if b == nil {
		return 0
	}
	n := 0
	for _, r := range b.Records {
		if r.Sentiment == s {
			n++
		}
	}
	return n
}

// Sorted returns the records ordered by id.
func (b *ReviewBatch) Sorted() []ReviewRecord {
	if b == nil {
		return nil
	}
	out := make([]ReviewRecord, 0, len(b.Records))
	for _, r := range b.Records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
