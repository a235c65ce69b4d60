package mistral

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
)

const validAnswer = `{"summary":"A tight roguelike.","score":8,
	"positive_factors":["Great runs","Tight controls","Good art","Replayable","Music","Bosses","Builds","Price","Extra"],
	"negative_factors":[{"text":"Grindy unlocks","review_ids":[2]},{"text":"Short","review_ids":[2]},{"text":"Dropped","review_ids":[]}]}`

// fakeCompletions returns queued answers in order.
type fakeCompletions struct {
	answers []string
	errs    []error
	calls   atomic.Int32
	last    openai.ChatCompletionNewParams
}

func (f *fakeCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	i := int(f.calls.Add(1)) - 1
	f.last = body
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.answers) {
		i = len(f.answers) - 1
	}
	if f.answers[i] == "" {
		return &openai.ChatCompletion{}, nil
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.answers[i]}},
		},
	}, nil
}

func testBatch() *domain.ReviewBatch {
	b := domain.NewReviewBatch()
	b.Records[1] = domain.ReviewRecord{ID: 1, Text: "so good", Sentiment: domain.SentimentPositive}
	b.Records[2] = domain.ReviewRecord{ID: 2, Text: "grindy", Sentiment: domain.SentimentNegative}
	b.TotalAvailable = 2
	return b
}

func testConfig() Config {
	return Config{MaxAttempts: 3, RetryInterval: time.Millisecond}
}

func TestSummarize_NormalizesAnswer(t *testing.T) {
	fake := &fakeCompletions{answers: []string{validAnswer}}
	c := newClient(fake, testConfig(), nil)

	content, err := c.Summarize(context.Background(), testBatch())
	require.NoError(t, err)

	assert.Equal(t, "A tight roguelike.", content.Summary)
	assert.Equal(t, 8, content.Score)
	assert.Len(t, content.PositiveFactors, 8)
	assert.Len(t, content.NegativeFactors, 2)
	assert.Equal(t, []int{2}, content.NegativeFactors[0].ReviewIDs)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestSummarize_RetriesEmptyAndInvalidContent(t *testing.T) {
	fake := &fakeCompletions{answers: []string{"", "not json", validAnswer}}
	c := newClient(fake, testConfig(), nil)

	content, err := c.Summarize(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, 8, content.Score)
	assert.Equal(t, int32(3), fake.calls.Load())
}

func TestSummarize_GivesUpAfterMaxAttempts(t *testing.T) {
	fake := &fakeCompletions{answers: []string{`{"summary":"","score":5}`}}
	c := newClient(fake, testConfig(), nil)

	_, err := c.Summarize(context.Background(), testBatch())
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrSummarizerFailed)
	assert.Equal(t, int32(3), fake.calls.Load())
}

func TestSummarize_TransportErrorsAreRetried(t *testing.T) {
	fake := &fakeCompletions{
		answers: []string{validAnswer},
		errs:    []error{errors.New("connection reset"), nil},
	}
	c := newClient(fake, testConfig(), nil)

	_, err := c.Summarize(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestSummarize_NoReviews(t *testing.T) {
	fake := &fakeCompletions{answers: []string{validAnswer}}
	c := newClient(fake, testConfig(), nil)

	_, err := c.Summarize(context.Background(), domain.NewReviewBatch())
	assert.ErrorIs(t, err, domainerrors.ErrNoReviews)
	assert.Zero(t, fake.calls.Load())
}

func TestSummarize_SendsPromptAndPayload(t *testing.T) {
	fake := &fakeCompletions{answers: []string{validAnswer}}
	c := newClient(fake, Config{Model: "mistral-large-latest", RetryInterval: time.Millisecond}, nil)

	_, err := c.Summarize(context.Background(), testBatch())
	require.NoError(t, err)

	assert.Equal(t, "mistral-large-latest", string(fake.last.Model))
	require.Len(t, fake.last.Messages, 2)
	assert.NotNil(t, fake.last.ResponseFormat.OfJSONObject)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrSummarizerFailed)
}

func TestNew_AgainstCompatibleServer(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mistral-small-latest", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "mistral-small-latest",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": validAnswer},
			}},
		})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}, nil)
	require.NoError(t, err)

	var s summarizer.Summarizer = c
	content, err := s.Summarize(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, 8, content.Score)
	assert.Equal(t, int32(1), requests.Load())
}
