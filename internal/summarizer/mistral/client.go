// Package mistral implements summarizer.Summarizer against Mistral's
// OpenAI-compatible chat completions endpoint.
package mistral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
	"github.com/Duerkos/steam-reviews-ai/internal/validation"
)

// Defaults for the hosted API.
const (
	DefaultBaseURL     = "https://api.mistral.ai/v1"
	DefaultModel       = "mistral-small-latest"
	DefaultMaxAttempts = 3
)

// errEmptyChoices is returned when the API answers without a choice.
var errEmptyChoices = errors.New("completion returned no choices")

// completions is the subset of the openai chat completions service we call.
type completions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config configures the client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxAttempts int
	HTTPClient  *http.Client

	// RetryInterval is the first wait between attempts. Zero uses one second.
	RetryInterval time.Duration
}

// Client summarizes review batches with a chat model.
type Client struct {
	completions completions
	model       string
	maxAttempts uint
	interval    time.Duration
	validator   *validation.Validator
	logger      *slog.Logger
}

var _ summarizer.Summarizer = (*Client)(nil)

// New creates a client. An empty API key is rejected.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domainerrors.SummarizerFailed(nil, "summarizer API key is not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		// Retries are driven by Summarize so invalid content is retried too.
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := openai.NewClient(opts...)

	return newClient(&client.Chat.Completions, cfg, log), nil
}

func newClient(c completions, cfg Config, log *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}
	return &Client{
		completions: c,
		model:       cfg.Model,
		maxAttempts: uint(cfg.MaxAttempts),
		interval:    cfg.RetryInterval,
		validator:   validation.New(),
		logger:      logger.OrNop(log).With("component", "summarizer", "model", cfg.Model),
	}
}

// Summarize sends the batch to the model and returns normalized content.
// Empty, undecodable or invalid answers are retried up to MaxAttempts times.
func (c *Client) Summarize(ctx context.Context, batch *domain.ReviewBatch) (*summarizer.Content, error) {
	body, err := summarizer.BuildPayload(batch)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarizer.SystemPrompt),
			openai.UserMessage(string(body)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxInterval = 30 * time.Second

	attempt := 0
	op := func() (*summarizer.Content, error) {
		attempt++
		content, err := c.complete(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("summary attempt failed",
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"error", err,
			)
			return nil, err
		}
		return content, nil
	}

	start := time.Now()
	content, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxAttempts),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return nil, domainerrors.SummarizerFailed(err,
			fmt.Sprintf("summarizer gave up after %d attempts", attempt))
	}

	c.logger.Debug("summary generated",
		"reviews", batch.Len(),
		"score", content.Score,
		"attempts", attempt,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (c *Client) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*summarizer.Content, error) {
	resp, err := c.completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errEmptyChoices
	}

	content, err := summarizer.Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := summarizer.Normalize(content, c.validator); err != nil {
		return nil, err
	}
	return content, nil
}
