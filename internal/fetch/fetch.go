// Package fetch performs JSON GET requests that survive flaky networks.
//
// Two failure classes are distinguished. A TLS or certificate failure waits
// Policy.TLSWait and repeats the identical request. Any other falsy response
// (transport error, non-2xx status, empty body, undecodable JSON) waits
// Policy.EmptyWait. With Policy.MaxAttempts == 0 the client retries forever
// with those fixed waits; otherwise waits grow exponentially with jitter and
// the client gives up with FETCH_FAILED after MaxAttempts attempts.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/ratelimit"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 32 << 20
	userAgent      = "steam-reviews-ai/1.0"
)

// Fetcher retrieves a JSON document and decodes it into dest.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, dest any) error
}

// Policy controls waits between attempts.
type Policy struct {
	TLSWait     time.Duration
	EmptyWait   time.Duration
	MaxAttempts int
	MaxBackoff  time.Duration
}

// DefaultPolicy returns the bounded policy used by the server.
func DefaultPolicy() Policy {
	return Policy{
		TLSWait:     5 * time.Second,
		EmptyWait:   10 * time.Second,
		MaxAttempts: 5,
		MaxBackoff:  2 * time.Minute,
	}
}

// Unbounded reports whether the policy retries without limit.
func (p Policy) Unbounded() bool { return p.MaxAttempts <= 0 }

func (p Policy) waitFor(c failureClass) time.Duration {
	if c == classTLS {
		return p.TLSWait
	}
	return p.EmptyWait
}

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

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

// Client is a rate-limited retrying JSON client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	ownsLim bool
	policy  Policy
	logger  *slog.Logger
	sleep   sleepFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLimiter shares an outbound limiter keyed by host.
func WithLimiter(l *ratelimit.KeyedRateLimiter) Option {
	return func(c *Client) {
		if c.ownsLim {
			c.limiter.Stop()
		}
		c.limiter = l
		c.ownsLim = false
	}
}

// New creates a fetch client.
func New(policy Policy, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: ratelimit.New(5, 10),
		ownsLim: true,
		policy:  policy,
		logger:  logger.OrNop(log).With("component", "fetch"),
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	if c.ownsLim {
		c.limiter.Stop()
	}
}

// Policy returns the retry policy.
func (c *Client) Policy() Policy { return c.policy }

// GetJSON issues GET rawURL?params and decodes the body into dest, retrying
// according to the policy.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, dest any) error {
	target, err := buildURL(rawURL, params)
	if err != nil {
		return domainerrors.Validationf("invalid url %q", rawURL).WithCause(err)
	}

	var bo *backoff.ExponentialBackOff
	if !c.policy.Unbounded() {
		bo = backoff.NewExponentialBackOff()
		bo.InitialInterval = min(c.policy.TLSWait, c.policy.EmptyWait)
		bo.Multiplier = 2
		bo.RandomizationFactor = 0.2
		if c.policy.MaxBackoff > 0 {
			bo.MaxInterval = c.policy.MaxBackoff
		}
		bo.Reset()
	}

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx, target.Host); err != nil {
			return domainerrors.FetchFailed(err, "get %s: canceled", target.Path)
		}

		aerr := c.attempt(ctx, target.String(), dest)
		if aerr == nil {
			if attempt > 1 {
				c.logger.Info("request recovered", "path", target.Path, "attempts", attempt)
			}
			return nil
		}
		if ctx.Err() != nil {
			return domainerrors.FetchFailed(ctx.Err(), "get %s: canceled", target.Path)
		}

		if !c.policy.Unbounded() && attempt >= c.policy.MaxAttempts {
			c.logger.Warn("giving up", "path", target.Path, "attempts", attempt, "error", aerr)
			return domainerrors.FetchFailed(aerr, "get %s failed after %d attempts", target.Path, attempt)
		}

		wait := c.policy.waitFor(aerr.class)
		if bo != nil {
			if next := bo.NextBackOff(); next != backoff.Stop && next > wait {
				wait = next
			}
		}

		c.logger.Warn("request failed, retrying",
			"path", target.Path,
			"attempt", attempt,
			"class", aerr.class.String(),
			"wait", wait,
			"error", aerr.err,
		)

		if err := c.wait(ctx, aerr.class, wait); err != nil {
			return domainerrors.FetchFailed(err, "get %s: canceled", target.Path)
		}
	}
}

// wait sleeps before the next attempt. TLS waits count down once per second.
func (c *Client) wait(ctx context.Context, class failureClass, d time.Duration) error {
	if class != classTLS {
		return c.sleep(ctx, d)
	}
	for remaining := d; remaining > 0; remaining -= time.Second {
		c.logger.Debug("tls failure, retrying", "in", remaining.Round(time.Second))
		if err := c.sleep(ctx, min(time.Second, remaining)); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// attempt performs a single request.
func (c *Client) attempt(ctx context.Context, target string, dest any) *attemptError {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &attemptError{class: classEmpty, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &attemptError{class: classify(err), err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &attemptError{class: classEmpty, status: resp.StatusCode, err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &attemptError{class: classEmpty, status: resp.StatusCode, err: ErrBadStatus}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return &attemptError{class: classEmpty, status: resp.StatusCode, err: ErrEmptyBody}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return &attemptError{class: classEmpty, status: resp.StatusCode, err: fmt.Errorf("%w: %v", ErrBadPayload, err)}
	}
	return nil
}

func buildURL(rawURL string, params url.Values) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("missing scheme or host")
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}
