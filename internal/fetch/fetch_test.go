package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for _, w := range r.waits {
		sum += w
	}
	return sum
}

func newTestClient(t *testing.T, policy Policy, handler http.HandlerFunc) (*Client, *httptest.Server, *sleepRecorder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(policy, nil, WithHTTPClient(server.Client()))
	t.Cleanup(client.Close)

	rec := &sleepRecorder{}
	client.sleep = rec.sleep
	return client, server, rec
}

type summary struct {
	Success int `json:"success"`
	Total   int `json:"total_reviews"`
}

func TestClient_GetJSON_Success(t *testing.T) {
	var gotQuery url.Values
	client, server, rec := newTestClient(t, DefaultPolicy(), func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":1,"total_reviews":42}`)
	})

	var dest summary
	params := url.Values{"json": {"1"}, "cursor": {"AoJ4+/ab="}}
	err := client.GetJSON(context.Background(), server.URL+"/appreviews/620?filter=recent", params, &dest)
	require.NoError(t, err)

	assert.Equal(t, 42, dest.Total)
	assert.Equal(t, "recent", gotQuery.Get("filter"))
	assert.Equal(t, "AoJ4+/ab=", gotQuery.Get("cursor"))
	assert.Empty(t, rec.waits)
}

func TestClient_GetJSON_EventuallySucceeds(t *testing.T) {
	failures := []func(w http.ResponseWriter){
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) },
		func(w http.ResponseWriter) { fmt.Fprint(w, `{"success":`) },
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusTooManyRequests) },
		func(w http.ResponseWriter) { fmt.Fprint(w, "null") },
	}

	var calls atomic.Int32
	policy := Policy{TLSWait: 5 * time.Second, EmptyWait: 10 * time.Second, MaxAttempts: 0}
	client, server, rec := newTestClient(t, policy, func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		if n <= len(failures) {
			failures[n-1](w)
			return
		}
		fmt.Fprint(w, `{"success":1,"total_reviews":7}`)
	})

	var dest summary
	require.NoError(t, client.GetJSON(context.Background(), server.URL, nil, &dest))

	assert.Equal(t, 7, dest.Total)
	assert.Equal(t, int32(len(failures)+1), calls.Load())
	require.Len(t, rec.waits, len(failures))
	for _, w := range rec.waits {
		assert.Equal(t, 10*time.Second, w, "unbounded mode waits a fixed interval")
	}
}

func TestClient_GetJSON_BoundedGivesUp(t *testing.T) {
	var calls atomic.Int32
	policy := Policy{TLSWait: time.Millisecond, EmptyWait: 10 * time.Millisecond, MaxAttempts: 4, MaxBackoff: time.Second}
	client, server, rec := newTestClient(t, policy, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	var dest summary
	err := client.GetJSON(context.Background(), server.URL, nil, &dest)
	require.Error(t, err)

	assert.True(t, domainerrors.Is(err, domainerrors.ErrFetchFailed))
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.Equal(t, int32(4), calls.Load())
	require.Len(t, rec.waits, 3)
	for _, w := range rec.waits {
		assert.GreaterOrEqual(t, w, 10*time.Millisecond, "backoff never drops below the class wait")
		assert.LessOrEqual(t, w, time.Second)
	}
}

func TestClient_GetJSON_TLSFailureCountsDown(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success":1}`)
	}))
	defer server.Close()

	// The default client does not trust the test certificate.
	policy := Policy{TLSWait: 2 * time.Second, EmptyWait: time.Millisecond, MaxAttempts: 2}
	client := New(policy, nil, WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	defer client.Close()
	rec := &sleepRecorder{}
	client.sleep = rec.sleep

	var dest summary
	err := client.GetJSON(context.Background(), server.URL, nil, &dest)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrFetchFailed))

	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.waits)
}

func TestClient_GetJSON_CanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := Policy{TLSWait: time.Hour, EmptyWait: time.Hour}
	client, server, _ := newTestClient(t, policy, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}

	start := time.Now()
	err := client.GetJSON(ctx, server.URL, nil, &summary{})
	require.Error(t, err)

	assert.Less(t, time.Since(start), time.Minute)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrFetchFailed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_GetJSON_InvalidURL(t *testing.T) {
	client := New(DefaultPolicy(), nil)
	defer client.Close()

	err := client.GetJSON(context.Background(), "not a url", nil, &summary{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want failureClass
	}{
		{"unknown authority", &url.Error{Op: "Get", Err: x509.UnknownAuthorityError{}}, classTLS},
		{"hostname", x509.HostnameError{Host: "example.com", Certificate: &x509.Certificate{}}, classTLS},
		{"record header", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}, classTLS},
		{"handshake string", errors.New("remote error: tls: handshake failure"), classTLS},
		{"connection refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), classEmpty},
		{"timeout", context.DeadlineExceeded, classEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
