package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/pkg/config"
	"github.com/wonny/contentpulse/pkg/logger"
	"github.com/wonny/contentpulse/pkg/redis"
)

func newTestClient() *Client {
	return New(logger.Nop())
}

func TestNew(t *testing.T) {
	client := newTestClient()
	require.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 2, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)
}

func TestOptions(t *testing.T) {
	client := NewWithTimeout(logger.Nop(), 5*time.Second).
		WithRetry(5, 2*time.Second).
		WithHeader("X-Api-Key", "k").
		WithHeader("X-Empty", "")

	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)
	assert.Equal(t, "k", client.headers.Get("X-Api-Key"))
	assert.Empty(t, client.headers.Values("X-Empty"))

	assert.False(t, client.DisableRetry().retryConfig.Enabled)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"keyword":"retinol serum","growth":50}`))
	}))
	defer server.Close()

	client := newTestClient().WithHeader("X-Api-Key", "secret")

	var out struct {
		Keyword string  `json:"keyword"`
		Growth  float64 `json:"growth"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "retinol serum", out.Keyword)
	assert.Equal(t, 50.0, out.Growth)
}

func TestGetBody_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient().GetBody(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient().WithRetry(3, 10*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient().WithRetry(5, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	assert.Error(t, err)
}

func TestForProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trends-key", r.Header.Get("X-API-Key"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	limiter := redis.NewRateLimiter(redis.NewDisabled())
	client := ForProvider("trends", config.ProviderConfig{APIKey: "trends-key", RateLimit: 10}, limiter, logger.Nop())
	require.NotNil(t, client.rateLimitCfg)
	assert.Equal(t, "trends", client.rateLimitCfg.Key)
	assert.Equal(t, 10, client.rateLimitCfg.Limit)

	var out map[string]interface{}
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &out))
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	// a 0s Retry-After overrides the long backoff
	client := newTestClient().WithRetry(1, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRetryAfterParsing(t *testing.T) {
	d, ok := retryAfter("3", 5*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	d, ok = retryAfter("120", 5*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	_, ok = retryAfter("Wed, 21 Oct 2026 07:28:00 GMT", time.Second)
	assert.False(t, ok)
	_, ok = retryAfter("", time.Second)
	assert.False(t, ok)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.statusCode))
		})
	}
}
