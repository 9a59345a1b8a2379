// Package community reads community sentiment and search intent per keyword.
package community

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/config"
	"github.com/wonny/contentpulse/pkg/httputil"
	"github.com/wonny/contentpulse/pkg/logger"
)

// Client queries the community sentiment provider. The provider enforces a
// strict per-process budget, so calls pass through a local token bucket.
type Client struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a community client from its config section
func NewClient(cfg config.CommunityConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     log.WithComponent("community"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

type sentimentResponse struct {
	Sentiment  float64   `json:"sentiment"`
	Intent     string    `json:"intent"`
	Mentions   int       `json:"mentions"`
	ObservedAt time.Time `json:"observed_at"`
}

// SentimentFor returns the community signal for keyword, or nil when the
// provider has no mentions of it
func (c *Client) SentimentFor(ctx context.Context, keyword string) (*contracts.SentimentSignal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("community rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/sentiment?%s", c.baseURL, url.Values{"keyword": {keyword}}.Encode())

	var resp sentimentResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("community request failed: %w", err)
	}
	if resp.Mentions == 0 {
		return nil, nil
	}

	observed := resp.ObservedAt.UTC()
	if resp.ObservedAt.IsZero() {
		observed = time.Now().UTC()
	}

	return &contracts.SentimentSignal{
		Sentiment:  math.Max(-1, math.Min(resp.Sentiment, 1)),
		Intent:     contracts.SearchIntent(strings.ToLower(strings.TrimSpace(resp.Intent))),
		Mentions:   resp.Mentions,
		ObservedAt: observed,
	}, nil
}
