// Package trends reads search-trend direction and growth from the trends provider.
package trends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/httputil"
	"github.com/wonny/contentpulse/pkg/logger"
)

// Client talks to the trends provider's JSON API
// ⭐ SSOT: 트렌드 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a trends client. Rate limiting and the API key header are
// configured on httpClient by the caller.
func NewClient(baseURL string, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("trends"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type trendResponse struct {
	Keyword    string    `json:"keyword"`
	Direction  string    `json:"direction"`
	GrowthRate float64   `json:"growth_rate"`
	Volume     int64     `json:"volume"`
	ObservedAt time.Time `json:"observed_at"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// TrendFor returns the trend signal for keyword, or nil when the provider has none
func (c *Client) TrendFor(ctx context.Context, keyword string) (*contracts.TrendSignal, error) {
	endpoint := fmt.Sprintf("%s/v1/trends?%s", c.baseURL, url.Values{"keyword": {keyword}}.Encode())

	var resp trendResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("trends request failed: %w", err)
	}

	return &contracts.TrendSignal{
		Direction:  parseDirection(resp.Direction, resp.GrowthRate),
		GrowthRate: resp.GrowthRate,
		Volume:     resp.Volume,
		ObservedAt: observedAt(resp.ObservedAt),
	}, nil
}

// Keywords lists the keywords the provider tracks
func (c *Client) Keywords(ctx context.Context) ([]string, error) {
	var resp keywordsResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/v1/keywords", &resp); err != nil {
		return nil, fmt.Errorf("trends keyword list failed: %w", err)
	}
	c.logger.WithField("count", len(resp.Keywords)).Debug("fetched tracked keywords")
	return resp.Keywords, nil
}

// parseDirection falls back to the sign of the growth rate for unknown values
func parseDirection(raw string, growth float64) contracts.TrendDirection {
	switch d := contracts.TrendDirection(strings.ToLower(strings.TrimSpace(raw))); d {
	case contracts.TrendRising, contracts.TrendStable, contracts.TrendFalling:
		return d
	}
	switch {
	case growth > 0:
		return contracts.TrendRising
	case growth < 0:
		return contracts.TrendFalling
	default:
		return contracts.TrendStable
	}
}

func observedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func isNotFound(err error) bool {
	var statusErr *httputil.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
