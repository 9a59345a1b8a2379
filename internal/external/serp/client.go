// Package serp fetches a search results page and reads competition and
// "people also ask" presence from its HTML.
package serp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/httputil"
	"github.com/wonny/contentpulse/pkg/logger"
)

// adSaturation is the ad count at which an ad-density competition estimate reaches 1
const adSaturation = 4.0

// Client fetches rendered result pages from the SERP provider
// ⭐ SSOT: SERP 페이지 수집/파싱은 여기서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a SERP client
func NewClient(baseURL string, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("serp"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SerpFor fetches and parses the result page for keyword.
// A 404 or a page with no results at all yields nil.
func (c *Client) SerpFor(ctx context.Context, keyword string) (*contracts.SerpSignal, error) {
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{"q": {keyword}}.Encode())

	body, err := c.httpClient.GetBody(ctx, endpoint)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("serp request failed: %w", err)
	}

	sig, err := ParsePage(body)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		c.logger.WithField("keyword", keyword).Debug("empty result page")
		return nil, nil
	}
	sig.ObservedAt = time.Now().UTC()
	return sig, nil
}

// ParsePage extracts a SerpSignal from a result page.
//
// Organic results are .organic-result, ads are .ad-result and PAA questions
// are .related-question. Competition comes from <meta name="competition">
// when the provider reports it, otherwise from ad density.
func ParsePage(html []byte) (*contracts.SerpSignal, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse serp html: %w", err)
	}

	sig := &contracts.SerpSignal{
		OrganicCount: doc.Find(".organic-result").Length(),
		AdCount:      doc.Find(".ad-result").Length(),
	}

	doc.Find(".related-question").Each(func(_ int, s *goquery.Selection) {
		q := strings.Join(strings.Fields(s.Text()), " ")
		if q != "" {
			sig.PAAQuestions = append(sig.PAAQuestions, q)
		}
	})
	sig.HasPAA = len(sig.PAAQuestions) > 0 || doc.Find(".related-questions").Length() > 0

	if sig.OrganicCount == 0 && sig.AdCount == 0 && !sig.HasPAA {
		return nil, nil
	}

	sig.Competition = math.Min(float64(sig.AdCount)/adSaturation, 1)
	if raw, ok := doc.Find(`meta[name="competition"]`).Attr("content"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v >= 0 && v <= 1 {
			sig.Competition = v
		}
	}

	return sig, nil
}
