package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/pkg/httputil"
	"github.com/wonny/contentpulse/pkg/logger"
)

const resultPage = `<!doctype html>
<html><head><meta name="competition" content="0.35"></head>
<body>
  <div class="ad-result">Buy serum now</div>
  <div class="organic-result"><a href="https://a.example">A</a></div>
  <div class="organic-result"><a href="https://b.example">B</a></div>
  <div class="related-questions">
    <div class="related-question">Is   retinol serum safe
      every day?</div>
    <div class="related-question">When should I apply retinol?</div>
  </div>
  <div class="organic-result"><a href="https://c.example">C</a></div>
</body></html>`

func TestParsePage(t *testing.T) {
	sig, err := ParsePage([]byte(resultPage))
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, 3, sig.OrganicCount)
	assert.Equal(t, 1, sig.AdCount)
	assert.True(t, sig.HasPAA)
	assert.Equal(t, []string{"Is retinol serum safe every day?", "When should I apply retinol?"}, sig.PAAQuestions)
	assert.Equal(t, 0.35, sig.Competition)
}

func TestParsePage_AdDensityFallback(t *testing.T) {
	page := `<html><body>
		<div class="ad-result"></div><div class="ad-result"></div>
		<div class="organic-result"></div>
	</body></html>`

	sig, err := ParsePage([]byte(page))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.InDelta(t, 0.5, sig.Competition, 1e-9)
	assert.False(t, sig.HasPAA)
}

func TestParsePage_InvalidMetaIgnored(t *testing.T) {
	page := `<html><head><meta name="competition" content="7"></head><body>
		<div class="organic-result"></div>
	</body></html>`

	sig, err := ParsePage([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, 0.0, sig.Competition)
}

func TestParsePage_EmptyPage(t *testing.T) {
	sig, err := ParsePage([]byte(`<html><body><p>No results</p></body></html>`))
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestSerpFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "/search", r.URL.Path)
		_, _ = w.Write([]byte(resultPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, httputil.New(logger.Nop()).DisableRetry(), logger.Nop())

	sig, err := c.SerpFor(context.Background(), "retinol serum")
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, 3, sig.OrganicCount)
	assert.False(t, sig.ObservedAt.IsZero())

	none, err := c.SerpFor(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}
