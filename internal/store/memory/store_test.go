package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/internal/contracts"
)

var (
	_ contracts.StrategyConfigRepository = (*Store)(nil)
	_ contracts.PostRepository           = (*Store)(nil)
	_ contracts.MetricsRepository        = (*Store)(nil)
	_ contracts.PerformanceRepository    = (*Store)(nil)
	_ contracts.OpportunityRepository    = (*Store)(nil)
	_ contracts.ExperimentRepository     = (*Store)(nil)
	_ contracts.ReportRepository         = (*Store)(nil)
	_ contracts.TrendSource              = (*Signals)(nil)
	_ contracts.SerpSource               = (*Signals)(nil)
	_ contracts.SentimentSource          = (*Signals)(nil)
	_ contracts.KeywordLister            = (*Signals)(nil)
)

func TestStore_LatestMetricsByDate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	d1 := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	require.NoError(t, s.UpsertMetrics(ctx, contracts.PostMetrics{PostID: "p1", Date: d2, PageViews: 20}))
	require.NoError(t, s.UpsertMetrics(ctx, contracts.PostMetrics{PostID: "p1", Date: d1, PageViews: 10}))
	// same day replaces
	require.NoError(t, s.UpsertMetrics(ctx, contracts.PostMetrics{PostID: "p1", Date: d2, PageViews: 25}))

	latest, err := s.LatestMetrics(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(25), latest.PageViews)

	none, err := s.LatestRevenue(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	due := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	s.PutPost(contracts.Post{ID: "p1", Status: contracts.PostScheduled, ScheduledFor: &due})

	at := due.Add(time.Hour)
	ok, err := s.TransitionStatus(ctx, "p1", contracts.PostScheduled, contracts.PostPublished, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TransitionStatus(ctx, "p1", contracts.PostScheduled, contracts.PostPublished, at)
	require.NoError(t, err)
	assert.False(t, ok)

	post, err := s.GetPost(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, at, *post.PublishedAt)

	ok, err = s.TransitionStatus(ctx, "missing", contracts.PostScheduled, contracts.PostPublished, at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpsertOpportunityKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	created, err := s.UpsertOpportunity(ctx, contracts.Opportunity{Keyword: "Retinol  Serum", CompositeScore: 40, CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, contracts.OpportunityPending, created.Status)

	ok, err := s.TransitionOpportunity(ctx, created.ID, contracts.OpportunityPending, contracts.OpportunityDismissed, t0)
	require.NoError(t, err)
	require.True(t, ok)

	refreshed, err := s.UpsertOpportunity(ctx, contracts.Opportunity{Keyword: "retinol serum", CompositeScore: 90, Status: contracts.OpportunityPending, UpdatedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, created.ID, refreshed.ID)
	assert.Equal(t, contracts.OpportunityDismissed, refreshed.Status)
	assert.Equal(t, t0, refreshed.CreatedAt)
	assert.Equal(t, 90.0, refreshed.CompositeScore)
}

func TestStore_ReportsByWeek(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	w1 := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	w2 := w1.AddDate(0, 0, 7)

	require.NoError(t, s.UpsertReport(ctx, contracts.StrategyReport{WeekStart: w1}))
	require.NoError(t, s.UpsertReport(ctx, contracts.StrategyReport{WeekStart: w2}))
	require.NoError(t, s.UpsertReport(ctx, contracts.StrategyReport{WeekStart: w2, ConfigHash: "x"}))
	assert.Equal(t, 2, s.ReportCount())

	prev, err := s.PreviousReport(ctx, w2)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, w1, prev.WeekStart)

	latest, err := s.LatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", latest.ConfigHash)
}

func TestSignals_Keywords(t *testing.T) {
	ctx := context.Background()
	sig := NewSignals()
	sig.SetTrend("Retinol Serum", contracts.TrendSignal{GrowthRate: 50})
	sig.SetSerp("retinol serum", contracts.SerpSignal{Competition: 0.3})
	sig.SetSentiment("niacinamide", contracts.SentimentSignal{Sentiment: 0.5})

	keywords, err := sig.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"niacinamide", "retinol serum"}, keywords)

	trend, err := sig.TrendFor(ctx, "RETINOL serum")
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.Equal(t, 50.0, trend.GrowthRate)

	missing, err := sig.SerpFor(ctx, "niacinamide")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
