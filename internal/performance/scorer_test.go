package performance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/store/memory"
	"github.com/wonny/contentpulse/internal/strategyconfig"
	"github.com/wonny/contentpulse/pkg/logger"
)

var runAt = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newScorer(store *memory.Store, metrics contracts.MetricsRepository, batchSize int) *Scorer {
	configs := strategyconfig.NewStore(store, nil, strategyconfig.Baseline(), logger.Nop())
	s := NewScorer(configs, store, metrics, store, DefaultAnchors(), batchSize, logger.Nop())
	s.now = func() time.Time { return runAt }
	return s
}

func seedPublished(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("post-%02d", i)
		store.PutPost(contracts.Post{ID: id, Slug: id, Status: contracts.PostPublished})
		require.NoError(t, store.UpsertMetrics(ctx, contracts.PostMetrics{
			PostID: id, Date: day, PageViews: int64(100 * i), UniqueVisitors: int64(50 * i),
			AvgEngagedTime: float64(30 * i), BounceRate: 0.5, ScrollDepthAvg: 0.5, SocialShares: int64(i),
		}))
	}
	store.PutPost(contracts.Post{ID: "draft-1", Status: contracts.PostDraft})
}

func TestCalculateAll_ScoresEveryPublishedPost(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPublished(t, store, 7)

	result, err := newScorer(store, store, 3).CalculateAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 7, result.Processed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.ConfigVersion)

	p, err := store.GetPerformance(ctx, "post-05")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, runAt, p.LastCalculatedAt)
	assert.Equal(t, 1, p.ConfigVersion)

	draft, err := store.GetPerformance(ctx, "draft-1")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestCalculateAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPublished(t, store, 5)
	scorer := newScorer(store, store, 2)

	_, err := scorer.CalculateAll(ctx)
	require.NoError(t, err)
	first, err := store.ListPerformance(ctx, contracts.SortTop, 0)
	require.NoError(t, err)

	_, err = scorer.CalculateAll(ctx)
	require.NoError(t, err)
	second, err := store.ListPerformance(ctx, contracts.SortTop, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// flakyMetrics fails for one post id
type flakyMetrics struct {
	*memory.Store
	failFor string
}

func (f *flakyMetrics) LatestMetrics(ctx context.Context, postID string) (*contracts.PostMetrics, error) {
	if postID == f.failFor {
		return nil, errors.New("connection reset")
	}
	return f.Store.LatestMetrics(ctx, postID)
}

func TestCalculateAll_FailSoft(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPublished(t, store, 4)

	result, err := newScorer(store, &flakyMetrics{Store: store, failFor: "post-01"}, 10).CalculateAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Processed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "post-01")

	failed, err := store.GetPerformance(ctx, "post-01")
	require.NoError(t, err)
	assert.Nil(t, failed)
}

func TestCalculateAll_UsesCurrentWeights(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPublished(t, store, 3)

	scorer := newScorer(store, store, 10)
	configs := strategyconfig.NewStore(store, nil, strategyconfig.Baseline(), logger.Nop())
	_, err := configs.UpdateConfig(ctx, contracts.StrategyConfigUpdate{
		Weights: &contracts.Weights{SEO: 1},
	})
	require.NoError(t, err)

	result, err := scorer.CalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ConfigVersion)

	p, err := store.GetPerformance(ctx, "post-02")
	require.NoError(t, err)
	assert.InDelta(t, p.SEOScore, p.SuccessScore, 1e-9)
}

func TestCalculatePost(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPublished(t, store, 2)
	scorer := newScorer(store, store, 10)

	p, err := scorer.CalculatePost(ctx, "post-01")
	require.NoError(t, err)
	assert.Equal(t, "post-01", p.PostID)

	_, err = scorer.CalculatePost(ctx, "nope")
	assert.True(t, contracts.IsNotFound(err))
}

func TestRecordMetrics(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	scorer := newScorer(store, store, 10)

	err := scorer.RecordMetrics(ctx, contracts.PostMetrics{PostID: "p1", Date: time.Date(2026, 10, 18, 17, 30, 0, 0, time.UTC), PageViews: 10})
	require.NoError(t, err)

	m, err := store.LatestMetrics(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), m.Date)

	err = scorer.RecordMetrics(ctx, contracts.PostMetrics{PostID: "p1", Date: runAt, BounceRate: 2})
	assert.True(t, contracts.IsValidation(err))

	err = scorer.RecordRevenue(ctx, contracts.PostRevenue{PostID: "p1", Date: runAt, Revenue: -1})
	assert.True(t, contracts.IsValidation(err))
	require.NoError(t, scorer.RecordRevenue(ctx, contracts.PostRevenue{PostID: "p1", Date: runAt, Revenue: 12}))
}

func TestGetAndListPerformance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedPublished(t, store, 5)
	scorer := newScorer(store, store, 10)
	_, err := scorer.CalculateAll(ctx)
	require.NoError(t, err)

	_, err = scorer.GetPerformance(ctx, "missing")
	assert.True(t, contracts.IsNotFound(err))

	top, err := scorer.ListPerformance(ctx, contracts.SortTop, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "post-04", top[0].PostID)

	bottom, err := scorer.ListPerformance(ctx, contracts.SortBottom, 1)
	require.NoError(t, err)
	assert.Equal(t, "post-00", bottom[0].PostID)

	_, err = scorer.ListPerformance(ctx, "sideways", 1)
	assert.True(t, contracts.IsValidation(err))
}
