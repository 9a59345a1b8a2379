package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/store/memory"
	"github.com/wonny/contentpulse/internal/strategyconfig"
	"github.com/wonny/contentpulse/pkg/logger"
	"github.com/wonny/contentpulse/pkg/redis"
)

// Wednesday
var wednesday = time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC)

func newGenerator(store *memory.Store, at time.Time) *Generator {
	configs := strategyconfig.NewStore(store, nil, strategyconfig.Baseline(), logger.Nop())
	cache := redis.NewCache(redis.NewDisabled(), logger.Nop())
	g := NewGenerator(configs, store, store, store, store, cache, Options{TopN: 2}, logger.Nop())
	g.now = func() time.Time { return at }
	return g
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	for id, score := range map[string]float64{"p1": 90, "p2": 40, "p3": 70, "p4": 10} {
		require.NoError(t, store.UpsertPerformance(ctx, contracts.PostPerformance{PostID: id, SuccessScore: score}))
	}
	for kw, score := range map[string]float64{"retinol serum": 80, "azelaic acid": 60, "snail mucin": 20} {
		_, err := store.UpsertOpportunity(ctx, contracts.Opportunity{ID: kw, Keyword: kw, CompositeScore: score})
		require.NoError(t, err)
	}

	finished := wednesday.Add(-24 * time.Hour)
	winner := "b"
	require.NoError(t, store.CreateExperiment(ctx, contracts.Experiment{ID: "e1", PostID: "p1", Status: contracts.ExperimentRunning, Variants: []contracts.Variant{{ID: "a"}, {ID: "b"}}}))
	ok, err := store.FinishExperiment(ctx, "e1", contracts.ExperimentConcluded, &winner, finished)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.CreateExperiment(ctx, contracts.Experiment{ID: "e2", PostID: "p2", Status: contracts.ExperimentRunning}))
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), WeekStart(wednesday, time.UTC))
	// Monday itself
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), time.UTC))
	// Sunday belongs to the week that started six days earlier
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2026, 10, 25, 23, 0, 0, 0, time.UTC), time.UTC))

	// Sunday 20:00 UTC is already Monday in Seoul
	seoul := time.FixedZone("KST", 9*3600)
	assert.Equal(t, time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2026, 10, 25, 20, 0, 0, 0, time.UTC), seoul))
}

func TestGenerate_Sections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store)

	r, err := newGenerator(store, wednesday).Generate(ctx, false, false)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), r.WeekStart)
	require.Len(t, r.TopPerformers, 2)
	assert.Equal(t, "p1", r.TopPerformers[0].PostID)
	assert.Equal(t, "p4", r.BottomPerformers[0].PostID)
	require.Len(t, r.TopOpportunities, 2)
	assert.Equal(t, "retinol serum", r.TopOpportunities[0].Keyword)
	require.Len(t, r.ExperimentOutcomes, 1)
	assert.Equal(t, "b", *r.ExperimentOutcomes[0].WinnerVariantID)

	assert.InDelta(t, 52.5, r.Summary.AvgSuccessScore, 1e-9)
	assert.Equal(t, 4, r.Summary.ScoredPosts)
	assert.Equal(t, 3, r.Summary.PendingOpportunities)
	assert.Equal(t, 1, r.Summary.ConcludedExperiments)
	assert.Equal(t, 1, r.Summary.RunningExperiments)

	assert.Equal(t, 1, r.Config.Version)
	assert.Len(t, r.ConfigHash, 64)
	assert.Nil(t, r.Comparison)
	assert.Equal(t, 0, store.ReportCount(), "persist=false writes nothing")
}

func TestGenerate_PersistUpsertsPerWeek(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store)

	_, err := newGenerator(store, wednesday).Generate(ctx, true, false)
	require.NoError(t, err)
	_, err = newGenerator(store, wednesday.Add(48*time.Hour)).Generate(ctx, true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, store.ReportCount())

	_, err = newGenerator(store, wednesday.AddDate(0, 0, 7)).Generate(ctx, true, false)
	require.NoError(t, err)
	assert.Equal(t, 2, store.ReportCount())
}

func TestGenerate_CompareWithPreviousWeek(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store)

	previous, err := newGenerator(store, wednesday).Generate(ctx, true, true)
	require.NoError(t, err)
	assert.Nil(t, previous.Comparison, "first report has nothing to compare against")

	// the next week: scores improve and the config changes
	require.NoError(t, store.UpsertPerformance(ctx, contracts.PostPerformance{PostID: "p4", SuccessScore: 50}))
	configs := strategyconfig.NewStore(store, nil, strategyconfig.Baseline(), logger.Nop())
	_, err = configs.UpdateConfig(ctx, contracts.StrategyConfigUpdate{Weights: &contracts.Weights{Engagement: 1}})
	require.NoError(t, err)

	next, err := newGenerator(store, wednesday.AddDate(0, 0, 7)).Generate(ctx, true, true)
	require.NoError(t, err)
	require.NotNil(t, next.Comparison)
	assert.Equal(t, previous.WeekStart, next.Comparison.PreviousWeekStart)
	assert.InDelta(t, 10, next.Comparison.AvgSuccessScoreDelta, 1e-9)
	assert.Equal(t, 0, next.Comparison.ScoredPostsDelta)
	assert.True(t, next.Comparison.ConfigVersionChanged)

	stored, err := store.GetReport(ctx, previous.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, previous.Summary, stored.Summary, "previous report untouched")
	assert.Nil(t, stored.Comparison)
}

func TestGenerate_EmptyStore(t *testing.T) {
	r, err := newGenerator(memory.NewStore(), wednesday).Generate(context.Background(), true, true)
	require.NoError(t, err)
	assert.Empty(t, r.TopPerformers)
	assert.Empty(t, r.ExperimentOutcomes)
	assert.Equal(t, 0.0, r.Summary.AvgSuccessScore)
	assert.Nil(t, r.Comparison)
}

func TestGetReports(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	g := newGenerator(store, wednesday)

	_, err := g.GetLatestReport(ctx)
	assert.True(t, contracts.IsNotFound(err))

	_, err = g.Generate(ctx, true, false)
	require.NoError(t, err)

	latest, err := g.GetLatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), latest.WeekStart)

	// any day of the week resolves to its Monday
	byDay, err := g.GetReport(ctx, "2026-10-22")
	require.NoError(t, err)
	assert.Equal(t, latest.WeekStart, byDay.WeekStart)

	_, err = g.GetReport(ctx, "2026-10-12")
	assert.True(t, contracts.IsNotFound(err))

	_, err = g.GetReport(ctx, "last week")
	assert.True(t, contracts.IsValidation(err))
}
