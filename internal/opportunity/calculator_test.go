package opportunity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/store/memory"
	"github.com/wonny/contentpulse/internal/strategyconfig"
	"github.com/wonny/contentpulse/pkg/logger"
)

func newCalculator(store *memory.Store, sources Sources) *Calculator {
	configs := strategyconfig.NewStore(store, nil, strategyconfig.Baseline(), logger.Nop())
	c := NewCalculator(configs, store, sources, logger.Nop())
	c.now = func() time.Time { return time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC) }
	return c
}

func signalSources(sig *memory.Signals) Sources {
	return Sources{Trend: sig, Serp: sig, Sentiment: sig, Keywords: sig}
}

func TestCalculate_TrendOnlyKeywordNotDiluted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetTrend("retinol serum", contracts.TrendSignal{Direction: contracts.TrendRising, GrowthRate: 50})

	result, err := newCalculator(store, signalSources(sig)).CalculateOpportunities(ctx, []string{"retinol serum"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scored)
	assert.Empty(t, result.Errors)

	top, err := store.ListByStatus(ctx, contracts.OpportunityPending, 0, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.InDelta(t, 50, top[0].CompositeScore, 1e-9)
	assert.Nil(t, top[0].SubScores.Serp)
	assert.Nil(t, top[0].Signals.Sentiment)
	require.NotNil(t, top[0].Signals.Trend)
}

func TestCalculate_SkipsKeywordsWithoutSignals(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetSerp("vitamin c", contracts.SerpSignal{Competition: 0.2})

	result, err := newCalculator(store, signalSources(sig)).CalculateOpportunities(ctx, []string{"vitamin c", "unknown topic"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scored)
	assert.Equal(t, 1, result.Skipped)

	keywords, err := store.ListKeywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vitamin c"}, keywords)
}

func TestCalculate_DerivesKeywordsFromSources(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetTrend("Niacinamide", contracts.TrendSignal{GrowthRate: 10})
	sig.SetSentiment("snail mucin", contracts.SentimentSignal{Sentiment: 0.4, Intent: contracts.IntentCommercial})

	result, err := newCalculator(store, signalSources(sig)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scored)
}

func TestCalculate_BlankKeywordIsValidationError(t *testing.T) {
	_, err := newCalculator(memory.NewStore(), Sources{}).CalculateOpportunities(context.Background(), []string{"ok", "  "})
	assert.True(t, contracts.IsValidation(err))
}

type brokenSerp struct{}

func (brokenSerp) SerpFor(context.Context, string) (*contracts.SerpSignal, error) {
	return nil, errors.New("provider timeout")
}

func TestCalculate_FailingSourceTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetTrend("retinol serum", contracts.TrendSignal{GrowthRate: 50})

	result, err := newCalculator(store, Sources{Trend: sig, Serp: brokenSerp{}}).CalculateOpportunities(ctx, []string{"retinol serum"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Scored)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "serp source")

	top, err := store.ListByStatus(ctx, contracts.OpportunityPending, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 50, top[0].CompositeScore, 1e-9)
}

func TestDismissedNeverReturnedAfterRecompute(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetTrend("retinol serum", contracts.TrendSignal{GrowthRate: 20})
	sig.SetTrend("azelaic acid", contracts.TrendSignal{GrowthRate: 30})
	calc := newCalculator(store, signalSources(sig))

	_, err := calc.Run(ctx)
	require.NoError(t, err)

	top, err := calc.GetTopOpportunities(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)

	var retinolID string
	for _, o := range top {
		if o.Keyword == "retinol serum" {
			retinolID = o.ID
		}
	}
	ok, err := calc.Dismiss(ctx, retinolID)
	require.NoError(t, err)
	assert.True(t, ok)

	// the keyword becomes the best one on paper
	sig.SetTrend("retinol serum", contracts.TrendSignal{GrowthRate: 100})
	_, err = calc.Run(ctx)
	require.NoError(t, err)

	top, err = calc.GetTopOpportunities(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "azelaic acid", top[0].Keyword)

	o, err := calc.GetOpportunity(ctx, retinolID)
	require.NoError(t, err)
	assert.Equal(t, contracts.OpportunityDismissed, o.Status)
	assert.InDelta(t, 100, o.CompositeScore, 1e-9, "score is still refreshed")
}

func TestGetTopOpportunities_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetTrend("a", contracts.TrendSignal{GrowthRate: 10})
	sig.SetTrend("b", contracts.TrendSignal{GrowthRate: 90})
	sig.SetTrend("c", contracts.TrendSignal{GrowthRate: 60})
	calc := newCalculator(store, signalSources(sig))
	_, err := calc.Run(ctx)
	require.NoError(t, err)

	top, err := calc.GetTopOpportunities(ctx, 0, 50)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Keyword)
	assert.Equal(t, "c", top[1].Keyword)

	top, err = calc.GetTopOpportunities(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	_, err = calc.GetTopOpportunities(ctx, -1, 0)
	assert.True(t, contracts.IsValidation(err))

	top, err = calc.GetTopOpportunities(ctx, maxTopLimit, 0)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	_, err = calc.GetTopOpportunities(ctx, maxTopLimit+1, 0)
	assert.True(t, contracts.IsValidation(err))
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := memory.NewSignals()
	sig.SetTrend("x", contracts.TrendSignal{GrowthRate: 10})
	sig.SetTrend("y", contracts.TrendSignal{GrowthRate: 10})
	calc := newCalculator(store, signalSources(sig))
	_, err := calc.Run(ctx)
	require.NoError(t, err)

	all, err := calc.GetTopOpportunities(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	x, y := all[0].ID, all[1].ID

	// pending → actioned, repeated call is an idempotent success
	ok, err := calc.MarkActioned(ctx, x)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = calc.MarkActioned(ctx, x)
	require.NoError(t, err)
	assert.True(t, ok)

	// actioned never becomes dismissed
	ok, err = calc.Dismiss(ctx, x)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = calc.Dismiss(ctx, y)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = calc.MarkActioned(ctx, y)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = calc.MarkActioned(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = calc.GetOpportunity(ctx, "missing")
	assert.True(t, contracts.IsNotFound(err))
}
