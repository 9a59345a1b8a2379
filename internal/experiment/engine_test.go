package experiment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/store/memory"
	"github.com/wonny/contentpulse/pkg/logger"
)

func newEngine() (*Engine, *memory.Store) {
	store := memory.NewStore()
	e := NewEngine(store, logger.Nop())
	clock := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return e, store
}

func headlineTest() contracts.NewExperiment {
	return contracts.NewExperiment{
		PostID: "post-1",
		Name:   "headline",
		Variants: []contracts.Variant{
			{ID: "a", Name: "control", TrafficShare: 0.5},
			{ID: "b", Name: "question headline", TrafficShare: 0.5, ContentDelta: map[string]string{"title": "Is retinol worth it?"}},
		},
	}
}

func TestCreate_ForcesRunning(t *testing.T) {
	e, _ := newEngine()
	in := headlineTest()
	in.Status = "concluded"
	in.Variants[0].Metrics = contracts.VariantMetrics{Impressions: 500}

	exp, err := e.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, contracts.ExperimentRunning, exp.Status)
	assert.Nil(t, exp.WinnerVariantID)
	assert.Equal(t, int64(0), exp.Variants[0].Metrics.Impressions)
	assert.NotNil(t, exp.Variants[0].ContentDelta)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*contracts.NewExperiment)
	}{
		{"missing post", func(n *contracts.NewExperiment) { n.PostID = "" }},
		{"missing name", func(n *contracts.NewExperiment) { n.Name = " " }},
		{"one variant", func(n *contracts.NewExperiment) { n.Variants = n.Variants[:1] }},
		{"duplicate ids", func(n *contracts.NewExperiment) { n.Variants[1].ID = "a" }},
		{"share over one", func(n *contracts.NewExperiment) { n.Variants[0].TrafficShare = 1.5 }},
		{"negative share", func(n *contracts.NewExperiment) { n.Variants[0].TrafficShare = -0.1 }},
		{"shares sum over one", func(n *contracts.NewExperiment) { n.Variants[0].TrafficShare = 0.7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newEngine()
			in := headlineTest()
			tt.mutate(&in)

			_, err := e.Create(context.Background(), in)
			require.Error(t, err)
			assert.True(t, contracts.IsValidation(err))

			all, err := store.ListExperiments(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreate_EvenSplitAndGeneratedIDs(t *testing.T) {
	e, _ := newEngine()
	exp, err := e.Create(context.Background(), contracts.NewExperiment{
		PostID:   "post-1",
		Name:     "cta",
		Variants: []contracts.Variant{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}},
	})
	require.NoError(t, err)
	for _, v := range exp.Variants {
		assert.NotEmpty(t, v.ID)
		assert.InDelta(t, 0.25, v.TrafficShare, 1e-9)
	}
}

func TestConclude_UnknownWinnerLeavesRunning(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine()
	exp, err := e.Create(ctx, headlineTest())
	require.NoError(t, err)

	_, err = e.Conclude(ctx, exp.ID, "zzz")
	require.Error(t, err)
	assert.True(t, contracts.IsValidation(err))

	stored, err := e.Get(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.ExperimentRunning, stored.Status)
	assert.Nil(t, stored.WinnerVariantID)
}

func TestConclude_TerminalStatesRejectMutation(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine()
	exp, err := e.Create(ctx, headlineTest())
	require.NoError(t, err)

	concluded, err := e.Conclude(ctx, exp.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, contracts.ExperimentConcluded, concluded.Status)
	require.NotNil(t, concluded.WinnerVariantID)
	assert.Equal(t, "b", *concluded.WinnerVariantID)
	assert.NotNil(t, concluded.FinishedAt)

	_, err = e.Conclude(ctx, exp.ID, "a")
	assert.True(t, contracts.IsValidation(err))
	_, err = e.Cancel(ctx, exp.ID)
	assert.True(t, contracts.IsValidation(err))
	_, err = e.RecordVariantMetrics(ctx, exp.ID, "a", contracts.VariantMetrics{Impressions: 1})
	assert.True(t, contracts.IsValidation(err))

	stored, err := e.Get(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", *stored.WinnerVariantID)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine()
	exp, err := e.Create(ctx, headlineTest())
	require.NoError(t, err)

	cancelled, err := e.Cancel(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.ExperimentCancelled, cancelled.Status)
	assert.Nil(t, cancelled.WinnerVariantID)

	_, err = e.Conclude(ctx, exp.ID, "a")
	assert.True(t, contracts.IsValidation(err))

	_, err = e.Cancel(ctx, "missing")
	assert.True(t, contracts.IsNotFound(err))
}

func TestGetAll_FiltersByStatus(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine()
	first, err := e.Create(ctx, headlineTest())
	require.NoError(t, err)
	_, err = e.Create(ctx, headlineTest())
	require.NoError(t, err)
	_, err = e.Conclude(ctx, first.ID, "a")
	require.NoError(t, err)

	all, err := e.GetAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	running, err := e.GetAll(ctx, contracts.ExperimentRunning)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.NotEqual(t, first.ID, running[0].ID)

	concluded, err := e.GetAll(ctx, contracts.ExperimentConcluded)
	require.NoError(t, err)
	assert.Len(t, concluded, 1)

	_, err = e.GetAll(ctx, "paused")
	assert.True(t, contracts.IsValidation(err))
}

func TestRecordVariantMetrics(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine()
	exp, err := e.Create(ctx, headlineTest())
	require.NoError(t, err)

	_, err = e.RecordVariantMetrics(ctx, exp.ID, "a", contracts.VariantMetrics{Impressions: 1000, Conversions: 10})
	require.NoError(t, err)
	updated, err := e.RecordVariantMetrics(ctx, exp.ID, "b", contracts.VariantMetrics{Impressions: 1000, Conversions: 25})
	require.NoError(t, err)

	leader := updated.LeadingVariant()
	require.NotNil(t, leader)
	assert.Equal(t, "b", leader.ID)

	_, err = e.RecordVariantMetrics(ctx, exp.ID, "nope", contracts.VariantMetrics{})
	assert.True(t, contracts.IsNotFound(err))
	_, err = e.RecordVariantMetrics(ctx, exp.ID, "a", contracts.VariantMetrics{Clicks: -1})
	assert.True(t, contracts.IsValidation(err))
}
