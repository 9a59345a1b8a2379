package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPost_IsDue(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, Post{Status: PostScheduled, ScheduledFor: &past}.IsDue(now))
	assert.True(t, Post{Status: PostScheduled, ScheduledFor: &now}.IsDue(now))
	assert.False(t, Post{Status: PostScheduled, ScheduledFor: &future}.IsDue(now))
	assert.False(t, Post{Status: PostScheduled}.IsDue(now))
	assert.False(t, Post{Status: PostPublished, ScheduledFor: &past}.IsDue(now))
}

func TestPostMetrics_Validate(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	valid := PostMetrics{PostID: "p1", Date: day, PageViews: 10, BounceRate: 0.3, ScrollDepthAvg: 0.5}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.BounceRate = 1.2
	assert.True(t, IsValidation(bad.Validate()))

	bad = valid
	bad.PostID = ""
	assert.True(t, IsValidation(bad.Validate()))

	bad = valid
	bad.PageViews = -1
	assert.True(t, IsValidation(bad.Validate()))
}

func TestPostRevenue_Validate(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, PostRevenue{PostID: "p1", Date: day, Revenue: 12.5}.Validate())
	assert.True(t, IsValidation(PostRevenue{PostID: "p1", Date: day, EPC: -1}.Validate()))
	assert.True(t, IsValidation(PostRevenue{PostID: "p1"}.Validate()))
}

func TestErrorClassification(t *testing.T) {
	v := NewValidationError("winner_variant_id", "unknown variant %q", "x")
	nf := NewNotFoundError("experiment", "e1")
	st := WrapStore("upsert performance", errors.New("connection reset"))

	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", v)))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", nf)))
	assert.True(t, IsTransient(st))
	assert.False(t, IsTransient(v))

	// already-classified errors pass through unchanged
	assert.Same(t, v, WrapStore("op", v))
	assert.Nil(t, WrapStore("op", nil))
	assert.Contains(t, st.Error(), "connection reset")
	assert.Equal(t, `experiment "e1" not found`, nf.Error())
}

func TestExperiment_LeadingVariant(t *testing.T) {
	exp := Experiment{Variants: []Variant{
		{ID: "a", Metrics: VariantMetrics{Impressions: 100, Conversions: 5}},
		{ID: "b", Metrics: VariantMetrics{Impressions: 100, Conversions: 9}},
		{ID: "c", Metrics: VariantMetrics{Impressions: 0, Conversions: 0}},
	}}

	lead := exp.LeadingVariant()
	assert.Equal(t, "b", lead.ID)

	v, ok := exp.Variant("c")
	assert.True(t, ok)
	assert.Equal(t, 0.0, v.Metrics.ConversionRate())

	_, ok = exp.Variant("zzz")
	assert.False(t, ok)
	assert.Nil(t, (&Experiment{}).LeadingVariant())
}
