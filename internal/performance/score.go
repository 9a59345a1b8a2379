// Package performance turns per-post engagement and revenue signals into
// normalised 0-100 scores.
package performance

import (
	"math"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Anchors are the normalisation points at which a signal earns full credit.
// The values are tunable policy; DefaultAnchors keeps the historical ones.
type Anchors struct {
	EngagedTimeSeconds float64 // avg engaged time for full time credit
	SocialShares       float64 // shares for full share credit
	PageViews          float64
	UniqueVisitors     float64
	Revenue            float64 // revenue (USD) for full revenue credit
	ConversionPoints   float64 // points per conversion, capped at 100
	EPC                float64 // earnings per click for full EPC credit
}

// DefaultAnchors returns 300s, 10 shares, 1000 views, 500 visitors, $100, 20 points/conversion and $1 EPC
func DefaultAnchors() Anchors {
	return Anchors{
		EngagedTimeSeconds: 300,
		SocialShares:       10,
		PageViews:          1000,
		UniqueVisitors:     500,
		Revenue:            100,
		ConversionPoints:   20,
		EPC:                1,
	}
}

// Scores is one post's computed score set
type Scores struct {
	Engagement   float64
	SEO          float64
	Monetization float64
	Success      float64
}

// Compute scores one post. Either input may be nil.
func Compute(m *contracts.PostMetrics, r *contracts.PostRevenue, w contracts.Weights, a Anchors) Scores {
	s := Scores{
		Engagement:   EngagementScore(m, a),
		SEO:          SEOScore(m, a),
		Monetization: MonetizationScore(r, a),
	}
	s.Success = SuccessScore(s.Engagement, s.SEO, s.Monetization, w)
	return s
}

// EngagementScore blends time 30%, bounce 30%, scroll 20% and shares 20%
func EngagementScore(m *contracts.PostMetrics, a Anchors) float64 {
	if m == nil {
		return 0
	}
	timePart := ratio(m.AvgEngagedTime, a.EngagedTimeSeconds) * 100 * 0.3
	bouncePart := unit(1-m.BounceRate) * 100 * 0.3
	scrollPart := unit(m.ScrollDepthAvg) * 100 * 0.2
	sharesPart := ratio(float64(m.SocialShares), a.SocialShares) * 100 * 0.2
	return clampScore(timePart + bouncePart + scrollPart + sharesPart)
}

// SEOScore blends page views 60% and unique visitors 40%
func SEOScore(m *contracts.PostMetrics, a Anchors) float64 {
	if m == nil {
		return 0
	}
	views := ratio(float64(m.PageViews), a.PageViews) * 100 * 0.6
	visitors := ratio(float64(m.UniqueVisitors), a.UniqueVisitors) * 100 * 0.4
	return clampScore(views + visitors)
}

// MonetizationScore blends revenue 50%, conversions 30% and EPC 20%
func MonetizationScore(r *contracts.PostRevenue, a Anchors) float64 {
	if r == nil {
		return 0
	}
	revenue := ratio(r.Revenue, a.Revenue) * 100 * 0.5
	conversions := math.Min(float64(r.Conversions)*a.ConversionPoints, 100) * 0.3
	epc := ratio(r.EPC, a.EPC) * 100 * 0.2
	return clampScore(revenue + conversions + epc)
}

// SuccessScore is the weighted sum of the sub-scores. Weights are used as
// given; a weight set summing past 1 is clamped at 100, not normalised.
func SuccessScore(engagement, seo, monetization float64, w contracts.Weights) float64 {
	return clampScore(engagement*w.Engagement + seo*w.SEO + monetization*w.Monetization)
}

// ratio is value/anchor capped to [0,1]; a non-positive anchor gives no credit
func ratio(value, anchor float64) float64 {
	if anchor <= 0 {
		return 0
	}
	return unit(value / anchor)
}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, 1))
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, 100))
}
