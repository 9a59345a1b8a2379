package opportunity

import (
	"math"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Normalisation anchors for the sub-scores
const (
	TrendGrowthAnchor = 100.0 // growth rate (%) earning full trend credit
	PAAAnchor         = 4.0   // "people also ask" questions earning full PAA credit
	unknownIntent     = 50.0
)

var intentScores = map[contracts.SearchIntent]float64{
	contracts.IntentTransactional: 100,
	contracts.IntentCommercial:    90,
	contracts.IntentInformational: 70,
	contracts.IntentNavigational:  30,
}

// TrendSubScore scores growth against TrendGrowthAnchor; a falling trend earns half
func TrendSubScore(s contracts.TrendSignal) float64 {
	score := clampUnit(s.GrowthRate/TrendGrowthAnchor) * 100
	if s.Direction == contracts.TrendFalling {
		score /= 2
	}
	return score
}

// SerpSubScore rewards open results (70%) and PAA presence (30%)
func SerpSubScore(s contracts.SerpSignal) float64 {
	open := (1 - clampUnit(s.Competition)) * 100 * 0.7

	paa := float64(len(s.PAAQuestions))
	if s.HasPAA && paa == 0 {
		paa = 1
	}
	paaPart := math.Min(paa/PAAAnchor, 1) * 100 * 0.3

	return open + paaPart
}

// SentimentSubScore blends sentiment (60%) with the intent score (40%)
func SentimentSubScore(s contracts.SentimentSignal) float64 {
	sentiment := clampUnit((s.Sentiment+1)/2) * 100 * 0.6

	intent, ok := intentScores[s.Intent]
	if !ok {
		intent = unknownIntent
	}
	return sentiment + intent*0.4
}

// SubScoresFor computes a sub-score for each source that reported data
func SubScoresFor(signals contracts.OpportunitySignals) contracts.SubScores {
	var sub contracts.SubScores
	if signals.Trend != nil {
		v := TrendSubScore(*signals.Trend)
		sub.Trend = &v
	}
	if signals.Serp != nil {
		v := SerpSubScore(*signals.Serp)
		sub.Serp = &v
	}
	if signals.Sentiment != nil {
		v := SentimentSubScore(*signals.Sentiment)
		sub.Sentiment = &v
	}
	return sub
}

// Composite re-normalises the weighted sum over the sources that are present:
// a missing source is removed from the denominator instead of adding zero to
// the numerator. When every present weight is zero the plain mean is used.
// ok is false when no source is present.
func Composite(sub contracts.SubScores, w contracts.OpportunityWeights) (score float64, ok bool) {
	type part struct{ score, weight float64 }

	parts := make([]part, 0, 3)
	if sub.Trend != nil {
		parts = append(parts, part{*sub.Trend, math.Max(w.Trend, 0)})
	}
	if sub.Serp != nil {
		parts = append(parts, part{*sub.Serp, math.Max(w.SERP, 0)})
	}
	if sub.Sentiment != nil {
		parts = append(parts, part{*sub.Sentiment, math.Max(w.Sentiment, 0)})
	}
	if len(parts) == 0 {
		return 0, false
	}

	var weighted, weights, plain float64
	for _, p := range parts {
		weighted += p.score * p.weight
		weights += p.weight
		plain += p.score
	}

	if weights == 0 {
		return clampScore(plain / float64(len(parts))), true
	}
	return clampScore(weighted / weights), true
}

func clampUnit(v float64) float64 {
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
