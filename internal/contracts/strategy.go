package contracts

import "time"

// Weights are the linear coefficients of the success score.
// They sum to 1.0 by convention only; nothing normalises them.
type Weights struct {
	Engagement   float64 `json:"engagement" yaml:"engagement"`
	SEO          float64 `json:"seo" yaml:"seo"`
	Monetization float64 `json:"monetization" yaml:"monetization"`
}

// Sum returns the sum of all weights
func (w Weights) Sum() float64 {
	return w.Engagement + w.SEO + w.Monetization
}

// OpportunityWeights weight each market-signal source in the composite score
type OpportunityWeights struct {
	Trend     float64 `json:"trend" yaml:"trend"`
	SERP      float64 `json:"serp" yaml:"serp"`
	Sentiment float64 `json:"sentiment" yaml:"sentiment"`
}

// ContentRules are bounds consumed by content generation; not computed here
type ContentRules struct {
	MinWordCount      int      `json:"min_word_count" yaml:"min_word_count"`
	MaxWordCount      int      `json:"max_word_count" yaml:"max_word_count"`
	MaxPostsPerWeek   int      `json:"max_posts_per_week" yaml:"max_posts_per_week"`
	MinAffiliateLinks int      `json:"min_affiliate_links" yaml:"min_affiliate_links"`
	MaxAffiliateLinks int      `json:"max_affiliate_links" yaml:"max_affiliate_links"`
	RequiredSections  []string `json:"required_sections" yaml:"required_sections"`
	Tone              string   `json:"tone" yaml:"tone"`
}

// StrategyConfig is one immutable version of the strategy configuration.
// The highest version is the current one.
type StrategyConfig struct {
	Version            int                `json:"version"`
	Weights            Weights            `json:"weights"`
	OpportunityWeights OpportunityWeights `json:"opportunity_weights"`
	ContentRules       ContentRules       `json:"content_rules"`
	CreatedAt          time.Time          `json:"created_at"`
}

// StrategyConfigUpdate is a partial update; nil fields keep the current value
type StrategyConfigUpdate struct {
	Version            *int                `json:"version,omitempty"`
	Weights            *Weights            `json:"weights,omitempty"`
	OpportunityWeights *OpportunityWeights `json:"opportunity_weights,omitempty"`
	ContentRules       *ContentRules       `json:"content_rules,omitempty"`
}
