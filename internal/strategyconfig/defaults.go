package strategyconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Defaults is the shape of the optional defaults file.
// It only seeds version 1; later versions come from UpdateConfig.
type Defaults struct {
	Weights            contracts.Weights            `yaml:"weights"`
	OpportunityWeights contracts.OpportunityWeights `yaml:"opportunity_weights"`
	ContentRules       contracts.ContentRules       `yaml:"content_rules"`
}

// Baseline returns the hard-coded first config
func Baseline() Defaults {
	return Defaults{
		Weights: contracts.Weights{
			Engagement:   0.4,
			SEO:          0.3,
			Monetization: 0.3,
		},
		OpportunityWeights: contracts.OpportunityWeights{
			Trend:     0.4,
			SERP:      0.35,
			Sentiment: 0.25,
		},
		ContentRules: contracts.ContentRules{
			MinWordCount:      1200,
			MaxWordCount:      3000,
			MaxPostsPerWeek:   5,
			MinAffiliateLinks: 1,
			MaxAffiliateLinks: 6,
			RequiredSections:  []string{"introduction", "comparison", "verdict"},
			Tone:              "informative",
		},
	}
}

// LoadDefaults reads a YAML defaults file on top of Baseline.
// KnownFields(true): a typo in the file fails loudly instead of being ignored.
func LoadDefaults(path string) (Defaults, error) {
	d := Baseline()
	if path == "" {
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("failed to read strategy defaults: %w", err)
	}
	return ParseDefaults(data)
}

// ParseDefaults decodes YAML bytes on top of Baseline
func ParseDefaults(data []byte) (Defaults, error) {
	d := Baseline()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Baseline(), fmt.Errorf("failed to parse strategy defaults: %w", err)
	}

	if err := d.validate(); err != nil {
		return Baseline(), err
	}
	return d, nil
}

// validate checks structural sanity only. Weight sums are deliberately not
// checked: the scorer treats weights as arbitrary linear coefficients.
func (d Defaults) validate() error {
	w := d.Weights
	if w.Engagement < 0 || w.SEO < 0 || w.Monetization < 0 {
		return contracts.NewValidationError("weights", "must be non-negative")
	}
	ow := d.OpportunityWeights
	if ow.Trend < 0 || ow.SERP < 0 || ow.Sentiment < 0 {
		return contracts.NewValidationError("opportunity_weights", "must be non-negative")
	}
	r := d.ContentRules
	if r.MinWordCount > r.MaxWordCount {
		return contracts.NewValidationError("content_rules.min_word_count", "must be <= max_word_count")
	}
	if r.MinAffiliateLinks > r.MaxAffiliateLinks {
		return contracts.NewValidationError("content_rules.min_affiliate_links", "must be <= max_affiliate_links")
	}
	return nil
}

// Config turns the defaults into an unversioned StrategyConfig
func (d Defaults) Config() contracts.StrategyConfig {
	rules := d.ContentRules
	rules.RequiredSections = append([]string(nil), rules.RequiredSections...)
	return contracts.StrategyConfig{
		Weights:            d.Weights,
		OpportunityWeights: d.OpportunityWeights,
		ContentRules:       rules,
	}
}
