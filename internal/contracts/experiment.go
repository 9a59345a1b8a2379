package contracts

import "time"

// VariantMetrics are the observed results of one variant
type VariantMetrics struct {
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Conversions    int64   `json:"conversions"`
	AvgEngagedTime float64 `json:"avg_engaged_time"`
	Revenue        float64 `json:"revenue"`
}

// ConversionRate returns conversions per impression
func (m VariantMetrics) ConversionRate() float64 {
	if m.Impressions <= 0 {
		return 0
	}
	return float64(m.Conversions) / float64(m.Impressions)
}

// Variant is one arm of an experiment
type Variant struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ContentDelta map[string]string `json:"content_delta"` // field -> replacement
	TrafficShare float64           `json:"traffic_share"` // 0-1
	Metrics      VariantMetrics    `json:"metrics"`
}

// Experiment is an A/B comparison of content variants for one post
type Experiment struct {
	ID              string           `json:"id"`
	PostID          string           `json:"post_id"`
	Name            string           `json:"name"`
	Variants        []Variant        `json:"variants"`
	Status          ExperimentStatus `json:"status"`
	WinnerVariantID *string          `json:"winner_variant_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
}

// Variant returns the variant with the given id
func (e *Experiment) Variant(id string) (*Variant, bool) {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i], true
		}
	}
	return nil, false
}

// LeadingVariant returns the variant with the best conversion rate so far.
// Ties keep the earlier variant; nil when there are no variants.
func (e *Experiment) LeadingVariant() *Variant {
	var best *Variant
	for i := range e.Variants {
		v := &e.Variants[i]
		if best == nil || v.Metrics.ConversionRate() > best.Metrics.ConversionRate() {
			best = v
		}
	}
	return best
}

// NewExperiment is the input of ExperimentEngine.Create; status is always forced to running
type NewExperiment struct {
	PostID   string    `json:"post_id"`
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
	Status   string    `json:"status,omitempty"`
}
