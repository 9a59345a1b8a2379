package contracts

import "time"

// TrendDirection is the direction reported by a trend source
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendStable  TrendDirection = "stable"
	TrendFalling TrendDirection = "falling"
)

// SearchIntent is the community-classified intent of a keyword
type SearchIntent string

const (
	IntentTransactional SearchIntent = "transactional"
	IntentCommercial    SearchIntent = "commercial"
	IntentInformational SearchIntent = "informational"
	IntentNavigational  SearchIntent = "navigational"
)

// TrendSignal is a parsed trend-provider record
type TrendSignal struct {
	Direction  TrendDirection `json:"direction"`
	GrowthRate float64        `json:"growth_rate"` // percent
	Volume     int64          `json:"volume,omitempty"`
	ObservedAt time.Time      `json:"observed_at"`
}

// SerpSignal is a parsed search-results record
type SerpSignal struct {
	Competition  float64   `json:"competition"` // 0 (open) - 1 (saturated)
	HasPAA       bool      `json:"has_paa"`
	PAAQuestions []string  `json:"paa_questions,omitempty"`
	OrganicCount int       `json:"organic_count"`
	AdCount      int       `json:"ad_count"`
	ObservedAt   time.Time `json:"observed_at"`
}

// SentimentSignal is a parsed community-sentiment record
type SentimentSignal struct {
	Sentiment  float64      `json:"sentiment"` // -1 .. 1
	Intent     SearchIntent `json:"intent"`
	Mentions   int          `json:"mentions"`
	ObservedAt time.Time    `json:"observed_at"`
}

// OpportunitySignals is the snapshot of signals behind a composite score
type OpportunitySignals struct {
	Trend     *TrendSignal     `json:"trend,omitempty"`
	Serp      *SerpSignal      `json:"serp,omitempty"`
	Sentiment *SentimentSignal `json:"sentiment,omitempty"`
}

// Count returns the number of sources that reported data
func (s OpportunitySignals) Count() int {
	n := 0
	if s.Trend != nil {
		n++
	}
	if s.Serp != nil {
		n++
	}
	if s.Sentiment != nil {
		n++
	}
	return n
}

// SubScores are the per-source normalised scores (0-100); nil when the source had no data
type SubScores struct {
	Trend     *float64 `json:"trend,omitempty"`
	Serp      *float64 `json:"serp,omitempty"`
	Sentiment *float64 `json:"sentiment,omitempty"`
}

// Opportunity is a keyword scored as a content candidate; unique per Keyword
type Opportunity struct {
	ID             string             `json:"id"`
	Keyword        string             `json:"keyword"`
	CompositeScore float64            `json:"composite_score"`
	Signals        OpportunitySignals `json:"signals"`
	SubScores      SubScores          `json:"sub_scores"`
	Status         OpportunityStatus  `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
