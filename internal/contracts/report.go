package contracts

import "time"

// PerformerSummary is one row of the top/bottom performer lists
type PerformerSummary struct {
	PostID       string  `json:"post_id"`
	SuccessScore float64 `json:"success_score"`
}

// OpportunitySummary is one row of the top opportunity list
type OpportunitySummary struct {
	ID             string  `json:"id"`
	Keyword        string  `json:"keyword"`
	CompositeScore float64 `json:"composite_score"`
}

// ExperimentOutcome summarises a finished experiment
type ExperimentOutcome struct {
	ExperimentID    string           `json:"experiment_id"`
	PostID          string           `json:"post_id"`
	Name            string           `json:"name"`
	Status          ExperimentStatus `json:"status"`
	WinnerVariantID *string          `json:"winner_variant_id,omitempty"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
}

// ReportSummary holds the aggregate numbers compared week over week
type ReportSummary struct {
	AvgSuccessScore      float64 `json:"avg_success_score"`
	ScoredPosts          int     `json:"scored_posts"`
	PendingOpportunities int     `json:"pending_opportunities"`
	ConcludedExperiments int     `json:"concluded_experiments"`
	CancelledExperiments int     `json:"cancelled_experiments"`
	RunningExperiments   int     `json:"running_experiments"`
}

// ReportComparison is the delta against the most recent prior report
type ReportComparison struct {
	PreviousWeekStart         time.Time `json:"previous_week_start"`
	AvgSuccessScoreDelta      float64   `json:"avg_success_score_delta"`
	ScoredPostsDelta          int       `json:"scored_posts_delta"`
	PendingOpportunitiesDelta int       `json:"pending_opportunities_delta"`
	ConcludedExperimentsDelta int       `json:"concluded_experiments_delta"`
	ConfigVersionChanged      bool      `json:"config_version_changed"`
}

// StrategyReport is an immutable weekly snapshot; unique per WeekStart
type StrategyReport struct {
	WeekStart          time.Time            `json:"week_start"`
	GeneratedAt        time.Time            `json:"generated_at"`
	Summary            ReportSummary        `json:"summary"`
	TopPerformers      []PerformerSummary   `json:"top_performers"`
	BottomPerformers   []PerformerSummary   `json:"bottom_performers"`
	TopOpportunities   []OpportunitySummary `json:"top_opportunities"`
	ExperimentOutcomes []ExperimentOutcome  `json:"experiment_outcomes"`
	Config             StrategyConfig       `json:"config"`
	ConfigHash         string               `json:"config_hash"`
	Comparison         *ReportComparison    `json:"comparison,omitempty"`
}
