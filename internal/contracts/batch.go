package contracts

// Batch result shapes. A non-empty Errors alongside Success=true is a partial
// success, not a failure.

// ScoreResult is returned by the performance scorer
type ScoreResult struct {
	Success       bool     `json:"success"`
	Processed     int      `json:"processed"`
	ConfigVersion int      `json:"config_version"`
	Errors        []string `json:"errors"`
}

// OpportunityResult is returned by the opportunity calculator
type OpportunityResult struct {
	Success bool     `json:"success"`
	Scored  int      `json:"scored"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// PublishResult is returned by the publish scheduler
type PublishResult struct {
	Success   bool     `json:"success"`
	Published int      `json:"published"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}
