package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만
//
// Every write is a single-row upsert or a conditional update keyed by a natural
// unique key; implementations must make each call atomic on its own.
// Lookups that find nothing return (nil, nil) unless documented otherwise.

// StrategyConfigRepository stores versioned strategy configs
type StrategyConfigRepository interface {
	// Current returns the highest version, or nil when none exists
	Current(ctx context.Context) (*StrategyConfig, error)
	// CreateInitial inserts cfg as version 1 unless a config already exists,
	// then returns the current config (atomic get-or-create)
	CreateInitial(ctx context.Context, cfg StrategyConfig) (*StrategyConfig, error)
	// InsertVersion inserts a new version; ok=false when that version already exists
	InsertVersion(ctx context.Context, cfg StrategyConfig) (ok bool, err error)
	// History lists versions newest first
	History(ctx context.Context, limit int) ([]StrategyConfig, error)
}

// PostRepository is the engine's view of the post collection
type PostRepository interface {
	// ListPublished pages through published posts ordered by id, after afterID
	ListPublished(ctx context.Context, afterID string, limit int) ([]Post, error)
	// ListScheduledDue returns scheduled posts with scheduled_for <= now, oldest first
	ListScheduledDue(ctx context.Context, now time.Time, limit int) ([]Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	// TransitionStatus moves id from → to only if its status is still from;
	// ok=false when the row no longer matches
	TransitionStatus(ctx context.Context, id string, from, to PostStatus, at time.Time) (ok bool, err error)
}

// MetricsRepository holds daily metrics and revenue rows
type MetricsRepository interface {
	LatestMetrics(ctx context.Context, postID string) (*PostMetrics, error)
	LatestRevenue(ctx context.Context, postID string) (*PostRevenue, error)
	UpsertMetrics(ctx context.Context, m PostMetrics) error
	UpsertRevenue(ctx context.Context, r PostRevenue) error
}

// PerformanceRepository holds derived PostPerformance rows
type PerformanceRepository interface {
	UpsertPerformance(ctx context.Context, p PostPerformance) error
	GetPerformance(ctx context.Context, postID string) (*PostPerformance, error)
	// ListPerformance orders by success score (desc for top, asc for bottom)
	ListPerformance(ctx context.Context, order SortOrder, limit int) ([]PostPerformance, error)
	// AverageSuccessScore returns the mean success score and row count
	AverageSuccessScore(ctx context.Context) (avg float64, count int, err error)
}

// OpportunityRepository holds opportunities keyed by keyword
type OpportunityRepository interface {
	// UpsertOpportunity creates or refreshes score/signals by keyword.
	// An existing row keeps its id, status and created_at.
	UpsertOpportunity(ctx context.Context, o Opportunity) (*Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*Opportunity, error)
	ListKeywords(ctx context.Context) ([]string, error)
	// ListByStatus returns rows with score >= minScore ordered by score desc
	ListByStatus(ctx context.Context, status OpportunityStatus, minScore float64, limit int) ([]Opportunity, error)
	CountByStatus(ctx context.Context, status OpportunityStatus) (int, error)
	// TransitionOpportunity moves id from → to only if its status is still from
	TransitionOpportunity(ctx context.Context, id string, from, to OpportunityStatus, at time.Time) (ok bool, err error)
}

// ExperimentRepository holds experiments
type ExperimentRepository interface {
	CreateExperiment(ctx context.Context, e Experiment) error
	GetExperiment(ctx context.Context, id string) (*Experiment, error)
	// ListExperiments filters by status when status is non-empty; newest first
	ListExperiments(ctx context.Context, status ExperimentStatus) ([]Experiment, error)
	// FinishExperiment moves a running experiment to a terminal status;
	// ok=false when it is no longer running
	FinishExperiment(ctx context.Context, id string, to ExperimentStatus, winnerVariantID *string, at time.Time) (ok bool, err error)
	// UpdateVariantMetrics replaces a variant's metrics while the experiment is running
	UpdateVariantMetrics(ctx context.Context, id, variantID string, m VariantMetrics, at time.Time) (ok bool, err error)
	// ListFinishedSince returns terminal experiments finished at or after since
	ListFinishedSince(ctx context.Context, since time.Time) ([]Experiment, error)
}

// ReportRepository holds weekly strategy reports
type ReportRepository interface {
	UpsertReport(ctx context.Context, r StrategyReport) error
	GetReport(ctx context.Context, weekStart time.Time) (*StrategyReport, error)
	// PreviousReport returns the newest report with week_start < before
	PreviousReport(ctx context.Context, before time.Time) (*StrategyReport, error)
	LatestReport(ctx context.Context) (*StrategyReport, error)
}

// Signal sources return already-parsed records; (nil, nil) means no data for keyword.

// TrendSource reports search-trend direction and growth
type TrendSource interface {
	TrendFor(ctx context.Context, keyword string) (*TrendSignal, error)
}

// SerpSource reports search-result competition and "people also ask" presence
type SerpSource interface {
	SerpFor(ctx context.Context, keyword string) (*SerpSignal, error)
}

// SentimentSource reports community sentiment and intent
type SentimentSource interface {
	SentimentFor(ctx context.Context, keyword string) (*SentimentSignal, error)
}

// KeywordLister is implemented by sources that can enumerate tracked keywords
type KeywordLister interface {
	Keywords(ctx context.Context) ([]string, error)
}
