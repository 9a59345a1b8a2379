package contracts

// Lifecycle enums with explicit transition tables.
// ⭐ SSOT: 상태 전이 규칙은 여기서만 정의

// PostStatus is the editorial status of a post
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostLab       PostStatus = "lab"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
	PostArchived  PostStatus = "archived"
)

var postTransitions = map[PostStatus][]PostStatus{
	PostDraft:     {PostLab, PostScheduled, PostPublished, PostArchived},
	PostLab:       {PostDraft, PostScheduled, PostArchived},
	PostScheduled: {PostDraft, PostPublished, PostArchived},
	PostPublished: {PostArchived},
	PostArchived:  {PostDraft},
}

// Valid reports whether s is a known post status
func (s PostStatus) Valid() bool {
	_, ok := postTransitions[s]
	return ok
}

// CanTransitionTo reports whether s → next is a legal move
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	return contains(postTransitions[s], next)
}

// OpportunityStatus is the review status of an opportunity
type OpportunityStatus string

const (
	OpportunityPending   OpportunityStatus = "pending"
	OpportunityActioned  OpportunityStatus = "actioned"
	OpportunityDismissed OpportunityStatus = "dismissed"
)

var opportunityTransitions = map[OpportunityStatus][]OpportunityStatus{
	OpportunityPending:   {OpportunityActioned, OpportunityDismissed},
	OpportunityActioned:  nil,
	OpportunityDismissed: nil,
}

// Valid reports whether s is a known opportunity status
func (s OpportunityStatus) Valid() bool {
	_, ok := opportunityTransitions[s]
	return ok
}

// IsTerminal reports whether s allows no further transitions
func (s OpportunityStatus) IsTerminal() bool {
	return s.Valid() && len(opportunityTransitions[s]) == 0
}

// CanTransitionTo reports whether s → next is a legal move
func (s OpportunityStatus) CanTransitionTo(next OpportunityStatus) bool {
	return contains(opportunityTransitions[s], next)
}

// ExperimentStatus is the lifecycle state of an A/B experiment
type ExperimentStatus string

const (
	ExperimentRunning   ExperimentStatus = "running"
	ExperimentConcluded ExperimentStatus = "concluded"
	ExperimentCancelled ExperimentStatus = "cancelled"
)

var experimentTransitions = map[ExperimentStatus][]ExperimentStatus{
	ExperimentRunning:   {ExperimentConcluded, ExperimentCancelled},
	ExperimentConcluded: nil,
	ExperimentCancelled: nil,
}

// Valid reports whether s is a known experiment status
func (s ExperimentStatus) Valid() bool {
	_, ok := experimentTransitions[s]
	return ok
}

// IsTerminal reports whether s allows no further transitions
func (s ExperimentStatus) IsTerminal() bool {
	return s.Valid() && len(experimentTransitions[s]) == 0
}

// CanTransitionTo reports whether s → next is a legal move
func (s ExperimentStatus) CanTransitionTo(next ExperimentStatus) bool {
	return contains(experimentTransitions[s], next)
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
