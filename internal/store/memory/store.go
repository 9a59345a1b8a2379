// Package memory is an in-process implementation of every engine repository.
// Each method holds the store mutex for its whole body, which gives the same
// single-call atomicity the Postgres repositories get from ON CONFLICT and
// conditional UPDATE statements.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Store holds every engine table in maps guarded by one RWMutex
type Store struct {
	mu sync.RWMutex

	configs       map[int]contracts.StrategyConfig
	posts         map[string]contracts.Post
	metrics       map[string]map[string]contracts.PostMetrics // post -> day -> row
	revenue       map[string]map[string]contracts.PostRevenue
	performance   map[string]contracts.PostPerformance
	opportunities map[string]contracts.Opportunity // id -> row
	keywordIndex  map[string]string                // keyword -> id
	experiments   map[string]contracts.Experiment
	reports       map[string]contracts.StrategyReport // week_start -> row
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{
		configs:       make(map[int]contracts.StrategyConfig),
		posts:         make(map[string]contracts.Post),
		metrics:       make(map[string]map[string]contracts.PostMetrics),
		revenue:       make(map[string]map[string]contracts.PostRevenue),
		performance:   make(map[string]contracts.PostPerformance),
		opportunities: make(map[string]contracts.Opportunity),
		keywordIndex:  make(map[string]string),
		experiments:   make(map[string]contracts.Experiment),
		reports:       make(map[string]contracts.StrategyReport),
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func normalizeKeyword(k string) string {
	return strings.ToLower(strings.Join(strings.Fields(k), " "))
}

// ---- strategy configs ----

func (s *Store) currentLocked() *contracts.StrategyConfig {
	best := -1
	for v := range s.configs {
		if v > best {
			best = v
		}
	}
	if best < 0 {
		return nil
	}
	cfg := cloneConfig(s.configs[best])
	return &cfg
}

// Current returns the highest config version, or nil when none exists
func (s *Store) Current(_ context.Context) (*contracts.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked(), nil
}

// CreateInitial stores cfg as version 1 unless a config already exists, and returns the current config
func (s *Store) CreateInitial(_ context.Context, cfg contracts.StrategyConfig) (*contracts.StrategyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.currentLocked(); current != nil {
		return current, nil
	}
	cfg.Version = 1
	s.configs[1] = cloneConfig(cfg)
	return s.currentLocked(), nil
}

// InsertVersion stores cfg; false means its version is already taken
func (s *Store) InsertVersion(_ context.Context, cfg contracts.StrategyConfig) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[cfg.Version]; exists {
		return false, nil
	}
	s.configs[cfg.Version] = cloneConfig(cfg)
	return true, nil
}

// History lists config versions newest first
func (s *Store) History(_ context.Context, limit int) ([]contracts.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.StrategyConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cloneConfig(cfg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return capList(out, limit), nil
}

// ---- posts ----

// PutPost inserts or replaces a post (seeding; editorial CRUD lives elsewhere)
func (s *Store) PutPost(p contracts.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
}

// ListPublished pages published posts ordered by ID, starting after afterID
func (s *Store) ListPublished(_ context.Context, afterID string, limit int) ([]contracts.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Post, 0)
	for _, p := range s.posts {
		if p.Status == contracts.PostPublished && p.ID > afterID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return capList(out, limit), nil
}

// ListScheduledDue returns scheduled posts whose publish time is at or before now, oldest first
func (s *Store) ListScheduledDue(_ context.Context, now time.Time, limit int) ([]contracts.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Post, 0)
	for _, p := range s.posts {
		if p.IsDue(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledFor.Equal(*out[j].ScheduledFor) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledFor.Before(*out[j].ScheduledFor)
	})
	return capList(out, limit), nil
}

// GetPost returns a post or nil
func (s *Store) GetPost(_ context.Context, id string) (*contracts.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// TransitionStatus moves a post from one status to another; false when it is not in from
func (s *Store) TransitionStatus(_ context.Context, id string, from, to contracts.PostStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = at
	if to == contracts.PostPublished {
		published := at
		p.PublishedAt = &published
	}
	s.posts[id] = p
	return true, nil
}

// ---- metrics & revenue ----

// LatestMetrics returns the most recent daily metrics row for a post, or nil
func (s *Store) LatestMetrics(_ context.Context, postID string) (*contracts.PostMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *contracts.PostMetrics
	for _, m := range s.metrics[postID] {
		m := m
		if latest == nil || m.Date.After(latest.Date) {
			latest = &m
		}
	}
	return latest, nil
}

// LatestRevenue returns the most recent daily revenue row for a post, or nil
func (s *Store) LatestRevenue(_ context.Context, postID string) (*contracts.PostRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *contracts.PostRevenue
	for _, r := range s.revenue[postID] {
		r := r
		if latest == nil || r.Date.After(latest.Date) {
			latest = &r
		}
	}
	return latest, nil
}

// UpsertMetrics replaces the metrics row for (post, day)
func (s *Store) UpsertMetrics(_ context.Context, m contracts.PostMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics[m.PostID] == nil {
		s.metrics[m.PostID] = make(map[string]contracts.PostMetrics)
	}
	s.metrics[m.PostID][dayKey(m.Date)] = m
	return nil
}

// UpsertRevenue replaces the revenue row for (post, day)
func (s *Store) UpsertRevenue(_ context.Context, r contracts.PostRevenue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revenue[r.PostID] == nil {
		s.revenue[r.PostID] = make(map[string]contracts.PostRevenue)
	}
	s.revenue[r.PostID][dayKey(r.Date)] = r
	return nil
}

// ---- performance ----

// UpsertPerformance replaces a post's performance record
func (s *Store) UpsertPerformance(_ context.Context, p contracts.PostPerformance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performance[p.PostID] = p
	return nil
}

// GetPerformance returns a post's performance record, or nil
func (s *Store) GetPerformance(_ context.Context, postID string) (*contracts.PostPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.performance[postID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListPerformance lists performance records by success score in the given order
func (s *Store) ListPerformance(_ context.Context, order contracts.SortOrder, limit int) ([]contracts.PostPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.PostPerformance, 0, len(s.performance))
	for _, p := range s.performance {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuccessScore == out[j].SuccessScore {
			return out[i].PostID < out[j].PostID
		}
		if order == contracts.SortBottom {
			return out[i].SuccessScore < out[j].SuccessScore
		}
		return out[i].SuccessScore > out[j].SuccessScore
	})
	return capList(out, limit), nil
}

// AverageSuccessScore returns the mean success score and the number of scored posts
func (s *Store) AverageSuccessScore(_ context.Context) (float64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.performance) == 0 {
		return 0, 0, nil
	}
	total := 0.0
	for _, p := range s.performance {
		total += p.SuccessScore
	}
	return total / float64(len(s.performance)), len(s.performance), nil
}

// ---- opportunities ----

// UpsertOpportunity inserts or refreshes the opportunity for a keyword, keeping its ID and status
func (s *Store) UpsertOpportunity(_ context.Context, o contracts.Opportunity) (*contracts.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKeyword(o.Keyword)
	if id, ok := s.keywordIndex[key]; ok {
		existing := s.opportunities[id]
		existing.CompositeScore = o.CompositeScore
		existing.Signals = o.Signals
		existing.SubScores = o.SubScores
		existing.UpdatedAt = o.UpdatedAt
		s.opportunities[id] = existing
		return &existing, nil
	}

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = contracts.OpportunityPending
	}
	s.opportunities[o.ID] = o
	s.keywordIndex[key] = o.ID
	return &o, nil
}

// GetOpportunity returns an opportunity or nil
func (s *Store) GetOpportunity(_ context.Context, id string) (*contracts.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.opportunities[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// ListKeywords returns every keyword with a stored opportunity
func (s *Store) ListKeywords(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.opportunities))
	for _, o := range s.opportunities {
		out = append(out, o.Keyword)
	}
	sort.Strings(out)
	return out, nil
}

// ListByStatus returns opportunities in status scoring at least minScore, best first
func (s *Store) ListByStatus(_ context.Context, status contracts.OpportunityStatus, minScore float64, limit int) ([]contracts.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Opportunity, 0)
	for _, o := range s.opportunities {
		if o.Status == status && o.CompositeScore >= minScore {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompositeScore == out[j].CompositeScore {
			return out[i].Keyword < out[j].Keyword
		}
		return out[i].CompositeScore > out[j].CompositeScore
	})
	return capList(out, limit), nil
}

// CountByStatus counts opportunities in status
func (s *Store) CountByStatus(_ context.Context, status contracts.OpportunityStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.opportunities {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

// TransitionOpportunity moves an opportunity from one status to another; false when it is not in from
func (s *Store) TransitionOpportunity(_ context.Context, id string, from, to contracts.OpportunityStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.opportunities[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	s.opportunities[id] = o
	return true, nil
}

// ---- experiments ----

// CreateExperiment stores a new experiment
func (s *Store) CreateExperiment(_ context.Context, e contracts.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[e.ID] = cloneExperiment(e)
	return nil
}

// GetExperiment returns an experiment or nil
func (s *Store) GetExperiment(_ context.Context, id string) (*contracts.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.experiments[id]
	if !ok {
		return nil, nil
	}
	e = cloneExperiment(e)
	return &e, nil
}

// ListExperiments lists experiments, optionally filtered by status, newest first
func (s *Store) ListExperiments(_ context.Context, status contracts.ExperimentStatus) ([]contracts.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Experiment, 0)
	for _, e := range s.experiments {
		if status == "" || e.Status == status {
			out = append(out, cloneExperiment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FinishExperiment moves a running experiment to a terminal status; false when it is not running
func (s *Store) FinishExperiment(_ context.Context, id string, to contracts.ExperimentStatus, winnerVariantID *string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.experiments[id]
	if !ok || e.Status != contracts.ExperimentRunning {
		return false, nil
	}
	e.Status = to
	if winnerVariantID != nil {
		w := *winnerVariantID
		e.WinnerVariantID = &w
	}
	finished := at
	e.FinishedAt = &finished
	e.UpdatedAt = at
	s.experiments[id] = e
	return true, nil
}

// UpdateVariantMetrics replaces one variant's metrics on a running experiment
func (s *Store) UpdateVariantMetrics(_ context.Context, id, variantID string, m contracts.VariantMetrics, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.experiments[id]
	if !ok || e.Status != contracts.ExperimentRunning {
		return false, nil
	}
	e = cloneExperiment(e)
	v, ok := e.Variant(variantID)
	if !ok {
		return false, nil
	}
	v.Metrics = m
	e.UpdatedAt = at
	s.experiments[id] = e
	return true, nil
}

// ListFinishedSince returns terminal experiments finished at or after since
func (s *Store) ListFinishedSince(_ context.Context, since time.Time) ([]contracts.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.Experiment, 0)
	for _, e := range s.experiments {
		if e.Status.IsTerminal() && e.FinishedAt != nil && !e.FinishedAt.Before(since) {
			out = append(out, cloneExperiment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt.After(*out[j].FinishedAt) })
	return out, nil
}

// ---- reports ----

// UpsertReport stores a report, replacing any report for the same week
func (s *Store) UpsertReport(_ context.Context, r contracts.StrategyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[dayKey(r.WeekStart)] = r
	return nil
}

// GetReport returns the report for the week starting weekStart, or nil
func (s *Store) GetReport(_ context.Context, weekStart time.Time) (*contracts.StrategyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[dayKey(weekStart)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// PreviousReport returns the newest report whose week starts before the given date, or nil
func (s *Store) PreviousReport(_ context.Context, before time.Time) (*contracts.StrategyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := dayKey(before)
	var best *contracts.StrategyReport
	for key, r := range s.reports {
		r := r
		if key < cutoff && (best == nil || r.WeekStart.After(best.WeekStart)) {
			best = &r
		}
	}
	return best, nil
}

// LatestReport returns the newest report, or nil
func (s *Store) LatestReport(_ context.Context) (*contracts.StrategyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *contracts.StrategyReport
	for _, r := range s.reports {
		r := r
		if best == nil || r.WeekStart.After(best.WeekStart) {
			best = &r
		}
	}
	return best, nil
}

// ReportCount returns the number of stored reports (tests)
func (s *Store) ReportCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// ---- helpers ----

func capList[T any](list []T, limit int) []T {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

func cloneConfig(cfg contracts.StrategyConfig) contracts.StrategyConfig {
	cfg.ContentRules.RequiredSections = append([]string(nil), cfg.ContentRules.RequiredSections...)
	return cfg
}

func cloneExperiment(e contracts.Experiment) contracts.Experiment {
	variants := make([]contracts.Variant, len(e.Variants))
	for i, v := range e.Variants {
		delta := make(map[string]string, len(v.ContentDelta))
		for k, val := range v.ContentDelta {
			delta[k] = val
		}
		v.ContentDelta = delta
		variants[i] = v
	}
	e.Variants = variants
	if e.WinnerVariantID != nil {
		w := *e.WinnerVariantID
		e.WinnerVariantID = &w
	}
	return e
}
