package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/logger"
)

// ConfigSource yields the current strategy config for a run
type ConfigSource interface {
	GetCurrentConfig(ctx context.Context) (*contracts.StrategyConfig, error)
}

// Scorer is the PerformanceScorer
// ⭐ SSOT: PostPerformance 는 여기서만 기록
type Scorer struct {
	configs   ConfigSource
	posts     contracts.PostRepository
	metrics   contracts.MetricsRepository
	perf      contracts.PerformanceRepository
	anchors   Anchors
	batchSize int
	logger    *logger.Logger
	now       func() time.Time
}

// NewScorer creates a scorer paging published posts batchSize at a time
func NewScorer(
	configs ConfigSource,
	posts contracts.PostRepository,
	metrics contracts.MetricsRepository,
	perf contracts.PerformanceRepository,
	anchors Anchors,
	batchSize int,
	log *logger.Logger,
) *Scorer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Scorer{
		configs:   configs,
		posts:     posts,
		metrics:   metrics,
		perf:      perf,
		anchors:   anchors,
		batchSize: batchSize,
		logger:    log.WithComponent("performance"),
		now:       time.Now,
	}
}

// Run implements the scheduler job entry point
func (s *Scorer) Run(ctx context.Context) (*contracts.ScoreResult, error) {
	return s.CalculateAll(ctx)
}

// CalculateAll rescores every published post with the current config.
// Per-post failures are collected in Errors and never abort the batch;
// only failing to load the config or the first page is returned as an error.
func (s *Scorer) CalculateAll(ctx context.Context) (*contracts.ScoreResult, error) {
	cfg, err := s.configs.GetCurrentConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy config: %w", err)
	}

	runAt := s.now().UTC()
	result := &contracts.ScoreResult{
		Success:       true,
		ConfigVersion: cfg.Version,
		Errors:        make([]string, 0),
	}

	afterID := ""
	for page := 0; ; page++ {
		posts, err := s.posts.ListPublished(ctx, afterID, s.batchSize)
		if err != nil {
			if page == 0 {
				return nil, contracts.WrapStore("list published posts", err)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("list published posts after %s: %v", afterID, err))
			break
		}

		for _, post := range posts {
			if err := ctx.Err(); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("run interrupted: %v", err))
				s.logSummary(result)
				return result, nil
			}

			if err := s.scorePost(ctx, post.ID, cfg, runAt); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("post %s: %v", post.ID, err))
				s.logger.WithError(err).WithField("post_id", post.ID).Warn("post scoring failed")
				continue
			}
			result.Processed++
		}

		if len(posts) < s.batchSize {
			break
		}
		afterID = posts[len(posts)-1].ID
	}

	s.logSummary(result)
	return result, nil
}

// CalculatePost rescores one post regardless of its status
func (s *Scorer) CalculatePost(ctx context.Context, postID string) (*contracts.PostPerformance, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, contracts.WrapStore("get post", err)
	}
	if post == nil {
		return nil, contracts.NewNotFoundError("post", postID)
	}

	cfg, err := s.configs.GetCurrentConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy config: %w", err)
	}
	if err := s.scorePost(ctx, postID, cfg, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.GetPerformance(ctx, postID)
}

func (s *Scorer) scorePost(ctx context.Context, postID string, cfg *contracts.StrategyConfig, runAt time.Time) error {
	m, err := s.metrics.LatestMetrics(ctx, postID)
	if err != nil {
		return contracts.WrapStore("latest metrics", err)
	}
	r, err := s.metrics.LatestRevenue(ctx, postID)
	if err != nil {
		return contracts.WrapStore("latest revenue", err)
	}

	scores := Compute(m, r, cfg.Weights, s.anchors)
	row := contracts.PostPerformance{
		PostID:            postID,
		SuccessScore:      scores.Success,
		EngagementScore:   scores.Engagement,
		SEOScore:          scores.SEO,
		MonetizationScore: scores.Monetization,
		ConfigVersion:     cfg.Version,
		LastCalculatedAt:  runAt,
	}
	if err := s.perf.UpsertPerformance(ctx, row); err != nil {
		return contracts.WrapStore("upsert performance", err)
	}
	return nil
}

func (s *Scorer) logSummary(result *contracts.ScoreResult) {
	s.logger.WithFields(map[string]interface{}{
		"processed":      result.Processed,
		"errors":         len(result.Errors),
		"config_version": result.ConfigVersion,
	}).Info("performance scoring completed")
}

// RecordMetrics validates and upserts one day of metrics
func (s *Scorer) RecordMetrics(ctx context.Context, m contracts.PostMetrics) error {
	m.Date = truncateDay(m.Date)
	if err := m.Validate(); err != nil {
		return err
	}
	return contracts.WrapStore("upsert metrics", s.metrics.UpsertMetrics(ctx, m))
}

// RecordRevenue validates and upserts one day of revenue
func (s *Scorer) RecordRevenue(ctx context.Context, r contracts.PostRevenue) error {
	r.Date = truncateDay(r.Date)
	if err := r.Validate(); err != nil {
		return err
	}
	return contracts.WrapStore("upsert revenue", s.metrics.UpsertRevenue(ctx, r))
}

// GetPerformance returns the stored score row for a post
func (s *Scorer) GetPerformance(ctx context.Context, postID string) (*contracts.PostPerformance, error) {
	p, err := s.perf.GetPerformance(ctx, postID)
	if err != nil {
		return nil, contracts.WrapStore("get performance", err)
	}
	if p == nil {
		return nil, contracts.NewNotFoundError("performance", postID)
	}
	return p, nil
}

// ListPerformance returns the top or bottom performers
func (s *Scorer) ListPerformance(ctx context.Context, order contracts.SortOrder, limit int) ([]contracts.PostPerformance, error) {
	switch order {
	case "":
		order = contracts.SortTop
	case contracts.SortTop, contracts.SortBottom:
	default:
		return nil, contracts.NewValidationError("order", "must be top or bottom, got %q", order)
	}
	if limit <= 0 {
		limit = 10
	}

	list, err := s.perf.ListPerformance(ctx, order, limit)
	if err != nil {
		return nil, contracts.WrapStore("list performance", err)
	}
	return list, nil
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
