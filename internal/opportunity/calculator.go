// Package opportunity merges market signals per keyword into ranked,
// stateful content opportunities.
package opportunity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/logger"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// ConfigSource yields the current strategy config for a run
type ConfigSource interface {
	GetCurrentConfig(ctx context.Context) (*contracts.StrategyConfig, error)
}

// Sources groups the signal providers. Any of them may be nil.
type Sources struct {
	Trend     contracts.TrendSource
	Serp      contracts.SerpSource
	Sentiment contracts.SentimentSource
	// Keywords enumerates tracked keywords when a run is given none
	Keywords contracts.KeywordLister
}

// Calculator is the OpportunityCalculator
// ⭐ SSOT: Opportunity 점수/상태 전이는 여기서만
type Calculator struct {
	configs ConfigSource
	repo    contracts.OpportunityRepository
	sources Sources
	logger  *logger.Logger
	now     func() time.Time
}

// NewCalculator creates a calculator
func NewCalculator(configs ConfigSource, repo contracts.OpportunityRepository, sources Sources, log *logger.Logger) *Calculator {
	return &Calculator{
		configs: configs,
		repo:    repo,
		sources: sources,
		logger:  log.WithComponent("opportunity"),
		now:     time.Now,
	}
}

// Run implements the scheduler job entry point
func (c *Calculator) Run(ctx context.Context) (*contracts.OpportunityResult, error) {
	return c.CalculateOpportunities(ctx, nil)
}

// CalculateOpportunities rescores the given keywords, or every known keyword
// when none are given. A keyword with no signal data is skipped, not scored
// as zero. Existing statuses survive the refresh.
func (c *Calculator) CalculateOpportunities(ctx context.Context, keywords []string) (*contracts.OpportunityResult, error) {
	for i, k := range keywords {
		if NormalizeKeyword(k) == "" {
			return nil, contracts.NewValidationError(fmt.Sprintf("keywords[%d]", i), "keyword is required")
		}
	}

	cfg, err := c.configs.GetCurrentConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy config: %w", err)
	}

	result := &contracts.OpportunityResult{Success: true, Errors: make([]string, 0)}

	if len(keywords) == 0 {
		keywords, err = c.knownKeywords(ctx, result)
		if err != nil {
			return nil, err
		}
	}

	for _, keyword := range dedupe(keywords) {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("run interrupted: %v", err))
			break
		}

		scored, err := c.scoreKeyword(ctx, keyword, cfg.OpportunityWeights, result)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("keyword %q: %v", keyword, err))
			c.logger.WithError(err).WithField("keyword", keyword).Warn("opportunity scoring failed")
			continue
		}
		if scored {
			result.Scored++
		} else {
			result.Skipped++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"scored":  result.Scored,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
	}).Info("opportunity calculation completed")

	return result, nil
}

// knownKeywords unions the stored keywords with the ones the sources track
func (c *Calculator) knownKeywords(ctx context.Context, result *contracts.OpportunityResult) ([]string, error) {
	stored, err := c.repo.ListKeywords(ctx)
	if err != nil {
		return nil, contracts.WrapStore("list keywords", err)
	}

	keywords := append([]string(nil), stored...)
	if c.sources.Keywords != nil {
		tracked, err := c.sources.Keywords.Keywords(ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("list tracked keywords: %v", err))
		} else {
			keywords = append(keywords, tracked...)
		}
	}
	return keywords, nil
}

// scoreKeyword returns scored=false when no source has data.
// A failing source is reported in result.Errors and treated as absent.
func (c *Calculator) scoreKeyword(ctx context.Context, keyword string, w contracts.OpportunityWeights, result *contracts.OpportunityResult) (bool, error) {
	signals, sourceErrs := c.gather(ctx, keyword)
	for _, err := range sourceErrs {
		result.Errors = append(result.Errors, fmt.Sprintf("keyword %q: %v", keyword, err))
	}

	sub := SubScoresFor(signals)
	composite, ok := Composite(sub, w)
	if !ok {
		c.logger.WithField("keyword", keyword).Debug("no signals, skipping keyword")
		return false, nil
	}

	now := c.now().UTC()
	_, err := c.repo.UpsertOpportunity(ctx, contracts.Opportunity{
		ID:             uuid.New().String(),
		Keyword:        keyword,
		CompositeScore: composite,
		Signals:        signals,
		SubScores:      sub,
		Status:         contracts.OpportunityPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return false, contracts.WrapStore("upsert opportunity", err)
	}
	return true, nil
}

// gather fetches the three signals concurrently
func (c *Calculator) gather(ctx context.Context, keyword string) (contracts.OpportunitySignals, []error) {
	var signals contracts.OpportunitySignals
	var trendErr, serpErr, sentimentErr error

	var g errgroup.Group
	if c.sources.Trend != nil {
		g.Go(func() error {
			signals.Trend, trendErr = c.sources.Trend.TrendFor(ctx, keyword)
			return nil
		})
	}
	if c.sources.Serp != nil {
		g.Go(func() error {
			signals.Serp, serpErr = c.sources.Serp.SerpFor(ctx, keyword)
			return nil
		})
	}
	if c.sources.Sentiment != nil {
		g.Go(func() error {
			signals.Sentiment, sentimentErr = c.sources.Sentiment.SentimentFor(ctx, keyword)
			return nil
		})
	}
	_ = g.Wait()

	errs := make([]error, 0)
	if trendErr != nil {
		signals.Trend = nil
		errs = append(errs, fmt.Errorf("trend source: %w", trendErr))
	}
	if serpErr != nil {
		signals.Serp = nil
		errs = append(errs, fmt.Errorf("serp source: %w", serpErr))
	}
	if sentimentErr != nil {
		signals.Sentiment = nil
		errs = append(errs, fmt.Errorf("sentiment source: %w", sentimentErr))
	}
	return signals, errs
}

// GetTopOpportunities returns at most limit pending opportunities scoring at
// least minScore, best first. limit 0 means 10; limits outside [0,100] are a
// ValidationError.
func (c *Calculator) GetTopOpportunities(ctx context.Context, limit int, minScore float64) ([]contracts.Opportunity, error) {
	if limit < 0 || limit > maxTopLimit {
		return nil, contracts.NewValidationError("limit", "must be between 0 and %d, got %d", maxTopLimit, limit)
	}
	if limit == 0 {
		limit = defaultTopLimit
	}

	list, err := c.repo.ListByStatus(ctx, contracts.OpportunityPending, minScore, limit)
	if err != nil {
		return nil, contracts.WrapStore("list opportunities", err)
	}
	return list, nil
}

// GetOpportunity returns one opportunity with its signal snapshot
func (c *Calculator) GetOpportunity(ctx context.Context, id string) (*contracts.Opportunity, error) {
	o, err := c.repo.GetOpportunity(ctx, id)
	if err != nil {
		return nil, contracts.WrapStore("get opportunity", err)
	}
	if o == nil {
		return nil, contracts.NewNotFoundError("opportunity", id)
	}
	return o, nil
}

// MarkActioned moves a pending opportunity to actioned.
// Returns true when it is now actioned (including when it already was),
// false when it does not exist or was dismissed.
func (c *Calculator) MarkActioned(ctx context.Context, id string) (bool, error) {
	return c.transition(ctx, id, contracts.OpportunityActioned)
}

// Dismiss moves a pending opportunity to dismissed; same result rules as MarkActioned
func (c *Calculator) Dismiss(ctx context.Context, id string) (bool, error) {
	return c.transition(ctx, id, contracts.OpportunityDismissed)
}

func (c *Calculator) transition(ctx context.Context, id string, to contracts.OpportunityStatus) (bool, error) {
	o, err := c.repo.GetOpportunity(ctx, id)
	if err != nil {
		return false, contracts.WrapStore("get opportunity", err)
	}
	if o == nil {
		return false, nil
	}
	if o.Status == to {
		return true, nil
	}
	if !o.Status.CanTransitionTo(to) {
		return false, nil
	}

	ok, err := c.repo.TransitionOpportunity(ctx, id, o.Status, to, c.now().UTC())
	if err != nil {
		return false, contracts.WrapStore("transition opportunity", err)
	}
	if ok {
		c.logger.WithFields(map[string]interface{}{
			"id":      id,
			"keyword": o.Keyword,
			"status":  to,
		}).Info("opportunity status changed")
		return true, nil
	}

	// lost a race; the winner decides the answer
	current, err := c.repo.GetOpportunity(ctx, id)
	if err != nil {
		return false, contracts.WrapStore("get opportunity", err)
	}
	return current != nil && current.Status == to, nil
}

// NormalizeKeyword lowercases and collapses whitespace
func NormalizeKeyword(k string) string {
	return strings.ToLower(strings.Join(strings.Fields(k), " "))
}

func dedupe(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		n := NormalizeKeyword(k)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
