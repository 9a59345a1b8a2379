// Package report builds weekly strategy snapshots and compares them week over week.
package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/strategyconfig"
	"github.com/wonny/contentpulse/pkg/logger"
	"github.com/wonny/contentpulse/pkg/redis"
)

const dateLayout = "2006-01-02"

// ConfigSource yields the current strategy config
type ConfigSource interface {
	GetCurrentConfig(ctx context.Context) (*contracts.StrategyConfig, error)
}

// Options tune report contents
type Options struct {
	TopN                int
	OpportunityMinScore float64
	Location            *time.Location // week boundaries; UTC when nil
}

// Generator is the StrategyReportGenerator, the only reader of the other components' outputs
// ⭐ SSOT: 주간 리포트 생성/조회는 여기서만
type Generator struct {
	configs     ConfigSource
	performance contracts.PerformanceRepository
	opportunity contracts.OpportunityRepository
	experiments contracts.ExperimentRepository
	reports     contracts.ReportRepository
	cache       *redis.Cache
	opts        Options
	logger      *logger.Logger
	now         func() time.Time
}

// NewGenerator creates a report generator. cache may be nil.
func NewGenerator(
	configs ConfigSource,
	performance contracts.PerformanceRepository,
	opportunity contracts.OpportunityRepository,
	experiments contracts.ExperimentRepository,
	reports contracts.ReportRepository,
	cache *redis.Cache,
	opts Options,
	log *logger.Logger,
) *Generator {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Generator{
		configs:     configs,
		performance: performance,
		opportunity: opportunity,
		experiments: experiments,
		reports:     reports,
		cache:       cache,
		opts:        opts,
		logger:      log.WithComponent("report"),
		now:         time.Now,
	}
}

// WeekStart returns the Monday of t's week in loc, as a UTC date
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7 // days since Monday
	monday := local.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// Run implements the scheduler job entry point: persist and compare
func (g *Generator) Run(ctx context.Context) (*contracts.StrategyReport, error) {
	return g.Generate(ctx, true, true)
}

// Generate assembles the snapshot for the current week. With compare it adds
// deltas against the newest earlier report (never modifying it); with persist
// it upserts the snapshot under its week start.
func (g *Generator) Generate(ctx context.Context, persist, compare bool) (*contracts.StrategyReport, error) {
	now := g.now()
	weekStart := WeekStart(now, g.opts.Location)
	report := &contracts.StrategyReport{
		WeekStart:   weekStart,
		GeneratedAt: now.UTC(),
	}

	var (
		cfg      *contracts.StrategyConfig
		top      []contracts.PostPerformance
		bottom   []contracts.PostPerformance
		avg      float64
		scored   int
		opps     []contracts.Opportunity
		pending  int
		finished []contracts.Experiment
		running  []contracts.Experiment
		previous *contracts.StrategyReport
	)

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		cfg, err = g.configs.GetCurrentConfig(gctx)
		return err
	})
	eg.Go(func() (err error) {
		top, err = g.performance.ListPerformance(gctx, contracts.SortTop, g.opts.TopN)
		return wrap("top performers", err)
	})
	eg.Go(func() (err error) {
		bottom, err = g.performance.ListPerformance(gctx, contracts.SortBottom, g.opts.TopN)
		return wrap("bottom performers", err)
	})
	eg.Go(func() (err error) {
		avg, scored, err = g.performance.AverageSuccessScore(gctx)
		return wrap("average success score", err)
	})
	eg.Go(func() (err error) {
		opps, err = g.opportunity.ListByStatus(gctx, contracts.OpportunityPending, g.opts.OpportunityMinScore, g.opts.TopN)
		return wrap("top opportunities", err)
	})
	eg.Go(func() (err error) {
		pending, err = g.opportunity.CountByStatus(gctx, contracts.OpportunityPending)
		return wrap("pending opportunities", err)
	})
	eg.Go(func() (err error) {
		// outcomes since the start of the previous week
		finished, err = g.experiments.ListFinishedSince(gctx, weekStart.AddDate(0, 0, -7))
		return wrap("finished experiments", err)
	})
	eg.Go(func() (err error) {
		running, err = g.experiments.ListExperiments(gctx, contracts.ExperimentRunning)
		return wrap("running experiments", err)
	})
	if compare {
		eg.Go(func() (err error) {
			previous, err = g.reports.PreviousReport(gctx, weekStart)
			return wrap("previous report", err)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load report inputs: %w", err)
	}

	report.Config = *cfg
	hash, err := strategyconfig.Hash(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash config: %w", err)
	}
	report.ConfigHash = hash

	report.TopPerformers = performers(top)
	report.BottomPerformers = performers(bottom)
	report.TopOpportunities = make([]contracts.OpportunitySummary, 0, len(opps))
	for _, o := range opps {
		report.TopOpportunities = append(report.TopOpportunities, contracts.OpportunitySummary{
			ID:             o.ID,
			Keyword:        o.Keyword,
			CompositeScore: o.CompositeScore,
		})
	}

	report.ExperimentOutcomes = make([]contracts.ExperimentOutcome, 0, len(finished))
	for _, e := range finished {
		report.ExperimentOutcomes = append(report.ExperimentOutcomes, contracts.ExperimentOutcome{
			ExperimentID:    e.ID,
			PostID:          e.PostID,
			Name:            e.Name,
			Status:          e.Status,
			WinnerVariantID: e.WinnerVariantID,
			FinishedAt:      e.FinishedAt,
		})
		switch e.Status {
		case contracts.ExperimentConcluded:
			report.Summary.ConcludedExperiments++
		case contracts.ExperimentCancelled:
			report.Summary.CancelledExperiments++
		}
	}

	report.Summary.AvgSuccessScore = avg
	report.Summary.ScoredPosts = scored
	report.Summary.PendingOpportunities = pending
	report.Summary.RunningExperiments = len(running)

	if compare && previous != nil {
		report.Comparison = Compare(report, previous)
	}

	if persist {
		if err := g.reports.UpsertReport(ctx, *report); err != nil {
			return nil, contracts.WrapStore("upsert report", err)
		}
		g.remember(ctx, report)
	}

	g.logger.WithFields(map[string]interface{}{
		"week_start":     weekStart.Format(dateLayout),
		"persist":        persist,
		"compared":       report.Comparison != nil,
		"config_version": cfg.Version,
	}).Info("strategy report generated")

	return report, nil
}

// Compare computes current minus previous; previous is only read
func Compare(current, previous *contracts.StrategyReport) *contracts.ReportComparison {
	return &contracts.ReportComparison{
		PreviousWeekStart:         previous.WeekStart,
		AvgSuccessScoreDelta:      current.Summary.AvgSuccessScore - previous.Summary.AvgSuccessScore,
		ScoredPostsDelta:          current.Summary.ScoredPosts - previous.Summary.ScoredPosts,
		PendingOpportunitiesDelta: current.Summary.PendingOpportunities - previous.Summary.PendingOpportunities,
		ConcludedExperimentsDelta: current.Summary.ConcludedExperiments - previous.Summary.ConcludedExperiments,
		ConfigVersionChanged:      current.Config.Version != previous.Config.Version,
	}
}

// GetLatestReport returns the newest stored report
func (g *Generator) GetLatestReport(ctx context.Context) (*contracts.StrategyReport, error) {
	r, err := redis.Load(ctx, g.cache, redis.LatestReportKey, redis.TTLLatestReport, g.reports.LatestReport)
	if err != nil {
		return nil, contracts.WrapStore("latest report", err)
	}
	if r == nil {
		return nil, contracts.NewNotFoundError("report", "latest")
	}
	return r, nil
}

// GetReport returns the report for the week starting on weekStart (YYYY-MM-DD).
// Any date inside the week resolves to that week's Monday.
func (g *Generator) GetReport(ctx context.Context, weekStart string) (*contracts.StrategyReport, error) {
	day, err := time.Parse(dateLayout, weekStart)
	if err != nil {
		return nil, contracts.NewValidationError("week_start", "must be YYYY-MM-DD, got %q", weekStart)
	}
	monday := WeekStart(day, time.UTC)
	key := monday.Format(dateLayout)

	r, err := redis.Load(ctx, g.cache, redis.ReportKey(key), redis.TTLReport,
		func(ctx context.Context) (*contracts.StrategyReport, error) {
			return g.reports.GetReport(ctx, monday)
		})
	if err != nil {
		return nil, contracts.WrapStore("get report", err)
	}
	if r == nil {
		return nil, contracts.NewNotFoundError("report", key)
	}
	return r, nil
}

func (g *Generator) remember(ctx context.Context, r *contracts.StrategyReport) {
	g.cache.Set(ctx, redis.ReportKey(r.WeekStart.Format(dateLayout)), r, redis.TTLReport)
	// an older week regenerated must not become "latest"
	g.cache.Delete(ctx, redis.LatestReportKey)
}

func performers(list []contracts.PostPerformance) []contracts.PerformerSummary {
	out := make([]contracts.PerformerSummary, 0, len(list))
	for _, p := range list {
		out = append(out, contracts.PerformerSummary{PostID: p.PostID, SuccessScore: p.SuccessScore})
	}
	return out
}

func wrap(op string, err error) error {
	return contracts.WrapStore(op, err)
}
