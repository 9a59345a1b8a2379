// Package jobs adapts strategy engine components to scheduler.Job.
package jobs

import (
	"context"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/scheduler"
	"github.com/wonny/contentpulse/pkg/config"
)

// Job names
const (
	PerformanceScoring = "performance_scoring"
	OpportunityRefresh = "opportunity_refresh"
	PublishDue         = "publish_due"
	StrategyReport     = "strategy_report"
)

// Runner is anything with a batch entry point
type Runner[T any] interface {
	Run(ctx context.Context) (T, error)
}

// componentJob wraps a Runner under a fixed name and schedule
type componentJob[T any] struct {
	name     string
	schedule string
	runner   Runner[T]
}

func (j *componentJob[T]) Name() string     { return j.name }
func (j *componentJob[T]) Schedule() string { return j.schedule }

func (j *componentJob[T]) Run(ctx context.Context) (interface{}, error) {
	return j.runner.Run(ctx)
}

// New wraps any Runner as a scheduler job
func New[T any](name, schedule string, r Runner[T]) scheduler.Job {
	return &componentJob[T]{name: name, schedule: schedule, runner: r}
}

// Components are the batch entry points driven by the scheduler
type Components struct {
	Scorer      Runner[*contracts.ScoreResult]
	Opportunity Runner[*contracts.OpportunityResult]
	Publisher   Runner[*contracts.PublishResult]
	Reporter    Runner[*contracts.StrategyReport]
}

// All builds the standard job set from the scheduler cron config.
// Nil components are left out.
func All(c Components, cfg config.SchedulerConfig) []scheduler.Job {
	var out []scheduler.Job
	if c.Scorer != nil {
		out = append(out, New(PerformanceScoring, cfg.ScoringCron, c.Scorer))
	}
	if c.Opportunity != nil {
		out = append(out, New(OpportunityRefresh, cfg.OpportunityCron, c.Opportunity))
	}
	if c.Publisher != nil {
		out = append(out, New(PublishDue, cfg.PublishCron, c.Publisher))
	}
	if c.Reporter != nil {
		out = append(out, New(StrategyReport, cfg.ReportCron, c.Reporter))
	}
	return out
}

// Register adds every job to s
func Register(s *scheduler.Scheduler, list []scheduler.Job) error {
	for _, j := range list {
		if err := s.AddJob(j); err != nil {
			return err
		}
	}
	return nil
}
