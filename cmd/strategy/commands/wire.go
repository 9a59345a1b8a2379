package commands

import (
	"context"
	"fmt"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/internal/experiment"
	"github.com/wonny/contentpulse/internal/external/community"
	"github.com/wonny/contentpulse/internal/external/serp"
	"github.com/wonny/contentpulse/internal/external/trends"
	"github.com/wonny/contentpulse/internal/opportunity"
	"github.com/wonny/contentpulse/internal/performance"
	"github.com/wonny/contentpulse/internal/publish"
	"github.com/wonny/contentpulse/internal/report"
	"github.com/wonny/contentpulse/internal/scheduler"
	"github.com/wonny/contentpulse/internal/scheduler/jobs"
	"github.com/wonny/contentpulse/internal/store/memory"
	"github.com/wonny/contentpulse/internal/strategyconfig"
	"github.com/wonny/contentpulse/pkg/config"
	"github.com/wonny/contentpulse/pkg/database"
	"github.com/wonny/contentpulse/pkg/httputil"
	"github.com/wonny/contentpulse/pkg/logger"
	"github.com/wonny/contentpulse/pkg/redis"
)

const redisPrefix = "strategy"

// repositories is the storage backend every component is built on
type repositories struct {
	configs     contracts.StrategyConfigRepository
	posts       contracts.PostRepository
	metrics     contracts.MetricsRepository
	performance contracts.PerformanceRepository
	opportunity contracts.OpportunityRepository
	experiments contracts.ExperimentRepository
	reports     contracts.ReportRepository
}

// app holds the wired engine for one CLI invocation
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB // nil in --memory mode
	redis *redis.Client

	configs   *strategyconfig.Store
	scorer    *performance.Scorer
	calc      *opportunity.Calculator
	engine    *experiment.Engine
	publisher *publish.Scheduler
	reporter  *report.Generator
}

// newApp loads config and wires every component
// ⭐ SSOT: 컴포넌트 조립은 여기서만
func newApp(ctx context.Context) (*app, error) {
	load := config.Load
	if memoryMode {
		load = config.LoadLocal
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	a.redis, err = redis.New(cfg.Redis, redisPrefix)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.NewDisabled()
	}
	cache := redis.NewCache(a.redis, log)
	limiter := redis.NewRateLimiter(a.redis)

	var repos repositories
	var signals *memory.Signals
	if memoryMode {
		store := memory.NewStore()
		signals = memory.NewSignals()
		repos = repositories{store, store, store, store, store, store, store}
		log.Warn("Running against the in-process store; nothing is persisted")
	} else {
		a.db, err = database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		perfRepo := performance.NewRepository(a.db.Pool)
		repos = repositories{
			configs:     strategyconfig.NewRepository(a.db.Pool),
			posts:       perfRepo,
			metrics:     perfRepo,
			performance: perfRepo,
			opportunity: opportunity.NewRepository(a.db.Pool),
			experiments: experiment.NewRepository(a.db.Pool),
			reports:     report.NewRepository(a.db.Pool),
		}
	}

	defaults, err := strategyconfig.LoadDefaults(cfg.Engine.StrategyDefaultsPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load strategy defaults: %w", err)
	}

	a.configs = strategyconfig.NewStore(repos.configs, cache, defaults, log)
	a.scorer = performance.NewScorer(a.configs, repos.posts, repos.metrics, repos.performance,
		performance.DefaultAnchors(), cfg.Engine.ScoringBatchSize, log)
	a.calc = opportunity.NewCalculator(a.configs, repos.opportunity, signalSources(cfg, log, limiter, signals), log)
	a.engine = experiment.NewEngine(repos.experiments, log)
	a.publisher = publish.NewScheduler(repos.posts, cfg.Engine.PublishBatchLimit, log)
	a.reporter = report.NewGenerator(a.configs, repos.performance, repos.opportunity, repos.experiments,
		repos.reports, cache, report.Options{
			TopN:                cfg.Engine.ReportTopN,
			OpportunityMinScore: cfg.Engine.ReportOpportunityMin,
			Location:            cfg.Location(),
		}, log)

	return a, nil
}

// signalSources builds HTTP clients for configured providers. In memory mode
// unconfigured providers fall back to the (empty) in-process signal table.
func signalSources(cfg *config.Config, log *logger.Logger, limiter *redis.RateLimiter, fallback *memory.Signals) opportunity.Sources {
	var src opportunity.Sources
	if fallback != nil {
		src = opportunity.Sources{Trend: fallback, Serp: fallback, Sentiment: fallback, Keywords: fallback}
	}

	if cfg.Trends.BaseURL != "" {
		hc := httputil.ForProvider("trends", cfg.Trends, limiter, log)
		tc := trends.NewClient(cfg.Trends.BaseURL, hc, log)
		src.Trend = tc
		src.Keywords = tc
	}

	if cfg.Serp.BaseURL != "" {
		hc := httputil.ForProvider("serp", cfg.Serp, limiter, log)
		src.Serp = serp.NewClient(cfg.Serp.BaseURL, hc, log)
	}

	if cfg.Community.BaseURL != "" {
		hc := httputil.New(log).WithHeader("X-API-Key", cfg.Community.APIKey)
		src.Sentiment = community.NewClient(cfg.Community, hc, log)
	}

	return src
}

// jobList returns the standard scheduler jobs
func (a *app) jobList() []scheduler.Job {
	return jobs.All(jobs.Components{
		Scorer:      a.scorer,
		Opportunity: a.calc,
		Publisher:   a.publisher,
		Reporter:    a.reporter,
	}, a.cfg.Scheduler)
}

// newScheduler builds a scheduler with every job registered
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.Options{
		MaxRetries: a.cfg.Scheduler.MaxRetries,
		RetryDelay: a.cfg.Scheduler.RetryDelay,
	})
	if err := jobs.Register(sched, a.jobList()); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}
	return sched, nil
}

// health checks the database (when there is one) and Redis
func (a *app) health(ctx context.Context) error {
	if a.db != nil {
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if !status.SchemaReady {
			return fmt.Errorf("database schema missing, run `strategy db migrate`")
		}
	}
	return a.redis.Ping(ctx)
}

// Close releases the database pool and Redis connection
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
