package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/contentpulse/pkg/logger"
)

// ErrJobRunning is returned when a manual trigger hits a job that is still running
var ErrJobRunning = errors.New("job is already running")

const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// Options configures retries for failed job runs
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*runHistory
	running map[string]bool
	mu      sync.RWMutex

	listeners []func(JobResult)

	ctx    context.Context
	cancel context.CancelFunc

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
}

// New creates a new scheduler
func New(log *logger.Logger, opts Options) *Scheduler {
	log = log.WithComponent("scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*runHistory),
		running:    make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// OnResult registers a listener called after every job run
func (s *Scheduler) OnResult(fn func(JobResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(s.ctx, job, TriggerCron)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.history[jobName] = newRunHistory(historyLimit)

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(s.entries[jobName])
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a job immediately (outside of schedule) and waits for its result
func (s *Scheduler) RunJob(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	result, ran := s.runJob(ctx, job, TriggerManual)
	if !ran {
		return nil, fmt.Errorf("%s: %w", jobName, ErrJobRunning)
	}
	return &result, nil
}

// runJob executes a job with retry logic. Overlapping runs of the same job
// are skipped and report ran=false.
func (s *Scheduler) runJob(ctx context.Context, job Job, trigger string) (result JobResult, ran bool) {
	jobName := job.Name()

	s.mu.Lock()
	if s.running[jobName] {
		s.mu.Unlock()
		s.logger.WithJob(jobName, trigger).Warn("Job still running, skipping")
		return JobResult{}, false
	}
	s.running[jobName] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, jobName)
		s.mu.Unlock()
	}()

	log := s.logger.WithJob(jobName, trigger)
	startTime := time.Now()
	log.Info("Job started")

	var (
		lastErr  error
		output   interface{}
		success  bool
		attempts int
	)

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		attempts++

		out, err := job.Run(ctx)
		if err == nil {
			output = out
			success = true
			break
		}

		lastErr = err
		log.WithError(err).WithField("attempt", attempt+1).Warn("Job execution failed")

		if attempt == s.maxRetries || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
		}
		if ctx.Err() != nil {
			break
		}
	}

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	result = JobResult{
		JobName:   jobName,
		Trigger:   trigger,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Attempts:  attempts,
		Success:   success,
		Output:    output,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.add(result)
	}
	listeners := append([]func(JobResult){}, s.listeners...)
	s.mu.Unlock()

	if success {
		log.WithField("duration", duration).Info("Job completed successfully")
	} else {
		log.WithFields(map[string]interface{}{
			"duration": duration,
			"attempts": attempts,
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}

	for _, fn := range listeners {
		fn(result)
	}

	return result, true
}

// GetJobHistory returns the latest n results for a job
func (s *Scheduler) GetJobHistory(jobName string, n int) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return history.latest(n), nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all registered jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))

	for jobName, job := range s.jobs {
		st := s.history[jobName].stats()
		st.JobName = jobName
		st.Schedule = job.Schedule()
		st.Running = s.running[jobName]

		if id, ok := s.entries[jobName]; ok {
			if next := s.cron.Entry(id).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}

		stats[jobName] = st
	}

	return stats
}

// cronLogger routes robfig/cron's internal logging into zerolog
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithPairs(keysAndValues...).Debug("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).WithPairs(keysAndValues...).Error("cron: " + msg)
}
