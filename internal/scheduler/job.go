package scheduler

import (
	"context"
	"time"
)

// Job is one engine batch the scheduler can fire on a cron expression or on demand.
// Run returns the batch summary (scored counts, publish results, a report) which is
// kept in history and forwarded to result listeners.
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) (interface{}, error)
	// Schedule is a six-field cron expression, e.g. "0 15 * * * *" or "@every 1m"
	Schedule() string
}

// JobResult records one run of a job, including its retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	Trigger   string        `json:"trigger"` // cron | manual
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Output    interface{}   `json:"output,omitempty"`
}

// JobStats summarises the retained history of one job
type JobStats struct {
	JobName      string        `json:"job_name"`
	Schedule     string        `json:"schedule"`
	Running      bool          `json:"running"`
	TotalRuns    int           `json:"total_runs"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	SuccessRate  float64       `json:"success_rate"`
	AvgDuration  time.Duration `json:"avg_duration"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	LastSuccess  *time.Time    `json:"last_success,omitempty"`
	LastFailure  *time.Time    `json:"last_failure,omitempty"`
	NextRun      *time.Time    `json:"next_run,omitempty"`
}

const historyLimit = 100

// runHistory is a fixed-size ring of the most recent results. Not safe for
// concurrent use; the scheduler guards it with its own mutex.
type runHistory struct {
	buf  []JobResult
	next int
	full bool
}

func newRunHistory(size int) *runHistory {
	if size <= 0 {
		size = historyLimit
	}
	return &runHistory{buf: make([]JobResult, size)}
}

func (h *runHistory) add(r JobResult) {
	h.buf[h.next] = r
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

func (h *runHistory) len() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// latest returns up to n results, oldest first
func (h *runHistory) latest(n int) []JobResult {
	size := h.len()
	if n > size {
		n = size
	}
	if n <= 0 {
		return []JobResult{}
	}

	out := make([]JobResult, n)
	start := h.next - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(start+i+len(h.buf))%len(h.buf)]
	}
	return out
}

func (h *runHistory) stats() JobStats {
	all := h.latest(h.len())
	st := JobStats{TotalRuns: len(all)}
	if len(all) == 0 {
		return st
	}

	var total time.Duration
	for i := range all {
		r := all[i]
		total += r.Duration
		st.LastRun = &r.StartTime
		if r.Success {
			st.SuccessCount++
			st.LastSuccess = &r.StartTime
		} else {
			st.FailureCount++
			st.LastFailure = &r.StartTime
		}
	}
	st.SuccessRate = float64(st.SuccessCount) / float64(len(all))
	st.AvgDuration = total / time.Duration(len(all))
	return st
}
