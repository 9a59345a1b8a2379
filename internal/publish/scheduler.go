// Package publish promotes due scheduled posts to published.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/logger"
)

// DefaultLimit is the batch cap when the caller gives none
const DefaultLimit = 10

// Scheduler is the PublishScheduler. It holds no locks: a post that was
// already transitioned no longer matches the due query, and each write
// re-checks that the post is still scheduled.
type Scheduler struct {
	posts  contracts.PostRepository
	limit  int
	logger *logger.Logger
	now    func() time.Time
}

// NewScheduler creates a publish scheduler; limit <= 0 means DefaultLimit
func NewScheduler(posts contracts.PostRepository, limit int, log *logger.Logger) *Scheduler {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Scheduler{
		posts:  posts,
		limit:  limit,
		logger: log.WithComponent("publish"),
		now:    time.Now,
	}
}

// Run implements the scheduler job entry point
func (s *Scheduler) Run(ctx context.Context) (*contracts.PublishResult, error) {
	return s.PublishDueScheduledPosts(ctx, s.limit)
}

// PublishDueScheduledPosts publishes at most limit due posts, oldest due first.
// A post that another trigger published in between is counted as Skipped.
func (s *Scheduler) PublishDueScheduledPosts(ctx context.Context, limit int) (*contracts.PublishResult, error) {
	if limit <= 0 {
		limit = s.limit
	}

	now := s.now().UTC()
	due, err := s.posts.ListScheduledDue(ctx, now, limit)
	if err != nil {
		return nil, contracts.WrapStore("list due posts", err)
	}

	result := &contracts.PublishResult{Success: true, Errors: make([]string, 0)}

	for _, post := range due {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("run interrupted: %v", err))
			break
		}

		// the due query may lag behind the row
		if !post.IsDue(now) {
			result.Skipped++
			continue
		}

		ok, err := s.posts.TransitionStatus(ctx, post.ID, contracts.PostScheduled, contracts.PostPublished, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("post %s: %v", post.ID, err))
			s.logger.WithError(err).WithField("post_id", post.ID).Warn("publish failed")
			continue
		}
		if !ok {
			result.Skipped++
			s.logger.WithField("post_id", post.ID).Debug("post no longer scheduled, skipped")
			continue
		}

		result.Published++
		s.logger.WithFields(map[string]interface{}{
			"post_id":       post.ID,
			"slug":          post.Slug,
			"scheduled_for": post.ScheduledFor,
		}).Info("post published")
	}

	s.logger.WithFields(map[string]interface{}{
		"due":       len(due),
		"published": result.Published,
		"skipped":   result.Skipped,
		"errors":    len(result.Errors),
	}).Info("publish run completed")

	return result, nil
}
