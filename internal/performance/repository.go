package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Repository stores posts, daily metrics/revenue and performance rows.
// It implements PostRepository, MetricsRepository and PerformanceRepository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new performance repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ---- posts ----

const selectPost = `
	SELECT id, slug, title, status, scheduled_for, published_at, updated_at
	FROM content.posts
`

func scanPost(row pgx.Row) (*contracts.Post, error) {
	var p contracts.Post
	var status string
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &status, &p.ScheduledFor, &p.PublishedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = contracts.PostStatus(status)
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]contracts.Post, error) {
	defer rows.Close()

	posts := make([]contracts.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// ListPublished pages through published posts ordered by id
func (r *Repository) ListPublished(ctx context.Context, afterID string, limit int) ([]contracts.Post, error) {
	rows, err := r.pool.Query(ctx, selectPost+`
		WHERE status = 'published' AND id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query published posts: %w", err)
	}
	return collectPosts(rows)
}

// ListScheduledDue returns due scheduled posts, oldest first
func (r *Repository) ListScheduledDue(ctx context.Context, now time.Time, limit int) ([]contracts.Post, error) {
	rows, err := r.pool.Query(ctx, selectPost+`
		WHERE status = 'scheduled' AND scheduled_for <= $1
		ORDER BY scheduled_for, id
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due posts: %w", err)
	}
	return collectPosts(rows)
}

// GetPost returns a post or nil
func (r *Repository) GetPost(ctx context.Context, id string) (*contracts.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, selectPost+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// TransitionStatus is a conditional update; the WHERE status = from clause is
// the re-verification that keeps two overlapping publishers from both winning.
func (r *Repository) TransitionStatus(ctx context.Context, id string, from, to contracts.PostStatus, at time.Time) (bool, error) {
	query := `
		UPDATE content.posts
		SET status = $3,
		    updated_at = $4,
		    published_at = CASE WHEN $3 = 'published' THEN $4 ELSE published_at END
		WHERE id = $1 AND status = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, string(from), string(to), at)
	if err != nil {
		return false, fmt.Errorf("failed to transition post %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ---- metrics & revenue ----

// LatestMetrics returns the newest metrics row for a post
func (r *Repository) LatestMetrics(ctx context.Context, postID string) (*contracts.PostMetrics, error) {
	query := `
		SELECT post_id, metric_date, page_views, unique_visitors, avg_engaged_time,
		       bounce_rate, scroll_depth_avg, social_shares,
		       search_impressions, search_clicks, search_ctr, search_position
		FROM strategy.post_metrics
		WHERE post_id = $1
		ORDER BY metric_date DESC
		LIMIT 1
	`

	var m contracts.PostMetrics
	err := r.pool.QueryRow(ctx, query, postID).Scan(
		&m.PostID, &m.Date, &m.PageViews, &m.UniqueVisitors, &m.AvgEngagedTime,
		&m.BounceRate, &m.ScrollDepthAvg, &m.SocialShares,
		&m.SearchImpressions, &m.SearchClicks, &m.SearchCTR, &m.SearchPosition,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest metrics: %w", err)
	}
	return &m, nil
}

// LatestRevenue returns the newest revenue row for a post
func (r *Repository) LatestRevenue(ctx context.Context, postID string) (*contracts.PostRevenue, error) {
	query := `
		SELECT post_id, revenue_date, affiliate_clicks, conversions, revenue, epc
		FROM strategy.post_revenue
		WHERE post_id = $1
		ORDER BY revenue_date DESC
		LIMIT 1
	`

	var rev contracts.PostRevenue
	err := r.pool.QueryRow(ctx, query, postID).Scan(
		&rev.PostID, &rev.Date, &rev.AffiliateClicks, &rev.Conversions, &rev.Revenue, &rev.EPC,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest revenue: %w", err)
	}
	return &rev, nil
}

// UpsertMetrics writes one (post, day) metrics row
func (r *Repository) UpsertMetrics(ctx context.Context, m contracts.PostMetrics) error {
	query := `
		INSERT INTO strategy.post_metrics (
			post_id, metric_date, page_views, unique_visitors, avg_engaged_time,
			bounce_rate, scroll_depth_avg, social_shares,
			search_impressions, search_clicks, search_ctr, search_position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (post_id, metric_date) DO UPDATE SET
			page_views = EXCLUDED.page_views,
			unique_visitors = EXCLUDED.unique_visitors,
			avg_engaged_time = EXCLUDED.avg_engaged_time,
			bounce_rate = EXCLUDED.bounce_rate,
			scroll_depth_avg = EXCLUDED.scroll_depth_avg,
			social_shares = EXCLUDED.social_shares,
			search_impressions = EXCLUDED.search_impressions,
			search_clicks = EXCLUDED.search_clicks,
			search_ctr = EXCLUDED.search_ctr,
			search_position = EXCLUDED.search_position
	`
	_, err := r.pool.Exec(ctx, query,
		m.PostID, m.Date, m.PageViews, m.UniqueVisitors, m.AvgEngagedTime,
		m.BounceRate, m.ScrollDepthAvg, m.SocialShares,
		m.SearchImpressions, m.SearchClicks, m.SearchCTR, m.SearchPosition,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert metrics: %w", err)
	}
	return nil
}

// UpsertRevenue writes one (post, day) revenue row
func (r *Repository) UpsertRevenue(ctx context.Context, rev contracts.PostRevenue) error {
	query := `
		INSERT INTO strategy.post_revenue (
			post_id, revenue_date, affiliate_clicks, conversions, revenue, epc
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (post_id, revenue_date) DO UPDATE SET
			affiliate_clicks = EXCLUDED.affiliate_clicks,
			conversions = EXCLUDED.conversions,
			revenue = EXCLUDED.revenue,
			epc = EXCLUDED.epc
	`
	_, err := r.pool.Exec(ctx, query,
		rev.PostID, rev.Date, rev.AffiliateClicks, rev.Conversions, rev.Revenue, rev.EPC,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert revenue: %w", err)
	}
	return nil
}

// ---- performance ----

const selectPerformance = `
	SELECT post_id, success_score, engagement_score, seo_score, monetization_score,
	       config_version, last_calculated_at
	FROM strategy.post_performance
`

func scanPerformance(row pgx.Row) (*contracts.PostPerformance, error) {
	var p contracts.PostPerformance
	err := row.Scan(&p.PostID, &p.SuccessScore, &p.EngagementScore, &p.SEOScore,
		&p.MonetizationScore, &p.ConfigVersion, &p.LastCalculatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPerformance writes the derived row keyed by post_id
func (r *Repository) UpsertPerformance(ctx context.Context, p contracts.PostPerformance) error {
	query := `
		INSERT INTO strategy.post_performance (
			post_id, success_score, engagement_score, seo_score, monetization_score,
			config_version, last_calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (post_id) DO UPDATE SET
			success_score = EXCLUDED.success_score,
			engagement_score = EXCLUDED.engagement_score,
			seo_score = EXCLUDED.seo_score,
			monetization_score = EXCLUDED.monetization_score,
			config_version = EXCLUDED.config_version,
			last_calculated_at = EXCLUDED.last_calculated_at
	`
	_, err := r.pool.Exec(ctx, query,
		p.PostID, p.SuccessScore, p.EngagementScore, p.SEOScore, p.MonetizationScore,
		p.ConfigVersion, p.LastCalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert performance: %w", err)
	}
	return nil
}

// GetPerformance returns a post's row or nil
func (r *Repository) GetPerformance(ctx context.Context, postID string) (*contracts.PostPerformance, error) {
	p, err := scanPerformance(r.pool.QueryRow(ctx, selectPerformance+` WHERE post_id = $1`, postID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get performance: %w", err)
	}
	return p, nil
}

// ListPerformance orders by success score
func (r *Repository) ListPerformance(ctx context.Context, order contracts.SortOrder, limit int) ([]contracts.PostPerformance, error) {
	orderBy := ` ORDER BY success_score DESC, post_id`
	if order == contracts.SortBottom {
		orderBy = ` ORDER BY success_score ASC, post_id`
	}

	rows, err := r.pool.Query(ctx, selectPerformance+orderBy+` LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	defer rows.Close()

	list := make([]contracts.PostPerformance, 0)
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// AverageSuccessScore returns the mean score and row count
func (r *Repository) AverageSuccessScore(ctx context.Context) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(success_score), 0), COUNT(*)
		FROM strategy.post_performance
	`).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average success score: %w", err)
	}
	return avg, count, nil
}
