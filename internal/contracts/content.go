package contracts

import "time"

// Post is the slice of a post the engine needs
type Post struct {
	ID           string     `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Status       PostStatus `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsDue reports whether a scheduled post should be published at now
func (p Post) IsDue(now time.Time) bool {
	return p.Status == PostScheduled && p.ScheduledFor != nil && !p.ScheduledFor.After(now)
}

// PostMetrics is one day of traffic/engagement signals; unique per (PostID, Date)
type PostMetrics struct {
	PostID            string    `json:"post_id"`
	Date              time.Time `json:"date"`
	PageViews         int64     `json:"page_views"`
	UniqueVisitors    int64     `json:"unique_visitors"`
	AvgEngagedTime    float64   `json:"avg_engaged_time"` // seconds
	BounceRate        float64   `json:"bounce_rate"`      // 0-1
	ScrollDepthAvg    float64   `json:"scroll_depth_avg"` // 0-1
	SocialShares      int64     `json:"social_shares"`
	SearchImpressions *int64    `json:"search_impressions,omitempty"`
	SearchClicks      *int64    `json:"search_clicks,omitempty"`
	SearchCTR         *float64  `json:"search_ctr,omitempty"`
	SearchPosition    *float64  `json:"search_position,omitempty"`
}

// Validate checks field ranges before ingestion
func (m PostMetrics) Validate() error {
	if m.PostID == "" {
		return NewValidationError("post_id", "is required")
	}
	if m.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if m.PageViews < 0 || m.UniqueVisitors < 0 || m.SocialShares < 0 || m.AvgEngagedTime < 0 {
		return NewValidationError("metrics", "counts must be non-negative")
	}
	if m.BounceRate < 0 || m.BounceRate > 1 {
		return NewValidationError("bounce_rate", "must be within [0,1], got %v", m.BounceRate)
	}
	if m.ScrollDepthAvg < 0 || m.ScrollDepthAvg > 1 {
		return NewValidationError("scroll_depth_avg", "must be within [0,1], got %v", m.ScrollDepthAvg)
	}
	return nil
}

// PostRevenue is one day of affiliate revenue; unique per (PostID, Date)
type PostRevenue struct {
	PostID          string    `json:"post_id"`
	Date            time.Time `json:"date"`
	AffiliateClicks int64     `json:"affiliate_clicks"`
	Conversions     int64     `json:"conversions"`
	Revenue         float64   `json:"revenue"`
	EPC             float64   `json:"epc"` // earnings per click
}

// Validate checks field ranges before ingestion
func (r PostRevenue) Validate() error {
	if r.PostID == "" {
		return NewValidationError("post_id", "is required")
	}
	if r.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if r.AffiliateClicks < 0 || r.Conversions < 0 || r.Revenue < 0 || r.EPC < 0 {
		return NewValidationError("revenue", "values must be non-negative")
	}
	return nil
}

// PostPerformance is the derived score row; one per post, written only by the scorer
type PostPerformance struct {
	PostID            string    `json:"post_id"`
	SuccessScore      float64   `json:"success_score"`
	EngagementScore   float64   `json:"engagement_score"`
	SEOScore          float64   `json:"seo_score"`
	MonetizationScore float64   `json:"monetization_score"`
	ConfigVersion     int       `json:"config_version"`
	LastCalculatedAt  time.Time `json:"last_calculated_at"`
}

// SortOrder selects top or bottom performers
type SortOrder string

const (
	SortTop    SortOrder = "top"
	SortBottom SortOrder = "bottom"
)
