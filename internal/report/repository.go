package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Repository stores reports in strategy.reports keyed by week_start
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new report repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertReport writes the snapshot for its week; the same week overwrites
func (r *Repository) UpsertReport(ctx context.Context, rep contracts.StrategyReport) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO strategy.reports (week_start, generated_at, config_hash, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (week_start) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			config_hash = EXCLUDED.config_hash,
			body = EXCLUDED.body
	`, rep.WeekStart, rep.GeneratedAt, rep.ConfigHash, body)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}
	return nil
}

// GetReport returns the report for weekStart or nil
func (r *Repository) GetReport(ctx context.Context, weekStart time.Time) (*contracts.StrategyReport, error) {
	return r.one(ctx, `SELECT body FROM strategy.reports WHERE week_start = $1`, weekStart)
}

// PreviousReport returns the newest report before the given week
func (r *Repository) PreviousReport(ctx context.Context, before time.Time) (*contracts.StrategyReport, error) {
	return r.one(ctx, `
		SELECT body FROM strategy.reports
		WHERE week_start < $1
		ORDER BY week_start DESC
		LIMIT 1
	`, before)
}

// LatestReport returns the newest report or nil
func (r *Repository) LatestReport(ctx context.Context) (*contracts.StrategyReport, error) {
	return r.one(ctx, `SELECT body FROM strategy.reports ORDER BY week_start DESC LIMIT 1`)
}

func (r *Repository) one(ctx context.Context, query string, args ...interface{}) (*contracts.StrategyReport, error) {
	var body []byte
	err := r.pool.QueryRow(ctx, query, args...).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var rep contracts.StrategyReport
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}
