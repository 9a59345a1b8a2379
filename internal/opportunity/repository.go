package opportunity

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

// Repository stores opportunities in strategy.opportunities, unique by keyword
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new opportunity repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const opportunityColumns = `id, keyword, composite_score, signals, sub_scores, status, created_at, updated_at`

func scanOpportunity(row pgx.Row) (*contracts.Opportunity, error) {
	var o contracts.Opportunity
	var status string
	var signalsJSON, subJSON []byte

	err := row.Scan(&o.ID, &o.Keyword, &o.CompositeScore, &signalsJSON, &subJSON, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = contracts.OpportunityStatus(status)

	if err := json.Unmarshal(signalsJSON, &o.Signals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signals: %w", err)
	}
	if err := json.Unmarshal(subJSON, &o.SubScores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sub scores: %w", err)
	}
	return &o, nil
}

// UpsertOpportunity inserts by keyword or refreshes score and signals.
// status, id and created_at are never touched on conflict, so a dismissed
// opportunity stays dismissed.
func (r *Repository) UpsertOpportunity(ctx context.Context, o contracts.Opportunity) (*contracts.Opportunity, error) {
	signalsJSON, err := json.Marshal(o.Signals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signals: %w", err)
	}
	subJSON, err := json.Marshal(o.SubScores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sub scores: %w", err)
	}
	if o.Status == "" {
		o.Status = contracts.OpportunityPending
	}

	query := `
		INSERT INTO strategy.opportunities (` + opportunityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (keyword) DO UPDATE SET
			composite_score = EXCLUDED.composite_score,
			signals = EXCLUDED.signals,
			sub_scores = EXCLUDED.sub_scores,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + opportunityColumns

	saved, err := scanOpportunity(r.pool.QueryRow(ctx, query,
		o.ID, o.Keyword, o.CompositeScore, signalsJSON, subJSON, string(o.Status), o.CreatedAt, o.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert opportunity %q: %w", o.Keyword, err)
	}
	return saved, nil
}

// GetOpportunity returns one row or nil
func (r *Repository) GetOpportunity(ctx context.Context, id string) (*contracts.Opportunity, error) {
	o, err := scanOpportunity(r.pool.QueryRow(ctx,
		`SELECT `+opportunityColumns+` FROM strategy.opportunities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	return o, nil
}

// ListKeywords returns every stored keyword
func (r *Repository) ListKeywords(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT keyword FROM strategy.opportunities ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	keywords, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan keywords: %w", err)
	}
	return keywords, nil
}

// ListByStatus returns rows at or above minScore, best first
func (r *Repository) ListByStatus(ctx context.Context, status contracts.OpportunityStatus, minScore float64, limit int) ([]contracts.Opportunity, error) {
	query := `
		SELECT ` + opportunityColumns + `
		FROM strategy.opportunities
		WHERE status = $1 AND composite_score >= $2
		ORDER BY composite_score DESC, keyword
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, string(status), minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	list := make([]contracts.Opportunity, 0)
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

// CountByStatus counts rows with status
func (r *Repository) CountByStatus(ctx context.Context, status contracts.OpportunityStatus) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM strategy.opportunities WHERE status = $1`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count opportunities: %w", err)
	}
	return n, nil
}

// TransitionOpportunity is a conditional status update
func (r *Repository) TransitionOpportunity(ctx context.Context, id string, from, to contracts.OpportunityStatus, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE strategy.opportunities
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), at)
	if err != nil {
		return false, fmt.Errorf("failed to transition opportunity %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
