package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/database"
)

// Repository stores experiments in strategy.experiments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new experiment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const experimentColumns = `id, post_id, name, variants, status, winner_variant_id, created_at, updated_at, finished_at`

func scanExperiment(row pgx.Row) (*contracts.Experiment, error) {
	var e contracts.Experiment
	var status string
	var variantsJSON []byte

	err := row.Scan(&e.ID, &e.PostID, &e.Name, &variantsJSON, &status, &e.WinnerVariantID,
		&e.CreatedAt, &e.UpdatedAt, &e.FinishedAt)
	if err != nil {
		return nil, err
	}
	e.Status = contracts.ExperimentStatus(status)

	if err := json.Unmarshal(variantsJSON, &e.Variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}
	return &e, nil
}

func collectExperiments(rows pgx.Rows) ([]contracts.Experiment, error) {
	defer rows.Close()

	list := make([]contracts.Experiment, 0)
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// CreateExperiment inserts a new experiment
func (r *Repository) CreateExperiment(ctx context.Context, e contracts.Experiment) error {
	variantsJSON, err := json.Marshal(e.Variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO strategy.experiments (`+experimentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.PostID, e.Name, variantsJSON, string(e.Status), e.WinnerVariantID,
		e.CreatedAt, e.UpdatedAt, e.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}
	return nil
}

// GetExperiment returns one experiment or nil
func (r *Repository) GetExperiment(ctx context.Context, id string) (*contracts.Experiment, error) {
	e, err := scanExperiment(r.pool.QueryRow(ctx,
		`SELECT `+experimentColumns+` FROM strategy.experiments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return e, nil
}

// ListExperiments lists newest first, filtered by status when given
func (r *Repository) ListExperiments(ctx context.Context, status contracts.ExperimentStatus) ([]contracts.Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM strategy.experiments`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	return collectExperiments(rows)
}

// FinishExperiment moves a running experiment to a terminal status
func (r *Repository) FinishExperiment(ctx context.Context, id string, to contracts.ExperimentStatus, winnerVariantID *string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE strategy.experiments
		SET status = $2, winner_variant_id = $3, finished_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'running'
	`, id, string(to), winnerVariantID, at)
	if err != nil {
		return false, fmt.Errorf("failed to finish experiment %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateVariantMetrics rewrites one variant inside the JSONB array. The row is
// locked for the read-modify-write so concurrent metric pushes do not drop updates.
func (r *Repository) UpdateVariantMetrics(ctx context.Context, id, variantID string, m contracts.VariantMetrics, at time.Time) (bool, error) {
	updated := false
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var variantsJSON []byte
		err := tx.QueryRow(ctx, `
			SELECT variants FROM strategy.experiments
			WHERE id = $1 AND status = 'running'
			FOR UPDATE
		`, id).Scan(&variantsJSON)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock experiment %s: %w", id, err)
		}

		var variants []contracts.Variant
		if err := json.Unmarshal(variantsJSON, &variants); err != nil {
			return fmt.Errorf("failed to unmarshal variants: %w", err)
		}

		idx := -1
		for i := range variants {
			if variants[i].ID == variantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		variants[idx].Metrics = m

		raw, err := json.Marshal(variants)
		if err != nil {
			return fmt.Errorf("failed to marshal variants: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE strategy.experiments SET variants = $2, updated_at = $3 WHERE id = $1
		`, id, raw, at); err != nil {
			return fmt.Errorf("failed to update variants: %w", err)
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// ListFinishedSince returns terminal experiments finished at or after since
func (r *Repository) ListFinishedSince(ctx context.Context, since time.Time) ([]contracts.Experiment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+experimentColumns+`
		FROM strategy.experiments
		WHERE status IN ('concluded', 'cancelled') AND finished_at >= $1
		ORDER BY finished_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished experiments: %w", err)
	}
	return collectExperiments(rows)
}
