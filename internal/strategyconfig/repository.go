package strategyconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Repository persists StrategyConfig versions in strategy.configs
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new config repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectConfig = `
	SELECT version, weights, opportunity_weights, content_rules, created_at
	FROM strategy.configs
`

// Current returns the highest version
func (r *Repository) Current(ctx context.Context) (*contracts.StrategyConfig, error) {
	row := r.pool.QueryRow(ctx, selectConfig+` ORDER BY version DESC LIMIT 1`)
	cfg, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current config: %w", err)
	}
	return cfg, nil
}

// CreateInitial inserts version 1 if the table is empty, then returns the current row.
// ON CONFLICT DO NOTHING makes two concurrent first reads converge on one row.
func (r *Repository) CreateInitial(ctx context.Context, cfg contracts.StrategyConfig) (*contracts.StrategyConfig, error) {
	cfg.Version = 1
	if _, err := r.insert(ctx, cfg); err != nil {
		return nil, err
	}

	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("config missing after initial insert")
	}
	return current, nil
}

// InsertVersion inserts cfg; ok=false when the version already exists
func (r *Repository) InsertVersion(ctx context.Context, cfg contracts.StrategyConfig) (bool, error) {
	return r.insert(ctx, cfg)
}

func (r *Repository) insert(ctx context.Context, cfg contracts.StrategyConfig) (bool, error) {
	weightsJSON, err := json.Marshal(cfg.Weights)
	if err != nil {
		return false, fmt.Errorf("failed to marshal weights: %w", err)
	}
	oppJSON, err := json.Marshal(cfg.OpportunityWeights)
	if err != nil {
		return false, fmt.Errorf("failed to marshal opportunity weights: %w", err)
	}
	rulesJSON, err := json.Marshal(cfg.ContentRules)
	if err != nil {
		return false, fmt.Errorf("failed to marshal content rules: %w", err)
	}

	query := `
		INSERT INTO strategy.configs (version, weights, opportunity_weights, content_rules, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (version) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, cfg.Version, weightsJSON, oppJSON, rulesJSON, cfg.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert config version %d: %w", cfg.Version, err)
	}
	return tag.RowsAffected() == 1, nil
}

// History lists versions newest first
func (r *Repository) History(ctx context.Context, limit int) ([]contracts.StrategyConfig, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, selectConfig+` ORDER BY version DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query config history: %w", err)
	}
	defer rows.Close()

	history := make([]contracts.StrategyConfig, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		history = append(history, *cfg)
	}
	return history, rows.Err()
}

func scanConfig(row pgx.Row) (*contracts.StrategyConfig, error) {
	var cfg contracts.StrategyConfig
	var weightsJSON, oppJSON, rulesJSON []byte

	if err := row.Scan(&cfg.Version, &weightsJSON, &oppJSON, &rulesJSON, &cfg.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weightsJSON, &cfg.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	if err := json.Unmarshal(oppJSON, &cfg.OpportunityWeights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal opportunity weights: %w", err)
	}
	if err := json.Unmarshal(rulesJSON, &cfg.ContentRules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content rules: %w", err)
	}
	return &cfg, nil
}
