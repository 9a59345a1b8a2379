package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/contentpulse/pkg/config"
)

const (
	applicationName = "contentpulse-strategy"
	connectTimeout  = 5 * time.Second
)

// DB wraps the pgxpool.Pool behind every Postgres repository.
// Sessions run in UTC so DATE columns (metric days, report weeks) match the
// engine's UTC dates regardless of the server default.
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New connects with the pool sizing from cfg.Database
func New(cfg *config.Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return connect(ctx, poolConfig)
}

// Open connects to url with pgx's default pool sizing (integration tests, one-off commands)
func Open(ctx context.Context, url string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	return connect(ctx, poolConfig)
}

// ⭐ SSOT: 풀 생성은 여기서만
func connect(ctx context.Context, poolConfig *pgxpool.Config) (*DB, error) {
	params := poolConfig.ConnConfig.RuntimeParams
	params["timezone"] = "UTC"
	if params["application_name"] == "" {
		params["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// InTx runs fn in a transaction on pool, committing when fn returns nil.
// Any error from fn rolls back and is returned unwrapped so callers can match it.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthStatus is what `strategy db test-db` and /health report
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	SchemaReady  bool          `json:"schema_ready"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
}

// PoolStats is the subset of pgxpool statistics worth printing
type PoolStats struct {
	AcquiredConns int32 `json:"acquired_conns"`
	IdleConns     int32 `json:"idle_conns"`
	MaxConns      int32 `json:"max_conns"`
	TotalConns    int32 `json:"total_conns"`
	EmptyAcquires int64 `json:"empty_acquires"`
}

// HealthCheck pings the pool and checks that migrations have created the schema
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	// to_regclass is NULL until `db migrate` has run
	if err := db.Pool.QueryRow(ctx,
		`SELECT to_regclass('strategy.configs') IS NOT NULL`,
	).Scan(&status.SchemaReady); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("failed to check schema: %w", err)
	}

	s := db.Pool.Stat()
	status.Stats = PoolStats{
		AcquiredConns: s.AcquiredConns(),
		IdleConns:     s.IdleConns(),
		MaxConns:      s.MaxConns(),
		TotalConns:    s.TotalConns(),
		EmptyAcquires: s.EmptyAcquireCount(),
	}
	status.Healthy = true
	return status, nil
}
