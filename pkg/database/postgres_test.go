package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/pkg/config"
)

func TestMigrationsEmbedded(t *testing.T) {
	data, err := migrationFS.ReadFile("migrations/001_strategy_engine.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "strategy.post_performance")
	assert.Contains(t, string(data), "strategy.reports")
}

func TestNewAndMigrate(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	applied, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)

	// second run is a no-op
	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.True(t, status.SchemaReady)
	assert.Greater(t, status.Stats.MaxConns, int32(0))

	var tz string
	require.NoError(t, db.Pool.QueryRow(ctx, "SHOW timezone").Scan(&tz))
	assert.Equal(t, "UTC", tz)
}

func TestInTx(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS tx_probe (n int)`)
	require.NoError(t, err)
	defer db.Pool.Exec(context.Background(), `DROP TABLE IF EXISTS tx_probe`)

	rollback := errors.New("abort")
	err = InTx(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO tx_probe VALUES (1)`); err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	require.NoError(t, InTx(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO tx_probe VALUES (2)`)
		return err
	}))

	var rows []int
	r, err := db.Pool.Query(ctx, `SELECT n FROM tx_probe ORDER BY n`)
	require.NoError(t, err)
	rows, err = pgx.CollectRows(r, pgx.RowTo[int])
	require.NoError(t, err)
	assert.Equal(t, []int{2}, rows)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}
