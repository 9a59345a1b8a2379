package strategyconfig

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/contentpulse/pkg/database"
)

func TestRepository_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `TRUNCATE strategy.configs`)
	require.NoError(t, err)

	repo := NewRepository(db.Pool)

	current, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	cfg := Baseline().Config()
	cfg.CreatedAt = time.Now().UTC()
	first, err := repo.CreateInitial(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	again, err := repo.CreateInitial(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Version)

	cfg.Version = 2
	ok, err := repo.InsertVersion(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.InsertVersion(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate version must not overwrite")

	history, err := repo.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, cfg.ContentRules.RequiredSections, history[0].ContentRules.RequiredSections)
}
