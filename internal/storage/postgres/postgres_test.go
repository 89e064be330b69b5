package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/lootengine/internal/game/loot"
	"github.com/cory-johannsen/lootengine/internal/storage/postgres"
	"github.com/cory-johannsen/lootengine/internal/testutil"
)

func TestPool_HealthRequiresLootSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	err := pc.Pool.Health(ctx, 5*time.Second)
	require.ErrorIs(t, err, postgres.ErrSchemaMissing)
	for _, table := range loot.Tables() {
		assert.Contains(t, err.Error(), table)
	}

	pc.ApplyMigrations(t)
	assert.NoError(t, pc.Pool.Health(ctx, 5*time.Second))

	_, err = pc.RawPool.Exec(ctx, `DROP TABLE reference_loot_template`)
	require.NoError(t, err)
	err = pc.Pool.CheckSchema(ctx)
	require.ErrorIs(t, err, postgres.ErrSchemaMissing)
	assert.NotContains(t, err.Error(), loot.TableCreature)
	assert.Contains(t, err.Error(), loot.TableReference)
}
