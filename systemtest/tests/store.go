package tests

import (
	"context"
	"testing"

	"github.com/EternisAI/bot-deployer/internal/deployments"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T, store *deployments.PostgresStore) {
	ctx := context.Background()

	sample := func(owner, app string) deployments.Deployment {
		return deployments.Deployment{
			Owner:       owner,
			AppName:     app,
			BotType:     "khan",
			AccessToken: uuid.NewString(),
			ExtraConfig: deployments.ExtraConfig{
				SessionID: "sess",
				Config:    map[string]string{"A": "1"},
			},
		}
	}

	t.Run("create and get by token", func(t *testing.T) {
		d := sample("store-frank", "store-frank-1")
		created, err := store.Create(ctx, d)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := store.GetByToken(ctx, d.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "store-frank-1", got.AppName)
		assert.Equal(t, "store-frank", got.Owner)
		assert.Equal(t, d.ExtraConfig, got.ExtraConfig)

		exists, err := store.AppNameExists(ctx, "store-frank-1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate app name", func(t *testing.T) {
		_, err := store.Create(ctx, sample("store-gina", "store-dup"))
		require.NoError(t, err)
		_, err = store.Create(ctx, sample("store-hank", "store-dup"))
		assert.ErrorIs(t, err, deployments.ErrDuplicateAppName)
	})

	t.Run("duplicate token", func(t *testing.T) {
		first := sample("store-ivy", "store-ivy-1")
		_, err := store.Create(ctx, first)
		require.NoError(t, err)

		second := sample("store-ivy", "store-ivy-2")
		second.AccessToken = first.AccessToken
		_, err = store.Create(ctx, second)
		assert.ErrorIs(t, err, deployments.ErrDuplicateToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := store.GetByToken(ctx, "missing")
		assert.ErrorIs(t, err, deployments.ErrNotFound)
	})

	t.Run("list, count and delete", func(t *testing.T) {
		_, err := store.Create(ctx, sample("store-jo", "store-jo-1"))
		require.NoError(t, err)
		_, err = store.Create(ctx, sample("store-jo", "store-jo-2"))
		require.NoError(t, err)

		list, err := store.ListByOwner(ctx, "store-jo")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		n, err := store.CountByOwner(ctx, "store-jo")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		require.NoError(t, store.DeleteByAppName(ctx, "store-jo-1"))
		assert.ErrorIs(t, store.DeleteByAppName(ctx, "store-jo-1"), deployments.ErrNotFound)

		n, err = store.CountByOwner(ctx, "store-jo")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
