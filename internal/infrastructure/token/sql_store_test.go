// internal/infrastructure/token/sql_store_test.go
package token

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/pkg/database"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "tokens.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(database.Migrations))
	return NewSQLStore(db.DB, logger)
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLStore(t)

	t.Run("missing merchant", func(t *testing.T) {
		_, ok := store.GetAccessToken(ctx, "M1")
		assert.False(t, ok)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.PutAccessToken(ctx, "M1", "tok1"))

		token, ok := store.GetAccessToken(ctx, "M1")
		assert.True(t, ok)
		assert.Equal(t, "tok1", token)
	})

	t.Run("put replaces existing token", func(t *testing.T) {
		require.NoError(t, store.PutAccessToken(ctx, "M1", "tok1b"))
		require.NoError(t, store.PutAccessToken(ctx, "M2", "tok2"))

		token, _ := store.GetAccessToken(ctx, "M1")
		assert.Equal(t, "tok1b", token)

		all, err := store.AccessTokens(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"M1": "tok1b", "M2": "tok2"}, all)
	})

	t.Run("empty token counts as absent", func(t *testing.T) {
		require.NoError(t, store.PutAccessToken(ctx, "M3", ""))
		_, ok := store.GetAccessToken(ctx, "M3")
		assert.False(t, ok)
	})

	t.Run("rejects empty merchant id", func(t *testing.T) {
		assert.Error(t, store.PutAccessToken(ctx, "", "tok"))
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	logger := zap.NewNop()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "tokens.db")}, logger)
	require.NoError(t, err)
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(database.Migrations))
	require.NoError(t, migrator.RunMigrations(database.Migrations))

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}
