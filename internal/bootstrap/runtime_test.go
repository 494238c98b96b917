package bootstrap

import (
	"context"
	"testing"

	"github.com/rmeditanala/blogml/internal/config"
	"github.com/rmeditanala/blogml/internal/database"
	"github.com/rmeditanala/blogml/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestEnsureDevRootAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("skipped outside development", func(t *testing.T) {
		db := setupSQLite(t)
		cfg := &config.Config{Env: "test", DevBootstrapRoot: true, DevRootPassword: "secret123"}
		require.NoError(t, ensureDevRootAdmin(ctx, cfg, db))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("password required", func(t *testing.T) {
		db := setupSQLite(t)
		cfg := &config.Config{Env: "development", DevBootstrapRoot: true}
		assert.Error(t, ensureDevRootAdmin(ctx, cfg, db))
	})

	t.Run("creates then promotes", func(t *testing.T) {
		db := setupSQLite(t)
		cfg := &config.Config{Env: "development", DevBootstrapRoot: true, DevRootEmail: "Root@Example.com", DevRootPassword: "secret123"}
		require.NoError(t, ensureDevRootAdmin(ctx, cfg, db))

		var root models.User
		require.NoError(t, db.Where("email = ?", "root@example.com").First(&root).Error)
		assert.True(t, root.IsAdmin)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("secret123")))

		require.NoError(t, db.Model(&root).Update("is_admin", false).Error)
		require.NoError(t, ensureDevRootAdmin(ctx, cfg, db))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
		require.NoError(t, db.First(&root, root.ID).Error)
		assert.True(t, root.IsAdmin)
	})
}
