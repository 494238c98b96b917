package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/database"
	"github.com/rmeditanala/blogml/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLite opens a private in-memory database with the full schema.
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

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: name, Color: models.DefaultTagColor}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

var postSeq int

func createPost(t *testing.T, db *gorm.DB, owner *models.User, status string, publishedAt *time.Time) *models.Post {
	t.Helper()
	postSeq++
	post := &models.Post{
		UserID:      owner.ID,
		Title:       fmt.Sprintf("Post %d", postSeq),
		Slug:        fmt.Sprintf("post-%d", postSeq),
		Content:     "body",
		Status:      status,
		PublishedAt: publishedAt,
		CreatedAt:   testNow.Add(-time.Duration(postSeq) * time.Minute),
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post, nil))
	return post
}

func reloadPost(t *testing.T, db *gorm.DB, id uint) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, id).Error)
	return &post
}

func timePtr(t time.Time) *time.Time { return &t }
