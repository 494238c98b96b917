package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/database"
	"github.com/rmeditanala/blogml/internal/ml"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/repository"
	"github.com/rmeditanala/blogml/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// sentimentMock scores comments for tests that assert on sentiment fields.
type sentimentMock struct {
	mock.Mock
}

func (m *sentimentMock) AnalyzeSentiment(ctx context.Context, text string) (ml.Sentiment, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(ml.Sentiment), args.Error(1)
}

// indexStub records index calls and answers searches from searchFn.
type indexStub struct {
	indexed  []uint
	deleted  []uint
	searchFn func(search.Query) ([]uint, int64, error)
}

func (s *indexStub) IndexPost(_ context.Context, rec search.PostRecord) error {
	s.indexed = append(s.indexed, rec.ID)
	return nil
}

func (s *indexStub) DeletePost(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *indexStub) Search(_ context.Context, q search.Query) ([]uint, int64, error) {
	if s.searchFn == nil {
		return nil, 0, search.ErrUnavailable
	}
	return s.searchFn(q)
}

type fixture struct {
	db    *gorm.DB
	clock *testClock
	index *indexStub

	owner  *models.User
	reader *models.User
	admin  *models.User

	posts        *PostService
	comments     *CommentService
	interactions *InteractionService
	moderation   *ModerationService
	tags         *TagService
}

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

func newFixture(t *testing.T, sentiment ml.SentimentProvider) *fixture {
	t.Helper()
	db := setupSQLite(t)

	f := &fixture{db: db, clock: &testClock{t: testNow}, index: &indexStub{}}
	f.owner = createUser(t, db, "owner", false)
	f.reader = createUser(t, db, "reader", false)
	f.admin = createUser(t, db, "admin", true)

	users := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)
	resolve := NewActorResolver(users)

	f.posts = NewPostService(postRepo, tagRepo, f.index, resolve)
	f.posts.now = f.clock.Now
	f.comments = NewCommentService(commentRepo, postRepo, sentiment, resolve)
	f.comments.now = f.clock.Now
	f.interactions = NewInteractionService(postRepo, repository.NewInteractionRepository(db), resolve)
	f.interactions.now = f.clock.Now
	f.moderation = NewModerationService(postRepo, commentRepo, f.index, resolve)
	f.moderation.now = f.clock.Now
	f.tags = NewTagService(tagRepo, postRepo, resolve)
	f.tags.now = f.clock.Now
	return f
}

func createUser(t *testing.T, db *gorm.DB, name string, admin bool) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "x", IsAdmin: admin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func strPtr(s string) *string { return &s }

var postSeq int

// publishedPost creates a post published an hour before the fixture clock.
func (f *fixture) publishedPost(t *testing.T) *models.Post {
	t.Helper()
	postSeq++
	post, err := f.posts.CreatePost(context.Background(), CreatePostInput{
		UserID: f.owner.ID,
		PostChanges: PostChanges{
			Title:   strPtr(fmt.Sprintf("Published %d", postSeq)),
			Content: strPtr("Some **markdown** body"),
			Status:  strPtr(models.PostStatusPublished),
		},
	})
	require.NoError(t, err)
	return post
}

func (f *fixture) reloadPost(t *testing.T, id uint) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, f.db.First(&post, id).Error)
	return &post
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}
