package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newComment(postID, userID uint, parentID *uint, content string, at time.Time) *models.Comment {
	return &models.Comment{
		PostID:    postID,
		UserID:    userID,
		ParentID:  parentID,
		Content:   content,
		Status:    models.CommentStatusApproved,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

type commentFixture struct {
	db     *gorm.DB
	repo   CommentRepository
	owner  *models.User
	reader *models.User
	post   *models.Post
}

func setupCommentFixture(t *testing.T) commentFixture {
	db := setupSQLite(t)
	owner := createUser(t, db, "owner")
	reader := createUser(t, db, "reader")
	return commentFixture{
		db:     db,
		repo:   NewCommentRepository(db),
		owner:  owner,
		reader: reader,
		post:   createPost(t, db, owner, models.PostStatusPublished, timePtr(testNow.Add(-time.Hour))),
	}
}

func TestCommentRepository_CreateWritesLedgerAndCounter(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	comment := newComment(f.post.ID, f.reader.ID, nil, "three word comment", testNow)
	require.NoError(t, f.repo.Create(ctx, comment))
	assert.NotZero(t, comment.ID)

	assert.Equal(t, int64(1), reloadPost(t, f.db, f.post.ID).CommentCount)

	var entry models.UserInteraction
	require.NoError(t, f.db.Where("post_id = ? AND interaction_type = ?", f.post.ID, models.InteractionComment).First(&entry).Error)
	assert.Equal(t, f.reader.ID, entry.UserID)
	assert.Equal(t, json.Number(strconv.FormatUint(uint64(comment.ID), 10)), entry.Metadata["comment_id"])
	assert.Equal(t, json.Number("3"), entry.Metadata["word_count"])
}

func TestCommentRepository_HardDeleteRemovesReplies(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	parent := newComment(f.post.ID, f.reader.ID, nil, "parent comment", testNow)
	require.NoError(t, f.repo.Create(ctx, parent))
	reply := newComment(f.post.ID, f.owner.ID, &parent.ID, "a reply", testNow.Add(time.Minute))
	require.NoError(t, f.repo.Create(ctx, reply))
	other := newComment(f.post.ID, f.owner.ID, nil, "unrelated", testNow.Add(2*time.Minute))
	require.NoError(t, f.repo.Create(ctx, other))
	assert.Equal(t, int64(3), reloadPost(t, f.db, f.post.ID).CommentCount)

	removed, err := f.repo.HardDelete(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, int64(1), reloadPost(t, f.db, f.post.ID).CommentCount)

	_, err = f.repo.GetByID(ctx, reply.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = f.repo.HardDelete(ctx, parent)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, int64(1), reloadPost(t, f.db, f.post.ID).CommentCount)
}

func TestCommentRepository_HardDeleteRemovesLedgerRows(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	parent := newComment(f.post.ID, f.reader.ID, nil, "parent comment", testNow)
	require.NoError(t, f.repo.Create(ctx, parent))
	reply := newComment(f.post.ID, f.owner.ID, &parent.ID, "a reply", testNow.Add(time.Minute))
	require.NoError(t, f.repo.Create(ctx, reply))
	kept := newComment(f.post.ID, f.owner.ID, nil, "still here", testNow.Add(2*time.Minute))
	require.NoError(t, f.repo.Create(ctx, kept))

	_, err := f.repo.HardDelete(ctx, parent)
	require.NoError(t, err)

	var entries []models.UserInteraction
	require.NoError(t, f.db.Where("post_id = ? AND interaction_type = ?", f.post.ID, models.InteractionComment).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, json.Number(strconv.FormatUint(uint64(kept.ID), 10)), entries[0].Metadata["comment_id"])

	metrics, err := NewPostRepository(f.db).Metrics(ctx, f.post.ID, testNow.Add(-models.TrendingWindow))
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.RecentComments)
	assert.Equal(t, int64(1), reloadPost(t, f.db, f.post.ID).CommentCount)
}

func TestCommentRepository_SoftDeleteKeepsCounter(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	comment := newComment(f.post.ID, f.reader.ID, nil, "to be withdrawn", testNow)
	require.NoError(t, f.repo.Create(ctx, comment))

	require.NoError(t, f.repo.SoftDelete(ctx, comment.ID, models.DeletedCommentPlaceholder))

	got, err := f.repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusRejected, got.Status)
	assert.Equal(t, models.DeletedCommentPlaceholder, got.Content)
	assert.Equal(t, int64(1), reloadPost(t, f.db, f.post.ID).CommentCount)
}

func TestCommentRepository_ListAndReplies(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	parent := newComment(f.post.ID, f.reader.ID, nil, "parent", testNow)
	require.NoError(t, f.repo.Create(ctx, parent))
	for i := 0; i < 7; i++ {
		reply := newComment(f.post.ID, f.owner.ID, &parent.ID, "reply", testNow.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, f.repo.Create(ctx, reply))
	}
	pending := newComment(f.post.ID, f.reader.ID, nil, "pending one", testNow.Add(time.Hour))
	pending.Status = models.CommentStatusPending
	require.NoError(t, f.repo.Create(ctx, pending))

	top, total, err := f.repo.List(ctx, CommentFilter{
		PostID:       f.post.ID,
		TopLevelOnly: true,
		Statuses:     []string{models.CommentStatusApproved},
		Page:         models.PageRequest{Page: 1, PerPage: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, top, 1)
	assert.Equal(t, parent.ID, top[0].ID)

	replies, err := f.repo.LatestReplies(ctx, []uint{parent.ID}, models.CommentStatusApproved, 5)
	require.NoError(t, err)
	require.Len(t, replies[parent.ID], 5)
	assert.True(t, replies[parent.ID][0].CreatedAt.After(replies[parent.ID][4].CreatedAt))

	all, total, err := f.repo.List(ctx, CommentFilter{PostID: f.post.ID, Page: models.PageRequest{Page: 1, PerPage: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(9), total)
	assert.Len(t, all, 3)

	stats, err := f.repo.Stats(ctx, f.post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStats{TotalComments: 9, ApprovedComments: 8, PendingComments: 1}, stats)
}

func TestCommentRepository_FilterBySentiment(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	positive := models.SentimentPositive
	score, confidence := 0.9, 0.95
	c := newComment(f.post.ID, f.reader.ID, nil, "great read", testNow)
	c.SentimentLabel, c.SentimentScore, c.SentimentConfidence = &positive, &score, &confidence
	require.NoError(t, f.repo.Create(ctx, c))
	require.NoError(t, f.repo.Create(ctx, newComment(f.post.ID, f.owner.ID, nil, "no label", testNow)))

	minConfidence := 0.9
	rows, total, err := f.repo.List(ctx, CommentFilter{
		Sentiment:     models.SentimentPositive,
		MinConfidence: &minConfidence,
		WithPost:      true,
		Page:          models.PageRequest{Page: 1, PerPage: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Post)
	assert.Equal(t, f.post.ID, rows[0].Post.ID)
}

func TestCommentRepository_ExistsSinceAndUserStats(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Create(ctx, newComment(f.post.ID, f.reader.ID, nil, "one two", testNow.Add(-10*time.Minute))))
	rejected := newComment(f.post.ID, f.reader.ID, nil, "three four five", testNow)
	rejected.Status = models.CommentStatusRejected
	require.NoError(t, f.repo.Create(ctx, rejected))

	recent, err := f.repo.ExistsSince(ctx, f.reader.ID, f.post.ID, testNow.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.True(t, recent)

	recent, err = f.repo.ExistsSince(ctx, f.owner.ID, f.post.ID, testNow.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.False(t, recent)

	total, approved, words, err := f.repo.UserStats(ctx, f.reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), approved)
	assert.Equal(t, int64(5), words)
}

func TestCommentRepository_UpdateStatusWritesAuditLog(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	comment := newComment(f.post.ID, f.reader.ID, nil, "questionable", testNow)
	require.NoError(t, f.repo.Create(ctx, comment))

	entry := &models.ActivityLog{
		CauserID:    f.owner.ID,
		SubjectType: "comment",
		SubjectID:   comment.ID,
		Event:       "comment_moderated",
		Properties:  map[string]interface{}{"old_status": "approved", "new_status": "spam"},
		CreatedAt:   testNow,
	}
	require.NoError(t, f.repo.UpdateStatus(ctx, comment, models.CommentStatusSpam, entry))
	assert.Equal(t, models.CommentStatusSpam, comment.Status)

	got, err := f.repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusSpam, got.Status)

	var logs []models.ActivityLog
	require.NoError(t, f.db.Where("subject_id = ?", comment.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "spam", logs[0].Properties["new_status"])
	assert.Equal(t, int64(1), reloadPost(t, f.db, f.post.ID).CommentCount)
}

func TestCommentRepository_UpdateContent(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	comment := newComment(f.post.ID, f.reader.ID, nil, "first take", testNow)
	require.NoError(t, f.repo.Create(ctx, comment))

	edited := testNow.Add(time.Minute)
	comment.Content = "second take"
	comment.IsEdited = true
	comment.EditedAt = &edited
	require.NoError(t, f.repo.UpdateContent(ctx, comment))

	got, err := f.repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "second take", got.Content)
	assert.True(t, got.IsEdited)
	require.NotNil(t, got.EditedAt)
	assert.True(t, got.EditedAt.Equal(edited))
}
