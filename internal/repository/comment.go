package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentFilter narrows a comment listing.
type CommentFilter struct {
	PostID uint
	UserID uint
	// TopLevelOnly excludes replies.
	TopLevelOnly bool
	// ParentID limits the listing to replies of one comment.
	ParentID      *uint
	Statuses      []string
	Sentiment     string
	Search        string
	MinConfidence *float64
	SortBy        string
	SortOrder     string
	WithPost      bool
	Page          models.PageRequest
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	List(ctx context.Context, filter CommentFilter) ([]models.Comment, int64, error)
	LatestReplies(ctx context.Context, parentIDs []uint, status string, perParent int) (map[uint][]models.Comment, error)
	Stats(ctx context.Context, postID uint) (models.CommentStats, error)
	UserStats(ctx context.Context, userID uint) (total, approved, words int64, err error)
	ExistsSince(ctx context.Context, userID, postID uint, since time.Time) (bool, error)
	UpdateContent(ctx context.Context, comment *models.Comment) error
	SoftDelete(ctx context.Context, id uint, placeholder string) error
	HardDelete(ctx context.Context, comment *models.Comment) (int64, error)
	UpdateStatus(ctx context.Context, comment *models.Comment, status string, entry *models.ActivityLog) error
}

// commentRepository implements CommentRepository
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment, appends its ledger row and bumps comment_count atomically.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Post", "User", "Parent", "Replies").Create(comment).Error; err != nil {
			return err
		}
		entry := &models.UserInteraction{
			UserID:          comment.UserID,
			PostID:          comment.PostID,
			InteractionType: models.InteractionComment,
			Metadata: datatypes.JSONMap{
				"comment_id": comment.ID,
				"word_count": comment.WordCount(),
			},
			CreatedAt: comment.CreatedAt,
			UpdatedAt: comment.CreatedAt,
		}
		if err := recordInteraction(tx, entry); err != nil {
			return err
		}
		return adjustPostCounter(tx, comment.PostID, CounterComments, 1)
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Post").
		First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, f CommentFilter) ([]models.Comment, int64, error) {
	defer observability.TrackQuery("list", "comments")()

	q := applyCommentFilter(r.db.WithContext(ctx).Model(&models.Comment{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := q.Preload("User")
	if f.WithPost {
		find = find.Preload("Post")
	}
	var comments []models.Comment
	err := find.Order(commentOrder(f.SortBy, f.SortOrder)).
		Limit(f.Page.PerPage).
		Offset(f.Page.Offset()).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func applyCommentFilter(q *gorm.DB, f CommentFilter) *gorm.DB {
	if f.PostID != 0 {
		q = q.Where("comments.post_id = ?", f.PostID)
	}
	if f.UserID != 0 {
		q = q.Where("comments.user_id = ?", f.UserID)
	}
	if f.TopLevelOnly {
		q = q.Where("comments.parent_id IS NULL")
	}
	if f.ParentID != nil {
		q = q.Where("comments.parent_id = ?", *f.ParentID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("comments.status IN ?", f.Statuses)
	}
	if f.Sentiment != "" {
		q = q.Where("comments.sentiment_label = ?", f.Sentiment)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(comments.content) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.MinConfidence != nil {
		q = q.Where("comments.sentiment_confidence >= ?", *f.MinConfidence)
	}
	return q
}

func commentOrder(sortBy, sortOrder string) string {
	if sortBy != "sentiment_score" {
		sortBy = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return "comments." + sortBy + " " + dir + ", comments.id " + dir
}

// LatestReplies returns up to perParent newest replies per parent in the given status.
func (r *commentRepository) LatestReplies(ctx context.Context, parentIDs []uint, status string, perParent int) (map[uint][]models.Comment, error) {
	out := make(map[uint][]models.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}

	var replies []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("parent_id IN ? AND status = ?", parentIDs, status).
		Order("created_at DESC, id DESC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}

	for _, reply := range replies {
		parent := *reply.ParentID
		if len(out[parent]) < perParent {
			out[parent] = append(out[parent], reply)
		}
	}
	return out, nil
}

func (r *commentRepository) Stats(ctx context.Context, postID uint) (models.CommentStats, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("status, COUNT(*) AS total").
		Where("post_id = ?", postID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return models.CommentStats{}, err
	}

	var stats models.CommentStats
	for _, row := range rows {
		stats.TotalComments += row.Total
		switch row.Status {
		case models.CommentStatusApproved:
			stats.ApprovedComments = row.Total
		case models.CommentStatusPending:
			stats.PendingComments = row.Total
		}
	}
	return stats, nil
}

// UserStats counts a user's comments and the words across them.
func (r *commentRepository) UserStats(ctx context.Context, userID uint) (int64, int64, int64, error) {
	var rows []struct {
		Status  string
		Content string
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("status, content").
		Where("user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return 0, 0, 0, err
	}

	var total, approved, words int64
	for _, row := range rows {
		total++
		if row.Status == models.CommentStatusApproved {
			approved++
		}
		words += int64(len(strings.Fields(row.Content)))
	}
	return total, approved, words, nil
}

func (r *commentRepository) ExistsSince(ctx context.Context, userID, postID uint, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ? AND post_id = ? AND created_at >= ?", userID, postID, since).
		Count(&count).Error
	return count > 0, err
}

func (r *commentRepository) UpdateContent(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Model(comment).
		Select("content", "is_edited", "edited_at", "sentiment_score", "sentiment_label", "sentiment_confidence", "updated_at").
		Updates(comment).Error
}

// SoftDelete withdraws a comment: the row stays, hidden as rejected with placeholder content.
func (r *commentRepository) SoftDelete(ctx context.Context, id uint, placeholder string) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.CommentStatusRejected,
			"content": placeholder,
		}).Error
}

// HardDelete removes the comment and its replies together with their comment
// ledger rows, and decrements comment_count by the number of comments removed,
// which it returns.
func (r *commentRepository) HardDelete(ctx context.Context, comment *models.Comment) (int64, error) {
	defer observability.TrackQuery("delete", "comments")()

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var replyIDs []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		replies := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{})
		if replies.Error != nil {
			return replies.Error
		}
		res := tx.Delete(&models.Comment{}, comment.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		removed = replies.RowsAffected + res.RowsAffected

		if err := deleteCommentLedger(tx, comment.PostID, append([]uint{comment.ID}, replyIDs...)); err != nil {
			return err
		}
		return adjustPostCounter(tx, comment.PostID, CounterComments, -removed)
	})
	return removed, err
}

// deleteCommentLedger drops the "comment" interaction rows written for the given comments.
func deleteCommentLedger(tx *gorm.DB, postID uint, commentIDs []uint) error {
	matches := make([]clause.Expression, 0, len(commentIDs))
	for _, id := range commentIDs {
		matches = append(matches, datatypes.JSONQuery("metadata").Equals(id, "comment_id"))
	}
	return tx.Where("post_id = ? AND interaction_type = ?", postID, models.InteractionComment).
		Where(clause.Or(matches...)).
		Delete(&models.UserInteraction{}).Error
}

// UpdateStatus changes the moderation status and appends the audit entry in one transaction.
func (r *commentRepository) UpdateStatus(ctx context.Context, comment *models.Comment, status string, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Comment{}).
			Where("id = ?", comment.ID).
			Update("status", status).Error
		if err != nil {
			return err
		}
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		comment.Status = status
		return nil
	})
}
