// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing.
type PostFilter struct {
	// PublishedAsOf limits the listing to posts visible at that instant.
	// The zero value disables the restriction.
	PublishedAsOf time.Time
	Status        string
	AuthorID      uint
	TagIDs        []uint
	Search        string
	IsAIGenerated *bool
	SortBy        string
	SortOrder     string
	Page          models.PageRequest
}

// PostSortColumns lists the columns a listing may be ordered by.
var PostSortColumns = map[string]bool{
	"published_at":  true,
	"created_at":    true,
	"updated_at":    true,
	"title":         true,
	"view_count":    true,
	"like_count":    true,
	"comment_count": true,
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	Update(ctx context.Context, post *models.Post, fields []string, tagIDs *[]uint) error
	UpdateStatus(ctx context.Context, id uint, status string, publishedAt *time.Time) error
	Delete(ctx context.Context, id uint) error
	Metrics(ctx context.Context, id uint, since time.Time) (*models.PostMetrics, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

type postTag struct {
	PostID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey"`
}

func (postTag) TableName() string { return "post_tags" }

func (r *postRepository) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	defer observability.TrackQuery("create", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "User").Create(post).Error; err != nil {
			return err
		}
		tags, err := replacePostTags(tx, post.ID, tagIDs)
		if err != nil {
			return err
		}
		post.Tags = tags
		return nil
	})
}

// replacePostTags rewrites the join rows of a post. Unknown tag ids fail
// with gorm.ErrRecordNotFound so the surrounding transaction rolls back.
func replacePostTags(tx *gorm.DB, postID uint, tagIDs []uint) ([]models.Tag, error) {
	if err := tx.Where("post_id = ?", postID).Delete(&postTag{}).Error; err != nil {
		return nil, err
	}
	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, gorm.ErrRecordNotFound
	}

	rows := make([]postTag, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, postTag{PostID: postID, TagID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") })
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()

	var post models.Post
	if err := r.withDetails(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDs loads posts keeping the order of ids. Missing ids are skipped.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var found []models.Post
	if err := r.withDetails(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]models.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *postRepository) List(ctx context.Context, f PostFilter) ([]models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	q := applyPostFilter(r.db.WithContext(ctx).Model(&models.Post{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := q.Preload("User").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Order(postOrder(f.SortBy, f.SortOrder)).
		Limit(f.Page.PerPage).
		Offset(f.Page.Offset()).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func applyPostFilter(q *gorm.DB, f PostFilter) *gorm.DB {
	if !f.PublishedAsOf.IsZero() {
		q = q.Where("posts.status = ? AND posts.published_at IS NOT NULL AND posts.published_at <= ?",
			models.PostStatusPublished, f.PublishedAsOf)
	} else if f.Status != "" {
		q = q.Where("posts.status = ?", f.Status)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.user_id = ?", f.AuthorID)
	}
	if len(f.TagIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = posts.id AND pt.tag_id IN ?)", f.TagIDs)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ? OR LOWER(posts.excerpt) LIKE ?)",
			like, like, like)
	}
	if f.IsAIGenerated != nil {
		q = q.Where("posts.is_ai_generated = ?", *f.IsAIGenerated)
	}
	return q
}

// postOrder builds an ORDER BY clause from an allowlisted column.
func postOrder(sortBy, sortOrder string) string {
	if !PostSortColumns[sortBy] {
		sortBy = "published_at"
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return "posts." + sortBy + " " + dir + ", posts.id " + dir
}

// Update writes the selected columns and, when tagIDs is non-nil, replaces the tag set.
func (r *postRepository) Update(ctx context.Context, post *models.Post, fields []string, tagIDs *[]uint) error {
	defer observability.TrackQuery("update", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(post).Select(fields).Updates(post).Error; err != nil {
				return err
			}
		}
		if tagIDs == nil {
			return nil
		}
		tags, err := replacePostTags(tx, post.ID, *tagIDs)
		if err != nil {
			return err
		}
		post.Tags = tags
		return nil
	})
}

func (r *postRepository) UpdateStatus(ctx context.Context, id uint, status string, publishedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if publishedAt != nil {
		updates["published_at"] = *publishedAt
	}
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes a post together with its comments, ledger rows and tag links.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.UserInteraction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&postTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Metrics aggregates ledger activity since the given instant and the comment sentiment of a post.
func (r *postRepository) Metrics(ctx context.Context, id uint, since time.Time) (*models.PostMetrics, error) {
	defer observability.TrackQuery("metrics", "posts")()
	db := r.db.WithContext(ctx)

	var activity []struct {
		InteractionType string
		Total           int64
	}
	err := db.Model(&models.UserInteraction{}).
		Select("interaction_type, COUNT(*) AS total").
		Where("post_id = ? AND created_at >= ?", id, since).
		Group("interaction_type").
		Scan(&activity).Error
	if err != nil {
		return nil, err
	}

	m := &models.PostMetrics{}
	for _, a := range activity {
		switch a.InteractionType {
		case models.InteractionView:
			m.RecentViews = a.Total
		case models.InteractionLike:
			m.RecentLikes = a.Total
		case models.InteractionComment:
			m.RecentComments = a.Total
		}
	}
	m.TrendingScore = models.TrendingScore(m.RecentViews, m.RecentLikes, m.RecentComments)

	var avg struct {
		Average *float64
	}
	err = db.Model(&models.Comment{}).
		Select("AVG(sentiment_score) AS average").
		Where("post_id = ? AND sentiment_score IS NOT NULL", id).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	m.AverageSentiment = avg.Average

	var labels []struct {
		SentimentLabel string
		Total          int64
	}
	err = db.Model(&models.Comment{}).
		Select("sentiment_label, COUNT(*) AS total").
		Where("post_id = ? AND sentiment_label IS NOT NULL", id).
		Group("sentiment_label").
		Scan(&labels).Error
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		switch l.SentimentLabel {
		case models.SentimentPositive:
			m.SentimentDistribution.Positive = l.Total
		case models.SentimentNegative:
			m.SentimentDistribution.Negative = l.Total
		case models.SentimentNeutral:
			m.SentimentDistribution.Neutral = l.Total
		}
	}
	return m, nil
}
