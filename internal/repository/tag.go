package repository

import (
	"context"
	"time"

	"github.com/rmeditanala/blogml/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	List(ctx context.Context, now time.Time) ([]models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	NameExists(ctx context.Context, name string) (bool, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Omit("Posts").Create(tag).Error
}

// publishedPostCount counts the posts of a tag visible at the bound instant.
const publishedPostCount = `(SELECT COUNT(*) FROM post_tags pt JOIN posts p ON p.id = pt.post_id
	WHERE pt.tag_id = tags.id AND p.status = ? AND p.published_at IS NOT NULL AND p.published_at <= ?) AS post_count`

// List returns every tag, featured first, with its published post count.
func (r *tagRepository) List(ctx context.Context, now time.Time) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Select("tags.*, "+publishedPostCount, models.PostStatusPublished, now).
		Order("tags.is_featured DESC, tags.name ASC").
		Find(&tags).Error
	return tags, err
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *tagRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error
	return count > 0, err
}

// CountByIDs counts how many of the distinct ids name an existing tag.
func (r *tagRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
