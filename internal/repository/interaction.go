package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateInteraction is returned when a user repeats a like or bookmark.
var ErrDuplicateInteraction = errors.New("interaction already recorded")

// InteractionRepository is the append/remove ledger of user actions on posts.
// Writes adjust the post counter driven by the interaction type in the same transaction.
type InteractionRepository interface {
	Record(ctx context.Context, interaction *models.UserInteraction) error
	Remove(ctx context.Context, userID, postID uint, interactionType string) (int64, error)
	Exists(ctx context.Context, userID, postID uint, interactionType string) (bool, error)
	ExistsSince(ctx context.Context, userID, postID uint, interactionType string, since time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint, interactionType string, page models.PageRequest) ([]models.UserInteraction, int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new interaction ledger repository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

// uniquePerUser reports whether at most one row per (user, post) may exist for the type.
func uniquePerUser(interactionType string) bool {
	return interactionType == models.InteractionLike || interactionType == models.InteractionBookmark
}

func (r *interactionRepository) Record(ctx context.Context, interaction *models.UserInteraction) error {
	defer observability.TrackQuery("create", "user_interactions")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recordInteraction(tx, interaction)
	})
}

// recordInteraction inserts a ledger row and applies its counter effect on tx.
func recordInteraction(tx *gorm.DB, interaction *models.UserInteraction) error {
	if uniquePerUser(interaction.InteractionType) {
		var count int64
		err := tx.Model(&models.UserInteraction{}).
			Where("user_id = ? AND post_id = ? AND interaction_type = ?",
				interaction.UserID, interaction.PostID, interaction.InteractionType).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateInteraction
		}
	}

	if err := tx.Omit("Post").Create(interaction).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInteraction
		}
		return err
	}

	if column, ok := counterFor(interaction.InteractionType); ok {
		return adjustPostCounter(tx, interaction.PostID, column, 1)
	}
	return nil
}

// Remove deletes every matching row and returns how many were removed.
func (r *interactionRepository) Remove(ctx context.Context, userID, postID uint, interactionType string) (int64, error) {
	defer observability.TrackQuery("delete", "user_interactions")()

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ? AND interaction_type = ?", userID, postID, interactionType).
			Delete(&models.UserInteraction{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if column, ok := counterFor(interactionType); ok {
			return adjustPostCounter(tx, postID, column, -removed)
		}
		return nil
	})
	return removed, err
}

func (r *interactionRepository) Exists(ctx context.Context, userID, postID uint, interactionType string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserInteraction{}).
		Where("user_id = ? AND post_id = ? AND interaction_type = ?", userID, postID, interactionType).
		Count(&count).Error
	return count > 0, err
}

func (r *interactionRepository) ExistsSince(ctx context.Context, userID, postID uint, interactionType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserInteraction{}).
		Where("user_id = ? AND post_id = ? AND interaction_type = ? AND created_at >= ?",
			userID, postID, interactionType, since).
		Count(&count).Error
	return count > 0, err
}

func (r *interactionRepository) ListByUser(ctx context.Context, userID uint, interactionType string, page models.PageRequest) ([]models.UserInteraction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.UserInteraction{}).Where("user_id = ?", userID)
	if interactionType != "" {
		q = q.Where("interaction_type = ?", interactionType)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserInteraction
	err := q.Preload("Post").
		Order("created_at DESC, id DESC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
