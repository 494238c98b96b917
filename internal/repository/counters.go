package repository

import (
	"fmt"

	"github.com/rmeditanala/blogml/internal/models"

	"gorm.io/gorm"
)

// Denormalized post counter columns.
const (
	CounterViews    = "view_count"
	CounterLikes    = "like_count"
	CounterComments = "comment_count"
)

// adjustPostCounter applies a relative change to one counter column.
// Decrements are clamped at zero. It must run on the transaction that wrote
// the row the change accounts for.
func adjustPostCounter(tx *gorm.DB, postID uint, column string, delta int64) error {
	switch column {
	case CounterViews, CounterLikes, CounterComments:
	default:
		return fmt.Errorf("unknown post counter %q", column)
	}
	if delta == 0 {
		return nil
	}

	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
	}

	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, expr).Error
}

// counterFor maps an interaction type to the counter it drives, if any.
func counterFor(interactionType string) (string, bool) {
	switch interactionType {
	case models.InteractionView:
		return CounterViews, true
	case models.InteractionLike:
		return CounterLikes, true
	}
	return "", false
}
