package models

import (
	"time"

	"gorm.io/datatypes"
)

// Interaction types recorded in the ledger.
const (
	InteractionView     = "view"
	InteractionLike     = "like"
	InteractionShare    = "share"
	InteractionComment  = "comment"
	InteractionBookmark = "bookmark"
)

// ValidInteractionType reports whether t is a known interaction type.
func ValidInteractionType(t string) bool {
	switch t {
	case InteractionView, InteractionLike, InteractionShare, InteractionComment, InteractionBookmark:
		return true
	}
	return false
}

// UserInteraction is one ledger row: a user's action on a post.
type UserInteraction struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"not null;index:idx_interactions_user_type,priority:1" json:"user_id"`
	PostID          uint              `gorm:"not null;index:idx_interactions_post_type,priority:1" json:"post_id"`
	Post            *Post             `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	InteractionType string            `gorm:"size:20;not null;index:idx_interactions_user_type,priority:2;index:idx_interactions_post_type,priority:2" json:"interaction_type"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
