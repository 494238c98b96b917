package models

import (
	"strings"
	"time"
)

// Comment statuses.
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
	CommentStatusSpam     = "spam"
)

// Sentiment labels.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// DeletedCommentPlaceholder replaces the content of a comment withdrawn by its author.
const DeletedCommentPlaceholder = "[Comment deleted by author]"

// ValidCommentStatus reports whether s is a known comment status.
func ValidCommentStatus(s string) bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusRejected, CommentStatusSpam:
		return true
	}
	return false
}

// ValidSentimentLabel reports whether s is a known sentiment label.
func ValidSentimentLabel(s string) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Comment is a post comment. Replies reference a top-level comment through ParentID.
type Comment struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	PostID              uint       `gorm:"not null;index:idx_comments_post_status,priority:1" json:"post_id"`
	Post                *Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	UserID              uint       `gorm:"not null;index" json:"user_id"`
	User                *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ParentID            *uint      `gorm:"index" json:"parent_id"`
	Parent              *Comment   `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Replies             []Comment  `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	Content             string     `gorm:"type:text;not null" json:"content"`
	Status              string     `gorm:"size:20;not null;default:pending;index:idx_comments_post_status,priority:2" json:"status"`
	SentimentScore      *float64   `gorm:"type:decimal(5,4)" json:"sentiment_score"`
	SentimentLabel      *string    `gorm:"size:20;index" json:"sentiment_label"`
	SentimentConfidence *float64   `gorm:"type:decimal(5,4)" json:"sentiment_confidence"`
	IsEdited            bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt            *time.Time `json:"edited_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsReply reports whether the comment has a parent.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// WordCount counts whitespace separated words in the content.
func (c *Comment) WordCount() int {
	return len(strings.Fields(c.Content))
}

// CommentStats summarizes a comment listing.
type CommentStats struct {
	TotalComments    int64 `json:"total_comments"`
	ApprovedComments int64 `json:"approved_comments"`
	PendingComments  int64 `json:"pending_comments"`
}

// CommentPermissions describes what the caller may do with a comment.
type CommentPermissions struct {
	CanEdit     bool `json:"can_edit"`
	CanDelete   bool `json:"can_delete"`
	CanModerate bool `json:"can_moderate"`
}
