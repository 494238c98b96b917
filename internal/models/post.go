// Package models contains data structures for the blog's domain models.
package models

import (
	"time"
)

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// ValidPostStatus reports whether s is a known post status.
func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post represents a blog post.
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	User            *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Slug            string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	ContentHTML     string     `gorm:"-" json:"content_html,omitempty"`
	Excerpt         string     `gorm:"size:500" json:"excerpt"`
	Status          string     `gorm:"size:20;not null;default:draft;index:idx_posts_status_published_at,priority:1" json:"status"`
	IsAIGenerated   bool       `gorm:"not null;default:false;index" json:"is_ai_generated"`
	PublishedAt     *time.Time `gorm:"index:idx_posts_status_published_at,priority:2" json:"published_at"`
	ViewCount       int64      `gorm:"not null;default:0;index" json:"view_count"`
	LikeCount       int64      `gorm:"not null;default:0;index" json:"like_count"`
	CommentCount    int64      `gorm:"not null;default:0" json:"comment_count"`
	FeaturedImage   string     `gorm:"size:2048" json:"featured_image"`
	MetaTitle       string     `gorm:"size:255" json:"meta_title"`
	MetaDescription string     `gorm:"size:500" json:"meta_description"`
	Tags            []Tag      `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsPublished reports whether the post is publicly visible at now.
func (p *Post) IsPublished(now time.Time) bool {
	return p.Status == PostStatusPublished && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// SentimentDistribution counts comments per sentiment label.
type SentimentDistribution struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`
}

// PostMetrics are read-time aggregates over the ledger and the comment thread.
type PostMetrics struct {
	RecentViews           int64                 `json:"recent_views"`
	RecentLikes           int64                 `json:"recent_likes"`
	RecentComments        int64                 `json:"recent_comments"`
	TrendingScore         float64               `json:"trending_score"`
	AverageSentiment      *float64              `json:"average_sentiment"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
}

// Trending score weights.
const (
	TrendingWindow        = 7 * 24 * time.Hour
	trendingViewWeight    = 1
	trendingLikeWeight    = 5
	trendingCommentWeight = 10
)

// TrendingScore is the fixed linear combination of recent activity.
func TrendingScore(views, likes, comments int64) float64 {
	return float64(views*trendingViewWeight + likes*trendingLikeWeight + comments*trendingCommentWeight)
}
