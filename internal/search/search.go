// Package search maintains the Meilisearch post index. Callers fall back to SQL
// substring search when the index is not configured or unhealthy.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/rmeditanala/blogml/internal/models"
)

// ErrUnavailable is returned when the index cannot serve a query.
var ErrUnavailable = errors.New("search index unavailable")

// PostRecord is the indexed projection of a post.
type PostRecord struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags"`
	Status        string   `json:"status"`
	AuthorID      uint     `json:"author_id"`
	IsAIGenerated bool     `json:"is_ai_generated"`
	PublishedAt   int64    `json:"published_at"`
}

// RecordFromPost builds the index projection for p.
func RecordFromPost(p *models.Post) PostRecord {
	rec := PostRecord{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		Content:       p.Content,
		Tags:          make([]string, 0, len(p.Tags)),
		Status:        p.Status,
		AuthorID:      p.UserID,
		IsAIGenerated: p.IsAIGenerated,
	}
	for _, t := range p.Tags {
		rec.Tags = append(rec.Tags, t.Name)
	}
	if p.PublishedAt != nil {
		rec.PublishedAt = p.PublishedAt.UTC().Unix()
	}
	return rec
}

// Query is a full-text search over published posts.
type Query struct {
	Text   string
	Limit  int
	Offset int
	// PublishedBefore excludes posts scheduled after this instant.
	PublishedBefore time.Time
}

// Index is the post search index.
type Index interface {
	IndexPost(ctx context.Context, rec PostRecord) error
	DeletePost(ctx context.Context, id uint) error
	// Search returns matching post IDs in rank order and the estimated total.
	Search(ctx context.Context, q Query) ([]uint, int64, error)
}

// Disabled is the Index used when no search backend is configured.
type Disabled struct{}

func (Disabled) IndexPost(context.Context, PostRecord) error { return nil }

func (Disabled) DeletePost(context.Context, uint) error { return nil }

func (Disabled) Search(context.Context, Query) ([]uint, int64, error) {
	return nil, 0, ErrUnavailable
}
