package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/rmeditanala/blogml/internal/middleware"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxPosts = "blogml_posts"

// Meili implements Index on Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
}

// NewMeili connects to Meilisearch and configures the post index. An unreachable
// server yields an unhealthy index that reports ErrUnavailable until the next
// successful write.
func NewMeili(url, apiKey string) *Meili {
	m := &Meili{client: meili.New(url, meili.WithAPIKey(apiKey))}

	if _, err := m.client.Health(); err != nil {
		middleware.Logger.Warn("search: meilisearch unavailable", slog.String("url", url), slog.String("error", err.Error()))
		return m
	}
	m.healthy.Store(true)
	m.configureIndex()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxPosts, PrimaryKey: "id"}); err != nil {
		middleware.Logger.Debug("search: create index (may already exist)", slog.String("error", err.Error()))
	}

	index := m.client.Index(idxPosts)
	filterable := []interface{}{"status", "author_id", "is_ai_generated", "published_at", "tags"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		middleware.Logger.Warn("search: update filterable attributes", slog.String("error", err.Error()))
	}
	searchable := []string{"title", "excerpt", "content", "tags"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		middleware.Logger.Warn("search: update searchable attributes", slog.String("error", err.Error()))
	}
}

// Healthy reports whether the last interaction with Meilisearch succeeded.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) IndexPost(_ context.Context, rec PostRecord) error {
	if _, err := m.client.Index(idxPosts).AddDocuments([]PostRecord{rec}, nil); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("meilisearch index post %d: %w", rec.ID, err)
	}
	m.healthy.Store(true)
	return nil
}

func (m *Meili) DeletePost(_ context.Context, id uint) error {
	if _, err := m.client.Index(idxPosts).DeleteDocument(strconv.FormatUint(uint64(id), 10), nil); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("meilisearch delete post %d: %w", id, err)
	}
	return nil
}

func (m *Meili) Search(_ context.Context, q Query) ([]uint, int64, error) {
	if !m.healthy.Load() {
		return nil, 0, ErrUnavailable
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}
	filters := []string{`status = "published"`}
	if !q.PublishedBefore.IsZero() {
		filters = append(filters, fmt.Sprintf("published_at <= %d", q.PublishedBefore.Unix()))
	}

	resp, err := m.client.Index(idxPosts).Search(q.Text, &meili.SearchRequest{
		Limit:                limit,
		Offset:               int64(q.Offset),
		Filter:               filters,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]uint, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if id, ok := decodeID(hit); ok {
			ids = append(ids, id)
		}
	}
	return ids, resp.EstimatedTotalHits, nil
}

func decodeID(hit meili.Hit) (uint, bool) {
	raw, ok := hit["id"]
	if !ok {
		return 0, false
	}
	var id uint
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, false
	}
	return id, true
}
