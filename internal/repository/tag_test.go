package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository(t *testing.T) {
	db := setupSQLite(t)
	repo := NewTagRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "owner")

	featured := &models.Tag{Name: "Zeta", Slug: "zeta", Color: models.DefaultTagColor, IsFeatured: true}
	require.NoError(t, repo.Create(ctx, featured))
	plain := &models.Tag{Name: "Alpha", Slug: "alpha", Color: models.DefaultTagColor}
	require.NoError(t, repo.Create(ctx, plain))

	published := createPost(t, db, owner, models.PostStatusPublished, timePtr(testNow.Add(-time.Hour)))
	draft := createPost(t, db, owner, models.PostStatusDraft, nil)
	posts := NewPostRepository(db)
	require.NoError(t, posts.Update(ctx, published, nil, &[]uint{plain.ID}))
	require.NoError(t, posts.Update(ctx, draft, nil, &[]uint{plain.ID}))

	tags, err := repo.List(ctx, testNow)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Zeta", tags[0].Name)
	assert.Equal(t, int64(0), tags[0].PostCount)
	assert.Equal(t, int64(1), tags[1].PostCount)

	got, err := repo.GetBySlug(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, plain.ID, got.ID)

	exists, err := repo.NameExists(ctx, "zeta")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(ctx, "beta")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.CountByIDs(ctx, []uint{plain.ID, plain.ID, featured.ID, 404})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
