package repository

import (
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustPostCounter(t *testing.T) {
	db := setupSQLite(t)
	owner := createUser(t, db, "owner")
	post := createPost(t, db, owner, models.PostStatusPublished, timePtr(testNow.Add(-time.Hour)))

	require.NoError(t, adjustPostCounter(db, post.ID, CounterViews, 3))
	require.NoError(t, adjustPostCounter(db, post.ID, CounterViews, -1))
	assert.Equal(t, int64(2), reloadPost(t, db, post.ID).ViewCount)

	t.Run("decrement clamps at zero", func(t *testing.T) {
		require.NoError(t, adjustPostCounter(db, post.ID, CounterLikes, -4))
		assert.Equal(t, int64(0), reloadPost(t, db, post.ID).LikeCount)
	})

	t.Run("zero delta is a no-op", func(t *testing.T) {
		require.NoError(t, adjustPostCounter(db, post.ID, CounterComments, 0))
		assert.Equal(t, int64(0), reloadPost(t, db, post.ID).CommentCount)
	})

	t.Run("unknown column", func(t *testing.T) {
		assert.Error(t, adjustPostCounter(db, post.ID, "title", 1))
	})
}

func TestCounterFor(t *testing.T) {
	tests := []struct {
		interaction string
		column      string
		ok          bool
	}{
		{models.InteractionView, CounterViews, true},
		{models.InteractionLike, CounterLikes, true},
		{models.InteractionShare, "", false},
		{models.InteractionComment, "", false},
		{models.InteractionBookmark, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.interaction, func(t *testing.T) {
			column, ok := counterFor(tt.interaction)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.column, column)
		})
	}
}
