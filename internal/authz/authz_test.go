package authz

import (
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	anonymous = Actor{}
	owner     = Actor{ID: 1}
	stranger  = Actor{ID: 2}
	admin     = Actor{ID: 3, IsAdmin: true}
)

func TestIsOwnerRejectsAnonymous(t *testing.T) {
	assert.False(t, IsOwner(anonymous, 0))
	assert.True(t, IsOwner(owner, 1))
	assert.False(t, IsOwner(stranger, 1))
	assert.False(t, IsAdmin(Actor{IsAdmin: true}))
}

func TestCanViewPost(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	published := &models.Post{UserID: 1, Status: models.PostStatusPublished, PublishedAt: &past}
	scheduled := &models.Post{UserID: 1, Status: models.PostStatusPublished, PublishedAt: &future}
	draft := &models.Post{UserID: 1, Status: models.PostStatusDraft}

	tests := []struct {
		name  string
		actor Actor
		post  *models.Post
		want  bool
	}{
		{"anonymous sees published", anonymous, published, true},
		{"anonymous cannot see draft", anonymous, draft, false},
		{"anonymous cannot see scheduled", anonymous, scheduled, false},
		{"stranger cannot see draft", stranger, draft, false},
		{"owner sees draft", owner, draft, true},
		{"admin sees draft", admin, draft, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewPost(tt.actor, tt.post, now))
		})
	}
}

func TestCanFilterPostStatus(t *testing.T) {
	assert.True(t, CanFilterPostStatus(admin, 0))
	assert.True(t, CanFilterPostStatus(owner, 1))
	assert.False(t, CanFilterPostStatus(owner, 0))
	assert.False(t, CanFilterPostStatus(stranger, 1))
	assert.False(t, CanFilterPostStatus(anonymous, 0))
}

func TestCommentPredicates(t *testing.T) {
	now := time.Now()
	const postOwnerID = 4
	postOwner := Actor{ID: postOwnerID}

	pending := &models.Comment{UserID: 1, Status: models.CommentStatusPending, CreatedAt: now.Add(-10 * time.Minute)}

	assert.False(t, CanViewComment(anonymous, pending, postOwnerID))
	assert.False(t, CanViewComment(stranger, pending, postOwnerID))
	assert.True(t, CanViewComment(owner, pending, postOwnerID))
	assert.True(t, CanViewComment(postOwner, pending, postOwnerID))
	assert.True(t, CanViewComment(admin, pending, postOwnerID))

	assert.True(t, CanHardDeleteComment(postOwner, postOwnerID))
	assert.True(t, CanHardDeleteComment(admin, postOwnerID))
	assert.False(t, CanHardDeleteComment(owner, postOwnerID))
	assert.True(t, CanSoftDeleteComment(owner, pending))
	assert.False(t, CanSoftDeleteComment(stranger, pending))

	assert.True(t, CanFilterCommentStatus(postOwner, postOwnerID))
	assert.False(t, CanFilterCommentStatus(owner, postOwnerID))
}

func TestEditWindowOpen(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &models.Comment{UserID: 1, CreatedAt: created}

	assert.True(t, EditWindowOpen(c, created.Add(29*time.Minute)))
	assert.True(t, EditWindowOpen(c, created.Add(EditWindow)))
	assert.False(t, EditWindowOpen(c, created.Add(31*time.Minute)))
}

func TestCommentEditable(t *testing.T) {
	for status, want := range map[string]bool{
		models.CommentStatusApproved: true,
		models.CommentStatusPending:  true,
		models.CommentStatusRejected: false,
		models.CommentStatusSpam:     false,
	} {
		assert.Equal(t, want, CommentEditable(&models.Comment{Status: status}), status)
	}
}

func TestCommentPermissions(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &models.Comment{UserID: 1, CreatedAt: created}

	perms := CommentPermissions(owner, c, 4, created.Add(5*time.Minute))
	assert.Equal(t, models.CommentPermissions{CanEdit: true, CanDelete: true}, perms)

	perms = CommentPermissions(owner, c, 4, created.Add(time.Hour))
	assert.False(t, perms.CanEdit)

	perms = CommentPermissions(admin, c, 4, created)
	assert.Equal(t, models.CommentPermissions{CanDelete: true, CanModerate: true}, perms)

	perms = CommentPermissions(stranger, c, 4, created)
	assert.Equal(t, models.CommentPermissions{}, perms)

	withdrawn := &models.Comment{UserID: 1, CreatedAt: created, Status: models.CommentStatusRejected}
	perms = CommentPermissions(owner, withdrawn, 4, created.Add(5*time.Minute))
	assert.False(t, perms.CanEdit)
}
