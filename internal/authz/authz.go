// Package authz holds the ownership and role predicates shared by every service.
// Predicates are pure: callers resolve the Actor once and pass loaded entities in.
package authz

import (
	"time"

	"github.com/rmeditanala/blogml/internal/models"
)

// EditWindow is how long after posting an author may edit a comment.
const EditWindow = 30 * time.Minute

// Actor is the caller of an operation. The zero value is an anonymous caller.
type Actor struct {
	ID      uint
	IsAdmin bool
}

// Anonymous reports whether the actor is unauthenticated.
func (a Actor) Anonymous() bool {
	return a.ID == 0
}

// IsOwner reports whether the actor owns a resource owned by ownerID.
func IsOwner(a Actor, ownerID uint) bool {
	return !a.Anonymous() && a.ID == ownerID
}

// IsAdmin reports whether the actor is an administrator.
func IsAdmin(a Actor) bool {
	return !a.Anonymous() && a.IsAdmin
}

// CanViewPost: published posts are public, everything else is owner or admin only.
func CanViewPost(a Actor, p *models.Post, now time.Time) bool {
	return p.IsPublished(now) || CanManagePost(a, p)
}

// CanManagePost covers update, delete and viewing unpublished state.
func CanManagePost(a Actor, p *models.Post) bool {
	return IsOwner(a, p.UserID) || IsAdmin(a)
}

// CanFilterPostStatus reports whether a listing may honor a status filter.
// Admins may always; other callers only when listing their own posts.
func CanFilterPostStatus(a Actor, authorFilter uint) bool {
	return IsAdmin(a) || (authorFilter != 0 && IsOwner(a, authorFilter))
}

// CanViewComment: approved comments are public; the author, the post owner and admins see the rest.
func CanViewComment(a Actor, c *models.Comment, postOwnerID uint) bool {
	return c.Status == models.CommentStatusApproved ||
		IsOwner(a, c.UserID) ||
		IsOwner(a, postOwnerID) ||
		IsAdmin(a)
}

// CanEditComment reports authorship; the time limit is checked by EditWindowOpen.
func CanEditComment(a Actor, c *models.Comment) bool {
	return IsOwner(a, c.UserID)
}

// CommentEditable reports whether c's status still allows content edits.
// Withdrawn (rejected) and spam comments are frozen.
func CommentEditable(c *models.Comment) bool {
	return c.Status != models.CommentStatusRejected && c.Status != models.CommentStatusSpam
}

// EditWindowOpen reports whether c is still inside the edit window at now.
func EditWindowOpen(c *models.Comment, now time.Time) bool {
	return now.Sub(c.CreatedAt) <= EditWindow
}

// CanHardDeleteComment: the post owner or an admin removes the row outright.
func CanHardDeleteComment(a Actor, postOwnerID uint) bool {
	return IsOwner(a, postOwnerID) || IsAdmin(a)
}

// CanSoftDeleteComment: an author without hard-delete rights can only withdraw the comment.
func CanSoftDeleteComment(a Actor, c *models.Comment) bool {
	return IsOwner(a, c.UserID)
}

// CanFilterCommentStatus reports whether a thread listing may show non-approved comments.
func CanFilterCommentStatus(a Actor, postOwnerID uint) bool {
	return IsOwner(a, postOwnerID) || IsAdmin(a)
}

// CanModerate reports whether the actor may change comment or post status administratively.
func CanModerate(a Actor) bool {
	return IsAdmin(a)
}

// CommentPermissions evaluates the per-comment capabilities shown to the caller.
func CommentPermissions(a Actor, c *models.Comment, postOwnerID uint, now time.Time) models.CommentPermissions {
	return models.CommentPermissions{
		CanEdit:     CanEditComment(a, c) && CommentEditable(c) && EditWindowOpen(c, now),
		CanDelete:   CanHardDeleteComment(a, postOwnerID) || CanSoftDeleteComment(a, c),
		CanModerate: CanModerate(a),
	}
}
