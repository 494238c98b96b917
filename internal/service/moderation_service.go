package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rmeditanala/blogml/internal/authz"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"
	"github.com/rmeditanala/blogml/internal/repository"
	"github.com/rmeditanala/blogml/internal/search"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

const maxModerationReasonLen = 500

// Activity log vocabulary.
const (
	SubjectComment        = "comment"
	EventCommentModerated = "comment_moderated"
)

// ModerationService provides the admin views and status changes over posts and comments.
type ModerationService struct {
	posts        repository.PostRepository
	comments     repository.CommentRepository
	index        search.Index
	resolveActor ActorResolver
	now          func() time.Time
}

type AdminPostsInput struct {
	ActorID  uint
	Status   string
	AuthorID uint
	Search   string
	Page     models.PageRequest
}

type AdminCommentsInput struct {
	ActorID       uint
	Status        string
	Sentiment     string
	UserID        uint
	PostID        uint
	Search        string
	MinConfidence *float64
	// TopLevelOnly and ParentID narrow by thread position; ParentID wins when both are set.
	TopLevelOnly bool
	ParentID     *uint
	SortBy       string
	SortOrder    string
	Page         models.PageRequest
}

type ModerateCommentInput struct {
	ActorID   uint
	CommentID uint
	Status    string
	Reason    string
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	index search.Index,
	resolveActor ActorResolver,
) *ModerationService {
	if index == nil {
		index = search.Disabled{}
	}
	return &ModerationService{
		posts:        posts,
		comments:     comments,
		index:        index,
		resolveActor: resolveActor,
		now:          nowUTC,
	}
}

func (s *ModerationService) requireAdmin(ctx context.Context, actorID uint) (authz.Actor, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return actor, err
	}
	if !authz.CanModerate(actor) {
		return actor, models.NewForbiddenError("Admin access required")
	}
	return actor, nil
}

// AdminPosts lists every post regardless of status.
func (s *ModerationService) AdminPosts(ctx context.Context, in AdminPostsInput) (*PostPage, error) {
	if _, err := s.requireAdmin(ctx, in.ActorID); err != nil {
		return nil, err
	}
	filter := repository.PostFilter{
		AuthorID:  in.AuthorID,
		Search:    in.Search,
		SortBy:    "created_at",
		SortOrder: "desc",
		Page:      in.Page.Normalize(AdminPostsPerPage, MaxAdminPostsPerPage),
	}
	if models.ValidPostStatus(in.Status) {
		filter.Status = in.Status
	}
	posts, total, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return &PostPage{Posts: posts, Pagination: models.NewPagination(total, filter.Page)}, nil
}

// UpdatePostStatus moves a post between draft, published and archived.
// published_at is stamped on the first publication only.
func (s *ModerationService) UpdatePostStatus(ctx context.Context, actorID uint, slug, status string) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "ModerationService.UpdatePostStatus", attribute.String("post.slug", slug))
	defer func() { span.End(err) }()

	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if !models.ValidPostStatus(status) {
		return nil, models.NewFieldValidationError(map[string]string{"status": "The selected status is invalid."})
	}
	post, err = s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}

	var publishedAt *time.Time
	if status == models.PostStatusPublished && post.PublishedAt == nil {
		now := s.now()
		publishedAt = &now
	}
	if err := s.posts.UpdateStatus(ctx, post.ID, status, publishedAt); err != nil {
		return nil, internal(err)
	}

	post, err = s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, internal(err)
	}
	var indexErr error
	if post.Status == models.PostStatusPublished {
		indexErr = s.index.IndexPost(ctx, search.RecordFromPost(post))
	} else {
		indexErr = s.index.DeletePost(ctx, post.ID)
	}
	if indexErr != nil {
		logIndexFailure(ctx, post.ID, indexErr)
	}
	return post, nil
}

// AdminComments lists comments across all posts with moderation filters.
func (s *ModerationService) AdminComments(ctx context.Context, in AdminCommentsInput) (*CommentPage, error) {
	if _, err := s.requireAdmin(ctx, in.ActorID); err != nil {
		return nil, err
	}
	filter := repository.CommentFilter{
		PostID:        in.PostID,
		UserID:        in.UserID,
		Sentiment:     strings.ToUpper(in.Sentiment),
		Search:        in.Search,
		MinConfidence: in.MinConfidence,
		SortBy:        in.SortBy,
		SortOrder:     in.SortOrder,
		WithPost:      true,
		Page:          in.Page.Normalize(AdminCommentsPerPage, MaxAdminCommentsPerPage),
	}
	if in.ParentID != nil {
		filter.ParentID = in.ParentID
	} else {
		filter.TopLevelOnly = in.TopLevelOnly
	}
	if models.ValidCommentStatus(in.Status) {
		filter.Statuses = []string{in.Status}
	}

	comments, total, err := s.comments.List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return &CommentPage{Comments: comments, Pagination: models.NewPagination(total, filter.Page)}, nil
}

// ModerateComment changes a comment's status and records the action in the
// activity log. comment_count is unchanged: it counts rows in any status.
func (s *ModerationService) ModerateComment(ctx context.Context, in ModerateCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "ModerationService.ModerateComment")
	defer func() { span.End(err) }()

	actor, err := s.requireAdmin(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if !models.ValidCommentStatus(in.Status) {
		fields["status"] = "The selected status is invalid."
	}
	if utf8.RuneCountInString(in.Reason) > maxModerationReasonLen {
		fields["reason"] = "The reason may not be greater than 500 characters."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	comment, err = s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundAs(err, "Comment")
	}

	props := datatypes.JSONMap{
		"old_status": comment.Status,
		"new_status": in.Status,
		"reason":     nil,
	}
	if reason := strings.TrimSpace(in.Reason); reason != "" {
		props["reason"] = reason
	}
	entry := &models.ActivityLog{
		CauserID:    actor.ID,
		SubjectType: SubjectComment,
		SubjectID:   comment.ID,
		Event:       EventCommentModerated,
		Properties:  props,
		CreatedAt:   s.now(),
	}
	if err := s.comments.UpdateStatus(ctx, comment, in.Status, entry); err != nil {
		return nil, internal(err)
	}
	observability.CommentsModeratedTotal.WithLabelValues(in.Status).Inc()
	return comment, nil
}
