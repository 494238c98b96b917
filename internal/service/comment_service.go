package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rmeditanala/blogml/internal/authz"
	"github.com/rmeditanala/blogml/internal/ml"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"
	"github.com/rmeditanala/blogml/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	minCommentLen = 3
	maxCommentLen = 2000

	// CommentCooldown is the rolling window allowing one comment per author per post.
	CommentCooldown = 5 * time.Minute

	replyPreviewLimit = 5
	maxShownReplies   = 100
)

type CommentService struct {
	comments     repository.CommentRepository
	posts        repository.PostRepository
	sentiment    ml.SentimentProvider
	resolveActor ActorResolver
	now          func() time.Time
}

type CreateCommentInput struct {
	UserID   uint
	PostSlug string
	Content  string
	ParentID *uint
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type ListCommentsInput struct {
	ActorID        uint
	PostSlug       string
	IncludeReplies bool
	Status         string
	Sentiment      string
	SortBy         string
	SortOrder      string
	Page           models.PageRequest
}

type UserCommentsInput struct {
	UserID         uint
	Status         string
	Sentiment      string
	IncludeReplies bool
	SortBy         string
	SortOrder      string
	Page           models.PageRequest
}

// CommentPage is one page of a thread listing.
type CommentPage struct {
	Comments   []models.Comment    `json:"comments"`
	Pagination models.Pagination   `json:"pagination"`
	Stats      models.CommentStats `json:"stats"`
}

// UserCommentStats summarizes everything a user has written.
type UserCommentStats struct {
	TotalComments    int64 `json:"total_comments"`
	ApprovedComments int64 `json:"approved_comments"`
	TotalWords       int64 `json:"total_words"`
}

// CommentDetail is a comment with the caller's capabilities on it.
type CommentDetail struct {
	Comment     *models.Comment
	Permissions models.CommentPermissions
}

// DeleteOutcome tells whether a delete removed rows or withdrew the comment.
type DeleteOutcome string

const (
	CommentHardDeleted DeleteOutcome = "deleted"
	CommentSoftDeleted DeleteOutcome = "withdrawn"
)

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	sentiment ml.SentimentProvider,
	resolveActor ActorResolver,
) *CommentService {
	if sentiment == nil {
		sentiment = ml.Placeholder{}
	}
	return &CommentService{
		comments:     comments,
		posts:        posts,
		sentiment:    sentiment,
		resolveActor: resolveActor,
		now:          nowUTC,
	}
}

func validateCommentContent(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return models.NewFieldValidationError(map[string]string{"content": "The content field is required."})
	case n < minCommentLen:
		return models.NewFieldValidationError(map[string]string{"content": fmt.Sprintf("The content must be at least %d characters.", minCommentLen)})
	case n > maxCommentLen:
		return models.NewFieldValidationError(map[string]string{"content": fmt.Sprintf("The content may not be greater than %d characters.", maxCommentLen)})
	}
	return nil
}

// ListForPost lists a post's thread. Public callers only see approved comments;
// the post owner and admins may filter by status.
func (s *CommentService) ListForPost(ctx context.Context, in ListCommentsInput) (page *CommentPage, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.ListForPost", attribute.String("post.slug", in.PostSlug))
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetBySlug(ctx, in.PostSlug)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}
	if !authz.CanViewPost(actor, post, s.now()) {
		return nil, models.NewHiddenError("Post")
	}

	filter := repository.CommentFilter{
		PostID:       post.ID,
		TopLevelOnly: !in.IncludeReplies,
		Sentiment:    strings.ToUpper(in.Sentiment),
		SortBy:       in.SortBy,
		SortOrder:    in.SortOrder,
		Page:         in.Page.Normalize(CommentsPerPage, MaxCommentsPerPage),
	}
	if authz.CanFilterCommentStatus(actor, post.UserID) {
		if models.ValidCommentStatus(in.Status) {
			filter.Statuses = []string{in.Status}
		}
	} else {
		filter.Statuses = []string{models.CommentStatusApproved}
	}

	comments, total, err := s.comments.List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	if !in.IncludeReplies {
		if err := s.attachReplies(ctx, comments, replyPreviewLimit); err != nil {
			return nil, err
		}
	}

	stats, err := s.comments.Stats(ctx, post.ID)
	if err != nil {
		return nil, internal(err)
	}
	return &CommentPage{
		Comments:   comments,
		Pagination: models.NewPagination(total, filter.Page),
		Stats:      stats,
	}, nil
}

// attachReplies fills Replies with up to limit newest approved replies per comment.
func (s *CommentService) attachReplies(ctx context.Context, comments []models.Comment, limit int) error {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		if !c.IsReply() {
			ids = append(ids, c.ID)
		}
	}
	replies, err := s.comments.LatestReplies(ctx, ids, models.CommentStatusApproved, limit)
	if err != nil {
		return internal(err)
	}
	for i := range comments {
		if r, ok := replies[comments[i].ID]; ok {
			comments[i].Replies = r
		} else if !comments[i].IsReply() {
			comments[i].Replies = []models.Comment{}
		}
	}
	return nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.CreateComment", attribute.String("post.slug", in.PostSlug))
	defer func() { span.End(err) }()

	now := s.now()
	post, err := s.posts.GetBySlug(ctx, in.PostSlug)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}
	if !post.IsPublished(now) {
		return nil, models.NewForbiddenError("Comments are only allowed on published posts")
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Invalid parent comment")
			}
			return nil, internal(err)
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Invalid parent comment")
		}
		if parent.IsReply() {
			return nil, models.NewValidationError("Replies can only be one level deep")
		}
	}

	recent, err := s.comments.ExistsSince(ctx, in.UserID, post.ID, now.Add(-CommentCooldown))
	if err != nil {
		return nil, internal(err)
	}
	if recent {
		return nil, models.NewRateLimitedError("Please wait a few minutes before posting another comment")
	}

	comment = &models.Comment{
		PostID:    post.ID,
		UserID:    in.UserID,
		ParentID:  in.ParentID,
		Content:   strings.TrimSpace(in.Content),
		Status:    models.CommentStatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.applySentiment(ctx, comment)

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, internal(err)
	}
	observability.InteractionsTotal.WithLabelValues(models.InteractionComment).Inc()

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, internal(err)
	}
	return created, nil
}

// applySentiment scores the comment, falling back to the placeholder on error.
func (s *CommentService) applySentiment(ctx context.Context, comment *models.Comment) {
	result, err := s.sentiment.AnalyzeSentiment(ctx, comment.Content)
	if err != nil || !models.ValidSentimentLabel(result.Label) {
		if err != nil {
			slog.WarnContext(ctx, "sentiment analysis failed, using placeholder", "err", err)
		}
		result, _ = ml.Placeholder{}.AnalyzeSentiment(ctx, comment.Content)
	}
	label := result.Label
	score := result.Score
	confidence := result.Confidence
	comment.SentimentLabel = &label
	comment.SentimentScore = &score
	comment.SentimentConfidence = &confidence
}

// GetComment shows a comment to callers allowed to see it, with their permissions.
func (s *CommentService) GetComment(ctx context.Context, id uint, actorID uint) (*CommentDetail, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Comment")
	}
	ownerID := postOwner(comment)
	if !authz.CanViewComment(actor, comment, ownerID) {
		return nil, models.NewHiddenError("Comment")
	}

	if !comment.IsReply() {
		shown := []models.Comment{*comment}
		if err := s.attachReplies(ctx, shown, maxShownReplies); err != nil {
			return nil, err
		}
		comment.Replies = shown[0].Replies
	}

	return &CommentDetail{
		Comment:     comment,
		Permissions: authz.CommentPermissions(actor, comment, ownerID, s.now()),
	}, nil
}

func postOwner(c *models.Comment) uint {
	if c.Post == nil {
		return 0
	}
	return c.Post.UserID
}

// UpdateComment lets the author rewrite a comment inside the edit window.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.UpdateComment")
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	comment, err = s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundAs(err, "Comment")
	}
	if !authz.CanEditComment(actor, comment) {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if !authz.CommentEditable(comment) {
		return nil, models.NewForbiddenError("Withdrawn or rejected comments cannot be edited")
	}
	now := s.now()
	if !authz.EditWindowOpen(comment, now) {
		return nil, models.NewForbiddenError("Comments can only be edited within 30 minutes of posting")
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Content)
	if text == comment.Content {
		return comment, nil
	}
	comment.Content = text
	if !comment.IsEdited {
		comment.IsEdited = true
		comment.EditedAt = &now
	}
	comment.UpdatedAt = now
	s.applySentiment(ctx, comment)

	if err := s.comments.UpdateContent(ctx, comment); err != nil {
		return nil, internal(err)
	}
	updated, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, internal(err)
	}
	return updated, nil
}

// DeleteComment hard-deletes for the post owner or an admin and withdraws the
// comment for an author who is neither.
func (s *CommentService) DeleteComment(ctx context.Context, id uint, actorID uint) (outcome DeleteOutcome, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.DeleteComment")
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return "", err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return "", notFoundAs(err, "Comment")
	}
	ownerID := postOwner(comment)

	switch {
	case authz.CanHardDeleteComment(actor, ownerID):
		if _, err := s.comments.HardDelete(ctx, comment); err != nil {
			return "", notFoundAs(err, "Comment")
		}
		return CommentHardDeleted, nil
	case authz.CanSoftDeleteComment(actor, comment):
		if err := s.comments.SoftDelete(ctx, comment.ID, models.DeletedCommentPlaceholder); err != nil {
			return "", internal(err)
		}
		return CommentSoftDeleted, nil
	default:
		return "", models.NewForbiddenError("You are not allowed to delete this comment")
	}
}

// UserComments lists the caller's comments with their posts.
func (s *CommentService) UserComments(ctx context.Context, in UserCommentsInput) (*CommentPage, *UserCommentStats, error) {
	filter := repository.CommentFilter{
		UserID:       in.UserID,
		TopLevelOnly: !in.IncludeReplies,
		Sentiment:    strings.ToUpper(in.Sentiment),
		SortBy:       in.SortBy,
		SortOrder:    in.SortOrder,
		WithPost:     true,
		Page:         in.Page.Normalize(CommentsPerPage, MaxInteractionsPerPage),
	}
	if models.ValidCommentStatus(in.Status) {
		filter.Statuses = []string{in.Status}
	}

	comments, total, err := s.comments.List(ctx, filter)
	if err != nil {
		return nil, nil, internal(err)
	}
	all, approved, words, err := s.comments.UserStats(ctx, in.UserID)
	if err != nil {
		return nil, nil, internal(err)
	}
	return &CommentPage{
			Comments:   comments,
			Pagination: models.NewPagination(total, filter.Page),
		}, &UserCommentStats{
			TotalComments:    all,
			ApprovedComments: approved,
			TotalWords:       words,
		}, nil
}
