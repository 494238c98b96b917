package service

import (
	"context"
	"errors"
	"time"

	"github.com/rmeditanala/blogml/internal/authz"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"
	"github.com/rmeditanala/blogml/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ViewDedupWindow suppresses repeated views of a post by the same user.
const ViewDedupWindow = time.Hour

// InteractionService records likes, views, bookmarks and shares in the ledger.
type InteractionService struct {
	posts        repository.PostRepository
	interactions repository.InteractionRepository
	resolveActor ActorResolver
	now          func() time.Time
}

// InteractionResult reports the outcome and the counter the interaction drives.
type InteractionResult struct {
	Message   string
	Post      *models.Post
	Recorded  bool
	LikeCount int64
	ViewCount int64
}

func NewInteractionService(
	posts repository.PostRepository,
	interactions repository.InteractionRepository,
	resolveActor ActorResolver,
) *InteractionService {
	return &InteractionService{
		posts:        posts,
		interactions: interactions,
		resolveActor: resolveActor,
		now:          nowUTC,
	}
}

func (s *InteractionService) Like(ctx context.Context, slug string, userID uint) (*InteractionResult, error) {
	return s.toggleOn(ctx, slug, userID, models.InteractionLike, "Post liked successfully", "Post already liked")
}

func (s *InteractionService) Bookmark(ctx context.Context, slug string, userID uint) (*InteractionResult, error) {
	return s.toggleOn(ctx, slug, userID, models.InteractionBookmark, "Post bookmarked successfully", "Post already bookmarked")
}

func (s *InteractionService) Unlike(ctx context.Context, slug string, userID uint) (res *InteractionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService.Unlike", attribute.String("post.slug", slug))
	defer func() { span.End(err) }()

	post, err := s.visiblePost(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	removed, err := s.interactions.Remove(ctx, userID, post.ID, models.InteractionLike)
	if err != nil {
		return nil, internal(err)
	}
	if removed == 0 {
		return nil, models.NewConflictError("Post not liked")
	}
	return s.result(ctx, post.ID, "Post unliked successfully", true)
}

// View records a view of a published post unless the user viewed it within
// ViewDedupWindow; a suppressed view still reports success.
func (s *InteractionService) View(ctx context.Context, slug string, userID uint) (res *InteractionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService.View", attribute.String("post.slug", slug))
	defer func() { span.End(err) }()

	now := s.now()
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}
	if !post.IsPublished(now) {
		return nil, models.NewHiddenError("Post")
	}

	recent, err := s.interactions.ExistsSince(ctx, userID, post.ID, models.InteractionView, now.Add(-ViewDedupWindow))
	if err != nil {
		return nil, internal(err)
	}
	if recent {
		return s.result(ctx, post.ID, "View recorded successfully", false)
	}

	if err := s.interactions.Record(ctx, s.entry(userID, post.ID, models.InteractionView)); err != nil {
		return nil, internal(err)
	}
	observability.InteractionsTotal.WithLabelValues(models.InteractionView).Inc()
	return s.result(ctx, post.ID, "View recorded successfully", true)
}

// Share appends a share row; shares have no counter.
func (s *InteractionService) Share(ctx context.Context, slug string, userID uint) (*InteractionResult, error) {
	post, err := s.visiblePost(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if err := s.interactions.Record(ctx, s.entry(userID, post.ID, models.InteractionShare)); err != nil {
		return nil, internal(err)
	}
	observability.InteractionsTotal.WithLabelValues(models.InteractionShare).Inc()
	return s.result(ctx, post.ID, "Post shared successfully", true)
}

// UserInteractions lists the caller's ledger rows, optionally of one type.
func (s *InteractionService) UserInteractions(ctx context.Context, userID uint, interactionType string, page models.PageRequest) ([]models.UserInteraction, models.Pagination, error) {
	if interactionType != "" && !models.ValidInteractionType(interactionType) {
		return nil, models.Pagination{}, models.NewFieldValidationError(map[string]string{"type": "The selected type is invalid."})
	}
	page = page.Normalize(InteractionsPerPage, MaxInteractionsPerPage)
	rows, total, err := s.interactions.ListByUser(ctx, userID, interactionType, page)
	if err != nil {
		return nil, models.Pagination{}, internal(err)
	}
	return rows, models.NewPagination(total, page), nil
}

func (s *InteractionService) toggleOn(ctx context.Context, slug string, userID uint, kind, okMessage, dupMessage string) (res *InteractionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService."+kind, attribute.String("post.slug", slug))
	defer func() { span.End(err) }()

	post, err := s.visiblePost(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	err = s.interactions.Record(ctx, s.entry(userID, post.ID, kind))
	if errors.Is(err, repository.ErrDuplicateInteraction) {
		return nil, models.NewConflictError(dupMessage)
	}
	if err != nil {
		return nil, internal(err)
	}
	observability.InteractionsTotal.WithLabelValues(kind).Inc()
	return s.result(ctx, post.ID, okMessage, true)
}

func (s *InteractionService) visiblePost(ctx context.Context, slug string, userID uint) (*models.Post, error) {
	actor, err := s.resolveActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}
	if !authz.CanViewPost(actor, post, s.now()) {
		return nil, models.NewHiddenError("Post")
	}
	return post, nil
}

func (s *InteractionService) entry(userID, postID uint, kind string) *models.UserInteraction {
	now := s.now()
	return &models.UserInteraction{
		UserID:          userID,
		PostID:          postID,
		InteractionType: kind,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// result reloads the post so the response carries committed counter values.
func (s *InteractionService) result(ctx context.Context, postID uint, message string, recorded bool) (*InteractionResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}
	return &InteractionResult{
		Message:   message,
		Post:      post,
		Recorded:  recorded,
		LikeCount: post.LikeCount,
		ViewCount: post.ViewCount,
	}, nil
}
