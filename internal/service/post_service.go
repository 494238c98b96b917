package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rmeditanala/blogml/internal/authz"
	"github.com/rmeditanala/blogml/internal/content"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"
	"github.com/rmeditanala/blogml/internal/repository"
	"github.com/rmeditanala/blogml/internal/search"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	maxTitleLen           = 255
	maxExcerptLen         = 500
	maxMetaTitleLen       = 255
	maxMetaDescriptionLen = 500
)

type PostService struct {
	posts        repository.PostRepository
	tags         repository.TagRepository
	index        search.Index
	resolveActor ActorResolver
	now          func() time.Time
}

// PostChanges carries the writable post fields. Nil means "not provided".
type PostChanges struct {
	Title           *string
	Slug            *string
	Content         *string
	Excerpt         *string
	Status          *string
	IsAIGenerated   *bool
	FeaturedImage   *string
	MetaTitle       *string
	MetaDescription *string
	TagIDs          *[]uint
}

type CreatePostInput struct {
	UserID uint
	PostChanges
}

type UpdatePostInput struct {
	ActorID  uint
	PostSlug string
	PostChanges
}

type ListPostsInput struct {
	ActorID       uint
	Status        string
	AuthorID      uint
	TagIDs        []uint
	Search        string
	IsAIGenerated *bool
	SortBy        string
	SortOrder     string
	Page          models.PageRequest
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []models.Post     `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

// PostDetail is a single post with its read-time metrics.
type PostDetail struct {
	Post    *models.Post
	Metrics *models.PostMetrics
}

func NewPostService(
	posts repository.PostRepository,
	tags repository.TagRepository,
	index search.Index,
	resolveActor ActorResolver,
) *PostService {
	if index == nil {
		index = search.Disabled{}
	}
	return &PostService{
		posts:        posts,
		tags:         tags,
		index:        index,
		resolveActor: resolveActor,
		now:          nowUTC,
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (page *PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ListPosts")
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	filter := repository.PostFilter{
		AuthorID:      in.AuthorID,
		TagIDs:        in.TagIDs,
		Search:        in.Search,
		IsAIGenerated: in.IsAIGenerated,
		SortBy:        in.SortBy,
		SortOrder:     in.SortOrder,
		Page:          in.Page.Normalize(PostsPerPage, MaxPostsPerPage),
	}
	if in.Status != "" && models.ValidPostStatus(in.Status) && authz.CanFilterPostStatus(actor, in.AuthorID) {
		filter.Status = in.Status
	} else {
		filter.PublishedAsOf = s.now()
	}

	return s.list(ctx, filter)
}

// UserPosts lists the caller's own posts in any status.
func (s *PostService) UserPosts(ctx context.Context, userID uint, status string, page models.PageRequest) (*PostPage, error) {
	filter := repository.PostFilter{
		AuthorID:  userID,
		SortBy:    "created_at",
		SortOrder: "desc",
		Page:      page.Normalize(PostsPerPage, MaxPostsPerPage),
	}
	if models.ValidPostStatus(status) {
		filter.Status = status
	}
	return s.list(ctx, filter)
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter) (*PostPage, error) {
	posts, total, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return &PostPage{Posts: posts, Pagination: models.NewPagination(total, filter.Page)}, nil
}

// SearchPosts queries the search index and falls back to SQL substring
// matching when the index cannot answer.
func (s *PostService) SearchPosts(ctx context.Context, query string, page models.PageRequest) (result *PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.SearchPosts")
	defer func() { span.End(err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewFieldValidationError(map[string]string{"q": "The q field is required."})
	}
	page = page.Normalize(PostsPerPage, MaxPostsPerPage)
	now := s.now()

	ids, total, err := s.index.Search(ctx, search.Query{
		Text:            query,
		Limit:           page.PerPage,
		Offset:          page.Offset(),
		PublishedBefore: now,
	})
	if err == nil {
		posts, loadErr := s.posts.GetByIDs(ctx, ids)
		if loadErr != nil {
			return nil, internal(loadErr)
		}
		visible := posts[:0]
		for _, p := range posts {
			if p.IsPublished(now) {
				visible = append(visible, p)
			}
		}
		return &PostPage{Posts: visible, Pagination: models.NewPagination(total, page)}, nil
	}
	if !errors.Is(err, search.ErrUnavailable) {
		slog.WarnContext(ctx, "search index query failed, using SQL fallback", "err", err)
	}

	return s.list(ctx, repository.PostFilter{
		PublishedAsOf: now,
		Search:        query,
		Page:          page,
	})
}

// GetPost loads a post visible to the caller with its metrics and rendered content.
func (s *PostService) GetPost(ctx context.Context, slug string, actorID uint) (detail *PostDetail, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.GetPost", attribute.String("post.slug", slug))
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.visiblePost(ctx, slug, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	metrics, err := s.posts.Metrics(ctx, post.ID, now.Add(-models.TrendingWindow))
	if err != nil {
		return nil, internal(err)
	}

	html, renderErr := content.RenderMarkdown(post.Content)
	if renderErr != nil {
		slog.WarnContext(ctx, "failed to render post content", "post_id", post.ID, "err", renderErr)
	}
	post.ContentHTML = html

	return &PostDetail{Post: post, Metrics: metrics}, nil
}

// visiblePost loads a post by slug, hiding it from callers who may not see it.
func (s *PostService) visiblePost(ctx context.Context, slug string, actor authz.Actor) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Post")
	}
	if !authz.CanViewPost(actor, post, s.now()) {
		return nil, models.NewHiddenError("Post")
	}
	return post, nil
}

// managedPost loads a post the caller must own or administer.
func (s *PostService) managedPost(ctx context.Context, slug string, actor authz.Actor, action string) (*models.Post, error) {
	post, err := s.visiblePost(ctx, slug, actor)
	if err != nil {
		return nil, err
	}
	if !authz.CanManagePost(actor, post) {
		return nil, models.NewForbiddenError(fmt.Sprintf("You are not allowed to %s this post", action))
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	defer func() { span.End(err) }()

	if err := s.validate(ctx, in.PostChanges, true); err != nil {
		return nil, err
	}

	now := s.now()
	post = &models.Post{
		UserID:    in.UserID,
		Title:     strings.TrimSpace(*in.Title),
		Content:   *in.Content,
		Status:    models.PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Status != nil {
		post.Status = *in.Status
	}
	if in.IsAIGenerated != nil {
		post.IsAIGenerated = *in.IsAIGenerated
	}
	if in.FeaturedImage != nil {
		post.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
	}

	if post.Slug, err = s.slugFor(ctx, in.Slug, post.Title); err != nil {
		return nil, err
	}

	post.Excerpt = content.Excerpt(post.Content)
	if in.Excerpt != nil && strings.TrimSpace(*in.Excerpt) != "" {
		post.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	post.MetaTitle = post.Title
	if in.MetaTitle != nil && strings.TrimSpace(*in.MetaTitle) != "" {
		post.MetaTitle = strings.TrimSpace(*in.MetaTitle)
	}
	post.MetaDescription = post.Excerpt
	if in.MetaDescription != nil && strings.TrimSpace(*in.MetaDescription) != "" {
		post.MetaDescription = strings.TrimSpace(*in.MetaDescription)
	}
	if post.Status == models.PostStatusPublished {
		post.PublishedAt = &now
	}

	var tagIDs []uint
	if in.TagIDs != nil {
		tagIDs = *in.TagIDs
	}
	if err := s.posts.Create(ctx, post, tagIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewFieldValidationError(map[string]string{"tags": "One or more selected tags are invalid."})
		}
		return nil, internal(err)
	}

	created, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, internal(err)
	}
	s.syncIndex(ctx, created)
	return created, nil
}

// slugFor honors a requested slug when it is free, else derives a unique one from title.
func (s *PostService) slugFor(ctx context.Context, requested *string, title string) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		slug := content.Slugify(*requested)
		taken, err := s.posts.SlugExists(ctx, slug)
		if err != nil {
			return "", internal(err)
		}
		if taken {
			return "", models.NewFieldValidationError(map[string]string{"slug": "The slug has already been taken."})
		}
		return slug, nil
	}
	slug, err := content.UniqueSlug(ctx, title, s.posts.SlugExists)
	if err != nil {
		return "", internal(err)
	}
	return slug, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost", attribute.String("post.slug", in.PostSlug))
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	post, err = s.managedPost(ctx, in.PostSlug, actor, "update")
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in.PostChanges, false); err != nil {
		return nil, err
	}

	now := s.now()
	fields := make([]string, 0, 10)

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title != post.Title {
			post.Title = title
			fields = append(fields, "title")
			if post.Slug == "" {
				if post.Slug, err = content.UniqueSlug(ctx, title, s.posts.SlugExists); err != nil {
					return nil, internal(err)
				}
				fields = append(fields, "slug")
			}
		}
	}
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" && content.Slugify(*in.Slug) != post.Slug {
		if post.Slug, err = s.slugFor(ctx, in.Slug, post.Title); err != nil {
			return nil, err
		}
		fields = append(fields, "slug")
	}
	if in.Content != nil {
		post.Content = *in.Content
		fields = append(fields, "content")
		if post.Excerpt == "" && in.Excerpt == nil {
			post.Excerpt = content.Excerpt(post.Content)
			fields = append(fields, "excerpt")
		}
	}
	if in.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*in.Excerpt)
		if post.Excerpt == "" {
			post.Excerpt = content.Excerpt(post.Content)
		}
		fields = append(fields, "excerpt")
	}
	if in.IsAIGenerated != nil {
		post.IsAIGenerated = *in.IsAIGenerated
		fields = append(fields, "is_ai_generated")
	}
	if in.FeaturedImage != nil {
		post.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
		fields = append(fields, "featured_image")
	}
	if in.MetaTitle != nil {
		post.MetaTitle = strings.TrimSpace(*in.MetaTitle)
		fields = append(fields, "meta_title")
	}
	if in.MetaDescription != nil {
		post.MetaDescription = strings.TrimSpace(*in.MetaDescription)
		fields = append(fields, "meta_description")
	}
	if in.Status != nil && *in.Status != post.Status {
		post.Status = *in.Status
		fields = append(fields, "status")
		if post.Status == models.PostStatusPublished && post.PublishedAt == nil {
			post.PublishedAt = &now
			fields = append(fields, "published_at")
		}
	}
	if len(fields) > 0 || in.TagIDs != nil {
		post.UpdatedAt = now
		fields = append(fields, "updated_at")
	}

	if err := s.posts.Update(ctx, post, fields, in.TagIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewFieldValidationError(map[string]string{"tags": "One or more selected tags are invalid."})
		}
		return nil, internal(err)
	}

	updated, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, internal(err)
	}
	s.syncIndex(ctx, updated)
	return updated, nil
}

func (s *PostService) DeletePost(ctx context.Context, slug string, actorID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost", attribute.String("post.slug", slug))
	defer func() { span.End(err) }()

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}
	post, err := s.managedPost(ctx, slug, actor, "delete")
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return notFoundAs(err, "Post")
	}
	if err := s.index.DeletePost(ctx, post.ID); err != nil {
		logIndexFailure(ctx, post.ID, err)
	}
	return nil
}

// validate collects field errors. Creation requires title and content.
func (s *PostService) validate(ctx context.Context, ch PostChanges, creating bool) error {
	fields := map[string]string{}

	requireText := func(name string, v *string, max int) {
		switch {
		case v == nil:
			if creating {
				fields[name] = fmt.Sprintf("The %s field is required.", name)
			}
		case strings.TrimSpace(*v) == "":
			fields[name] = fmt.Sprintf("The %s field is required.", name)
		case max > 0 && utf8.RuneCountInString(strings.TrimSpace(*v)) > max:
			fields[name] = fmt.Sprintf("The %s may not be greater than %d characters.", name, max)
		}
	}
	limitText := func(name string, v *string, max int) {
		if v != nil && utf8.RuneCountInString(strings.TrimSpace(*v)) > max {
			fields[name] = fmt.Sprintf("The %s may not be greater than %d characters.", strings.ReplaceAll(name, "_", " "), max)
		}
	}

	requireText("title", ch.Title, maxTitleLen)
	requireText("content", ch.Content, 0)
	limitText("excerpt", ch.Excerpt, maxExcerptLen)
	limitText("meta_title", ch.MetaTitle, maxMetaTitleLen)
	limitText("meta_description", ch.MetaDescription, maxMetaDescriptionLen)

	if ch.Status != nil && !models.ValidPostStatus(*ch.Status) {
		fields["status"] = "The selected status is invalid."
	}
	if ch.FeaturedImage != nil && strings.TrimSpace(*ch.FeaturedImage) != "" && !isHTTPURL(strings.TrimSpace(*ch.FeaturedImage)) {
		fields["featured_image"] = "The featured image must be a valid URL."
	}
	if ch.Slug != nil && strings.TrimSpace(*ch.Slug) != "" && content.Slugify(*ch.Slug) == "" {
		fields["slug"] = "The slug must contain letters or digits."
	}
	if ch.TagIDs != nil && len(*ch.TagIDs) > 0 {
		want := countDistinct(*ch.TagIDs)
		found, err := s.tags.CountByIDs(ctx, *ch.TagIDs)
		if err != nil {
			return internal(err)
		}
		if found != int64(want) {
			fields["tags"] = "One or more selected tags are invalid."
		}
	}

	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func countDistinct(ids []uint) int {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// syncIndex mirrors the post into the search index. Failures are logged only.
func (s *PostService) syncIndex(ctx context.Context, post *models.Post) {
	var err error
	if post.Status == models.PostStatusPublished {
		err = s.index.IndexPost(ctx, search.RecordFromPost(post))
	} else {
		err = s.index.DeletePost(ctx, post.ID)
	}
	if err != nil {
		logIndexFailure(ctx, post.ID, err)
	}
}

func logIndexFailure(ctx context.Context, postID uint, err error) {
	if errors.Is(err, search.ErrUnavailable) {
		return
	}
	slog.WarnContext(ctx, "failed to sync post to search index", "post_id", postID, "err", err)
}
