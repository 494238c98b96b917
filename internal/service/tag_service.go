package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rmeditanala/blogml/internal/authz"
	"github.com/rmeditanala/blogml/internal/content"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/repository"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type TagService struct {
	tags         repository.TagRepository
	posts        repository.PostRepository
	resolveActor ActorResolver
	now          func() time.Time
}

type CreateTagInput struct {
	ActorID     uint
	Name        string
	Description string
	Color       string
	IsFeatured  bool
}

// TagDetail is a tag with a page of its published posts.
type TagDetail struct {
	Tag   *models.Tag
	Posts *PostPage
}

func NewTagService(tags repository.TagRepository, posts repository.PostRepository, resolveActor ActorResolver) *TagService {
	return &TagService{
		tags:         tags,
		posts:        posts,
		resolveActor: resolveActor,
		now:          nowUTC,
	}
}

func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.tags.List(ctx, s.now())
	if err != nil {
		return nil, internal(err)
	}
	return tags, nil
}

func (s *TagService) GetTag(ctx context.Context, slug string, page models.PageRequest) (*TagDetail, error) {
	tag, err := s.tags.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Tag")
	}
	page = page.Normalize(PostsPerPage, MaxPostsPerPage)
	posts, total, err := s.posts.List(ctx, repository.PostFilter{
		PublishedAsOf: s.now(),
		TagIDs:        []uint{tag.ID},
		Page:          page,
	})
	if err != nil {
		return nil, internal(err)
	}
	return &TagDetail{
		Tag:   tag,
		Posts: &PostPage{Posts: posts, Pagination: models.NewPagination(total, page)},
	}, nil
}

// CreateTag adds a tag to the catalog. Admin only.
func (s *TagService) CreateTag(ctx context.Context, in CreateTagInput) (*models.Tag, error) {
	actor, err := s.resolveActor(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	if !authz.IsAdmin(actor) {
		return nil, models.NewForbiddenError("Admin access required")
	}

	name := strings.TrimSpace(in.Name)
	color := strings.TrimSpace(in.Color)
	fields := map[string]string{}
	switch {
	case name == "":
		fields["name"] = "The name field is required."
	case utf8.RuneCountInString(name) > 100:
		fields["name"] = "The name may not be greater than 100 characters."
	case content.Slugify(name) == "":
		fields["name"] = "The name must contain letters or digits."
	default:
		taken, err := s.tags.NameExists(ctx, name)
		if err != nil {
			return nil, internal(err)
		}
		if taken {
			fields["name"] = "The name has already been taken."
		}
	}
	if color != "" && !hexColor.MatchString(color) {
		fields["color"] = "The color must be a hex value such as #3b82f6."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}
	if color == "" {
		color = models.DefaultTagColor
	}

	slug, err := content.UniqueSlug(ctx, name, s.tags.SlugExists)
	if err != nil {
		return nil, internal(err)
	}
	now := s.now()
	tag := &models.Tag{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		Color:       strings.ToLower(color),
		IsFeatured:  in.IsFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, internal(fmt.Errorf("create tag: %w", err))
	}
	return tag, nil
}
