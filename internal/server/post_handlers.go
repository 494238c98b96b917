package server

import (
	"github.com/rmeditanala/blogml/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the writable post payload. Absent fields are left unchanged
// on update; "tags": [] detaches every tag.
type postRequest struct {
	Title           *string `json:"title"`
	Slug            *string `json:"slug"`
	Content         *string `json:"content"`
	Excerpt         *string `json:"excerpt"`
	Status          *string `json:"status"`
	IsAIGenerated   *bool   `json:"is_ai_generated"`
	FeaturedImage   *string `json:"featured_image"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
	Tags            *[]uint `json:"tags"`
}

func (r postRequest) changes() service.PostChanges {
	return service.PostChanges{
		Title:           r.Title,
		Slug:            r.Slug,
		Content:         r.Content,
		Excerpt:         r.Excerpt,
		Status:          r.Status,
		IsAIGenerated:   r.IsAIGenerated,
		FeaturedImage:   r.FeaturedImage,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		TagIDs:          r.Tags,
	}
}

// GetPosts handles GET /api/v1/posts
// @Summary List posts
// @Description Published posts by default; status filtering is limited to admins and authors filtering their own posts.
// @Tags posts
// @Produce json
// @Param status query string false "draft|published|archived"
// @Param author_id query int false "Author"
// @Param tags query string false "Comma separated tag ids"
// @Param search query string false "Substring over title, content and excerpt"
// @Param is_ai_generated query bool false "AI generated only"
// @Param sort_by query string false "published_at|created_at|updated_at|title|view_count|like_count|comment_count"
// @Param sort_order query string false "asc|desc"
// @Param page query int false "Page"
// @Param per_page query int false "Per page (max 50)"
// @Success 200 {object} service.PostPage
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		ActorID:       s.optionalUserID(c),
		Status:        c.Query("status"),
		AuthorID:      queryUint(c, "author_id"),
		TagIDs:        queryUintList(c, "tags"),
		Search:        c.Query("search"),
		IsAIGenerated: queryBool(c, "is_ai_generated"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
		Page:          parsePagination(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// SearchPosts handles GET /api/v1/posts/search?q=...
// @Summary Search posts
// @Tags posts
// @Produce json
// @Param q query string true "Query"
// @Success 200 {object} service.PostPage
// @Failure 422 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page, err := s.postService.SearchPosts(c.UserContext(), c.Query("q"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/v1/posts/:slug
// @Summary Get post
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} object{post=models.Post,sentiment_distribution=models.SentimentDistribution,average_sentiment=number,trending_score=number}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	detail, err := s.postService.GetPost(c.UserContext(), c.Params("slug"), s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":                   detail.Post,
		"sentiment_distribution": detail.Metrics.SentimentDistribution,
		"average_sentiment":      detail.Metrics.AverageSentiment,
		"trending_score":         detail.Metrics.TrendingScore,
	})
}

// CreatePost handles POST /api/v1/posts
// @Summary Create post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body postRequest true "Post"
// @Success 201 {object} object{message=string,post=models.Post}
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      currentUserID(c),
		PostChanges: req.changes(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// UpdatePost handles PUT /api/v1/posts/:slug
// @Summary Update post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param slug path string true "Post slug"
// @Param request body postRequest true "Changed fields"
// @Success 200 {object} object{message=string,post=models.Post}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{slug} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		ActorID:     currentUserID(c),
		PostSlug:    c.Params("slug"),
		PostChanges: req.changes(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// DeletePost handles DELETE /api/v1/posts/:slug
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} object{message=string}
// @Router /posts/{slug} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	if err := s.postService.DeletePost(c.UserContext(), c.Params("slug"), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// GetUserPosts handles GET /api/v1/user/posts
// @Summary Caller's posts
// @Tags user
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} service.PostPage
// @Router /user/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page, err := s.postService.UserPosts(c.UserContext(), currentUserID(c), c.Query("status"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
