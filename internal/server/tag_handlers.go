package server

import (
	"github.com/rmeditanala/blogml/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTags handles GET /api/v1/tags
// @Summary List tags
// @Description Every tag with its count of published posts.
// @Tags tags
// @Produce json
// @Success 200 {object} object{tags=[]models.Tag}
// @Router /tags [get]
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.tagService.ListTags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// GetTag handles GET /api/v1/tags/:slug
// @Summary Get tag
// @Tags tags
// @Produce json
// @Param slug path string true "Tag slug"
// @Success 200 {object} object{tag=models.Tag,posts=[]models.Post,pagination=models.Pagination}
// @Failure 404 {object} models.ErrorResponse
// @Router /tags/{slug} [get]
func (s *Server) GetTag(c *fiber.Ctx) error {
	detail, err := s.tagService.GetTag(c.UserContext(), c.Params("slug"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"tag":        detail.Tag,
		"posts":      detail.Posts.Posts,
		"pagination": detail.Posts.Pagination,
	})
}

// CreateTag handles POST /api/v1/admin/tags
// @Summary Create tag
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Param request body object{name=string,description=string,color=string,is_featured=bool} true "Tag"
// @Success 201 {object} object{message=string,tag=models.Tag}
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/tags [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
		IsFeatured  bool   `json:"is_featured"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	tag, err := s.tagService.CreateTag(c.UserContext(), service.CreateTagInput{
		ActorID:     currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Tag created successfully",
		"tag":     tag,
	})
}
