package server

import (
	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/v1/posts/:slug/like
// @Summary Like post
// @Tags interactions
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} object{message=string,like_count=int}
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{slug}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	res, err := s.interactionService.Like(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": res.Message, "like_count": res.LikeCount})
}

// UnlikePost handles DELETE /api/v1/posts/:slug/like
// @Summary Unlike post
// @Tags interactions
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} object{message=string,like_count=int}
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{slug}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	res, err := s.interactionService.Unlike(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": res.Message, "like_count": res.LikeCount})
}

// ViewPost handles POST /api/v1/posts/:slug/view
// @Summary Record view
// @Description Repeat views by the same user within an hour are acknowledged but not counted.
// @Tags interactions
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} object{message=string,view_count=int}
// @Router /posts/{slug}/view [post]
func (s *Server) ViewPost(c *fiber.Ctx) error {
	res, err := s.interactionService.View(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": res.Message, "view_count": res.ViewCount})
}

// BookmarkPost handles POST /api/v1/posts/:slug/bookmark
// @Summary Bookmark post
// @Tags interactions
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} object{message=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{slug}/bookmark [post]
func (s *Server) BookmarkPost(c *fiber.Ctx) error {
	res, err := s.interactionService.Bookmark(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": res.Message})
}

// SharePost handles POST /api/v1/posts/:slug/share
// @Summary Share post
// @Tags interactions
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} object{message=string}
// @Router /posts/{slug}/share [post]
func (s *Server) SharePost(c *fiber.Ctx) error {
	res, err := s.interactionService.Share(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": res.Message})
}

// GetUserInteractions handles GET /api/v1/user/interactions
// @Summary Caller's interactions
// @Tags user
// @Security BearerAuth
// @Param type query string false "like|view|bookmark|share"
// @Success 200 {object} object{interactions=[]models.UserInteraction,pagination=models.Pagination}
// @Router /user/interactions [get]
func (s *Server) GetUserInteractions(c *fiber.Ctx) error {
	rows, pagination, err := s.interactionService.UserInteractions(c.UserContext(), currentUserID(c), c.Query("type"), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"interactions": rows,
		"pagination":   pagination,
	})
}
