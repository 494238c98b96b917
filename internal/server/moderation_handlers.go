package server

import (
	"github.com/rmeditanala/blogml/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminPosts handles GET /api/v1/admin/posts
// @Summary All posts (admin)
// @Tags admin
// @Security BearerAuth
// @Param status query string false "Status"
// @Param author_id query int false "Author"
// @Param search query string false "Search"
// @Success 200 {object} service.PostPage
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/posts [get]
func (s *Server) AdminPosts(c *fiber.Ctx) error {
	page, err := s.moderationService.AdminPosts(c.UserContext(), service.AdminPostsInput{
		ActorID:  currentUserID(c),
		Status:   c.Query("status"),
		AuthorID: queryUint(c, "author_id"),
		Search:   c.Query("search"),
		Page:     parsePagination(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// UpdatePostStatus handles PUT /api/v1/admin/posts/:slug/status
// @Summary Change post status (admin)
// @Tags admin
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body object{status=string} true "New status"
// @Success 200 {object} object{message=string,post=models.Post}
// @Router /admin/posts/{slug}/status [put]
func (s *Server) UpdatePostStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.moderationService.UpdatePostStatus(c.UserContext(), currentUserID(c), c.Params("slug"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Post status updated successfully",
		"post":    post,
	})
}

// AdminComments handles GET /api/v1/admin/comments
// @Summary All comments (admin)
// @Tags admin
// @Security BearerAuth
// @Param status query string false "Status"
// @Param sentiment query string false "Sentiment"
// @Param min_confidence query number false "Minimum sentiment confidence"
// @Param user_id query int false "Author"
// @Param post_id query int false "Post"
// @Param parent_id query string false "Parent comment id, or null for top-level only"
// @Param search query string false "Content search"
// @Success 200 {object} service.CommentPage
// @Router /admin/comments [get]
func (s *Server) AdminComments(c *fiber.Ctx) error {
	in := service.AdminCommentsInput{
		ActorID:       currentUserID(c),
		Status:        c.Query("status"),
		Sentiment:     c.Query("sentiment"),
		UserID:        queryUint(c, "user_id"),
		PostID:        queryUint(c, "post_id"),
		Search:        c.Query("search"),
		MinConfidence: queryFloat(c, "min_confidence"),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
		Page:          parsePagination(c),
	}
	switch raw := c.Query("parent_id"); {
	case raw == "null":
		in.TopLevelOnly = true
	case raw != "":
		if id := queryUint(c, "parent_id"); id > 0 {
			in.ParentID = &id
		}
	}

	page, err := s.moderationService.AdminComments(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// ModerateComment handles PUT /api/v1/admin/comments/:id/status
// @Summary Moderate comment (admin)
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body object{status=string,reason=string} true "Decision"
// @Success 200 {object} object{message=string,comment=models.Comment}
// @Router /admin/comments/{id}/status [put]
func (s *Server) ModerateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.moderationService.ModerateComment(c.UserContext(), service.ModerateCommentInput{
		ActorID:   currentUserID(c),
		CommentID: id,
		Status:    req.Status,
		Reason:    req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Comment status updated successfully",
		"comment": comment,
	})
}
