package server

import (
	"github.com/rmeditanala/blogml/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

// GetPostComments handles GET /api/v1/posts/:slug/comments
// @Summary List comments on a post
// @Tags comments
// @Produce json
// @Param slug path string true "Post slug"
// @Param include_replies query bool false "List replies inline (default false: top-level only with latest replies attached)"
// @Param status query string false "Status (post owner and admins only)"
// @Param sentiment query string false "POSITIVE|NEGATIVE|NEUTRAL"
// @Param sort_by query string false "created_at|sentiment_score"
// @Param sort_order query string false "asc|desc"
// @Success 200 {object} service.CommentPage
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug}/comments [get]
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	page, err := s.commentService.ListForPost(c.UserContext(), service.ListCommentsInput{
		ActorID:        s.optionalUserID(c),
		PostSlug:       c.Params("slug"),
		IncludeReplies: boolOr(c, "include_replies", false),
		Status:         c.Query("status"),
		Sentiment:      c.Query("sentiment"),
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
		Page:           parsePagination(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetComment handles GET /api/v1/comments/:id
// @Summary Get comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{comment=models.Comment,permissions=models.CommentPermissions}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.commentService.GetComment(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"comment":     detail.Comment,
		"permissions": detail.Permissions,
	})
}

// CreateComment handles POST /api/v1/posts/:slug/comments
// @Summary Comment on a post
// @Description Limited to one comment per post every five minutes.
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param slug path string true "Post slug"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} object{message=string,comment=models.Comment}
// @Failure 422 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /posts/{slug}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   currentUserID(c),
		PostSlug: c.Params("slug"),
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

// UpdateComment handles PUT /api/v1/comments/:id
// @Summary Edit comment
// @Description Authors may edit within 30 minutes of posting.
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Param id path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} object{message=string,comment=models.Comment}
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: id,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete comment
// @Description Moderators remove the comment and its replies; authors withdraw it.
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	outcome, err := s.commentService.DeleteComment(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	message := "Comment deleted successfully"
	if outcome == service.CommentSoftDeleted {
		message = "Comment withdrawn successfully"
	}
	return c.JSON(fiber.Map{"message": message})
}

// GetUserComments handles GET /api/v1/user/comments
// @Summary Caller's comments
// @Tags user
// @Security BearerAuth
// @Param status query string false "Status"
// @Param sentiment query string false "Sentiment"
// @Param include_replies query bool false "Include replies"
// @Success 200 {object} object{comments=[]models.Comment,pagination=models.Pagination,stats=service.UserCommentStats}
// @Router /user/comments [get]
func (s *Server) GetUserComments(c *fiber.Ctx) error {
	page, stats, err := s.commentService.UserComments(c.UserContext(), service.UserCommentsInput{
		UserID:         currentUserID(c),
		Status:         c.Query("status"),
		Sentiment:      c.Query("sentiment"),
		IncludeReplies: boolOr(c, "include_replies", true),
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
		Page:           parsePagination(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"comments":   page.Comments,
		"pagination": page.Pagination,
		"stats":      stats,
	})
}
