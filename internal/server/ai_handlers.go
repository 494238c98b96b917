package server

import (
	"github.com/rmeditanala/blogml/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GenerateOutline handles POST /api/v1/ai/generate-outline
// @Summary Generate outline
// @Tags ai
// @Security BearerAuth
// @Accept json
// @Param request body object{topic=string,keywords=[]string,tone=string,length=string,target_audience=string} true "Outline request"
// @Success 200 {object} object{outline=ml.Outline}
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /ai/generate-outline [post]
func (s *Server) GenerateOutline(c *fiber.Ctx) error {
	var req struct {
		Topic          string   `json:"topic"`
		Keywords       []string `json:"keywords"`
		Tone           string   `json:"tone"`
		Length         string   `json:"length"`
		TargetAudience string   `json:"target_audience"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	outline, err := s.aiService.GenerateOutline(c.UserContext(), service.OutlineInput{
		UserID:   currentUserID(c),
		Topic:    req.Topic,
		Keywords: req.Keywords,
		Tone:     req.Tone,
		Length:   req.Length,
		Audience: req.TargetAudience,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"outline": outline})
}

// GeneratePost handles POST /api/v1/ai/generate-post
// @Summary Generate post draft
// @Tags ai
// @Security BearerAuth
// @Accept json
// @Param request body object{topic=string,outline=[]string,tone=string,word_count=int} true "Draft request"
// @Success 200 {object} object{post=service.GeneratedDraft}
// @Router /ai/generate-post [post]
func (s *Server) GeneratePost(c *fiber.Ctx) error {
	var req struct {
		Topic     string   `json:"topic"`
		Outline   []string `json:"outline"`
		Tone      string   `json:"tone"`
		WordCount int      `json:"word_count"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	draft, err := s.aiService.GeneratePost(c.UserContext(), service.GeneratePostInput{
		UserID:    currentUserID(c),
		Topic:     req.Topic,
		Outline:   req.Outline,
		Tone:      req.Tone,
		WordCount: req.WordCount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": draft})
}

// ClassifyImage handles POST /api/v1/ai/classify-image
// @Summary Classify image
// @Tags ai
// @Security BearerAuth
// @Accept json
// @Param request body object{image_url=string} true "Image"
// @Success 200 {object} object{classification=ml.ImageClassification}
// @Router /ai/classify-image [post]
func (s *Server) ClassifyImage(c *fiber.Ctx) error {
	var req struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	result, err := s.aiService.ClassifyImage(c.UserContext(), currentUserID(c), req.ImageURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"classification": result})
}
