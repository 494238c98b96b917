package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/v1/admin/feature-flags
// @Summary Feature flags (admin)
// @Description Configured rules and how they resolve for the caller.
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} object{flags=map[string]string,enabled=map[string]bool}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags":   s.featureFlags.Raw(),
		"enabled": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
