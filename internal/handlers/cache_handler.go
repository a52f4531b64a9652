package handlers

import (
	"github.com/gofiber/fiber/v2"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
)

// CacheHandler exposes the screen analysis cache.
type CacheHandler struct {
	analysis *services.AnalysisService
}

func NewCacheHandler(analysis *services.AnalysisService) *CacheHandler {
	return &CacheHandler{analysis: analysis}
}

// GetStatistics handles GET /cache/stats
// @Summary Analysis cache statistics
// @Description Per-layer object counts and hit rates of the analysis cache
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Layer statistics"
// @Failure 401 {object} errorBody
// @Router /cache/stats [get]
func (h *CacheHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.analysis.CacheStats(auth.FromContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"layers": stats})
}

// ClearCache handles DELETE /cache
// @Summary Clear the analysis cache
// @Tags cache
// @Success 204
// @Failure 401 {object} errorBody
// @Router /cache [delete]
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.analysis.ClearCache(c.UserContext(), auth.FromContext(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
