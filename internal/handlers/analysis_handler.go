package handlers

import (
	"github.com/gofiber/fiber/v2"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
)

type AnalysisHandler struct {
	analysis *services.AnalysisService
}

func NewAnalysisHandler(analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// AnalyzeScreenshot suggests a title and description for a screenshot
// @Summary Analyze a screenshot
// @Description Sibling screens passed as context help the model pick distinct names
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body services.AnalyzeRequest true "Image URL and context"
// @Success 200 {object} vision.Analysis
// @Failure 400 {object} errorBody "Missing image URL"
// @Failure 429 {object} errorBody "Rate limited"
// @Failure 503 {object} errorBody "Vision provider unavailable"
// @Router /analyze-screenshot [post]
func (h *AnalysisHandler) AnalyzeScreenshot(c *fiber.Ctx) error {
	var req services.AnalyzeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	analysis, err := h.analysis.AnalyzeScreenshot(c.UserContext(), auth.FromContext(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(analysis)
}
