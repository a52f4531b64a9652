package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
	"userflow-service/internal/validation"
)

type ScreenHandler struct {
	screens  *services.ScreenService
	comments *services.CommentService
	hotspots *services.HotspotService
	analysis *services.AnalysisService
}

func NewScreenHandler(screens *services.ScreenService, comments *services.CommentService, hotspots *services.HotspotService, analysis *services.AnalysisService) *ScreenHandler {
	return &ScreenHandler{screens: screens, comments: comments, hotspots: hotspots, analysis: analysis}
}

// GetScreen returns a screen by ID
// @Summary Get a screen
// @Tags screens
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Success 200 {object} models.Screen
// @Failure 404 {object} errorBody "Screen not found"
// @Router /screens/{id} [get]
func (h *ScreenHandler) GetScreen(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	screen, err := h.screens.Get(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(screen)
}

// UpdateScreen applies a partial update
// @Summary Update a screen
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Param screen body services.ScreenPatch true "Fields to change"
// @Success 200 {object} models.Screen
// @Router /screens/{id} [patch]
func (h *ScreenHandler) UpdateScreen(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var patch services.ScreenPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	screen, err := h.screens.Update(auth.FromContext(c), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(screen)
}

// DeleteScreen soft-deletes a screen
// @Summary Delete a screen
// @Tags screens
// @Param id path string true "Screen ID" Format(uuid)
// @Success 200 {object} map[string]interface{}
// @Router /screens/{id} [delete]
func (h *ScreenHandler) DeleteScreen(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.screens.Delete(auth.FromContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// UploadScreenshot stores a new screenshot for a screen
// @Summary Upload a screenshot
// @Description The image is re-encoded as JPEG under the configured size ceiling
// @Tags screens
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Param file formData file true "Image"
// @Success 200 {object} models.Screen
// @Failure 400 {object} errorBody "Invalid image"
// @Failure 503 {object} errorBody "Object storage is not configured"
// @Router /screens/{id}/screenshot [post]
func (h *ScreenHandler) UploadScreenshot(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, &validation.Error{Field: "file", Message: "is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, errors.Wrap(err, "open uploaded file"))
	}
	defer file.Close()

	screen, err := h.screens.UploadScreenshot(c.UserContext(), auth.FromContext(c), id, services.ScreenshotUpload{
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Size:        fileHeader.Size,
		Data:        file,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(screen)
}

// ListComments returns the comments of a screen, oldest first
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Success 200 {array} models.ScreenComment
// @Router /screens/{id}/comments [get]
func (h *ScreenHandler) ListComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	comments, err := h.comments.List(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment pins a comment on a screen
// @Summary Create a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Param comment body services.CommentInput true "Comment"
// @Success 201 {object} models.ScreenComment
// @Failure 400 {object} errorBody "Invalid comment"
// @Router /screens/{id}/comments [post]
func (h *ScreenHandler) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in services.CommentInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	comment, err := h.comments.Create(c.UserContext(), auth.FromContext(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListHotspots returns the hotspots of a screen in order
// @Summary List hotspots
// @Tags hotspots
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Success 200 {array} models.ScreenHotspot
// @Router /screens/{id}/hotspots [get]
func (h *ScreenHandler) ListHotspots(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	hotspots, err := h.hotspots.List(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(hotspots)
}

// CreateHotspot adds an interactive region to a screen
// @Summary Create a hotspot
// @Tags hotspots
// @Accept json
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Param hotspot body services.HotspotInput true "Hotspot"
// @Success 201 {object} models.ScreenHotspot
// @Failure 400 {object} errorBody "Invalid bounding box"
// @Router /screens/{id}/hotspots [post]
func (h *ScreenHandler) CreateHotspot(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in services.HotspotInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	hotspot, err := h.hotspots.Create(auth.FromContext(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(hotspot)
}

// DetectElements finds interactive elements on the screen's screenshot
// @Summary Detect UI elements
// @Description Set persist=true to save the detections as AI-generated hotspots
// @Tags hotspots
// @Produce json
// @Param id path string true "Screen ID" Format(uuid)
// @Param persist query bool false "Save detections as hotspots"
// @Success 200 {object} services.DetectionResult
// @Failure 429 {object} errorBody "Rate limited"
// @Failure 503 {object} errorBody "Vision provider unavailable"
// @Router /screens/{id}/detect-elements [post]
func (h *ScreenHandler) DetectElements(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.analysis.DetectElements(c.UserContext(), auth.FromContext(c), id, c.QueryBool("persist"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
