package handlers

import (
	"github.com/gofiber/fiber/v2"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
)

type HotspotHandler struct {
	hotspots *services.HotspotService
}

func NewHotspotHandler(hotspots *services.HotspotService) *HotspotHandler {
	return &HotspotHandler{hotspots: hotspots}
}

// UpdateHotspot applies a partial update
// @Summary Update a hotspot
// @Tags hotspots
// @Accept json
// @Produce json
// @Param id path string true "Hotspot ID" Format(uuid)
// @Param hotspot body services.HotspotPatch true "Fields to change"
// @Success 200 {object} models.ScreenHotspot
// @Failure 400 {object} errorBody "Invalid bounding box"
// @Router /hotspots/{id} [patch]
func (h *HotspotHandler) UpdateHotspot(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var patch services.HotspotPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	hotspot, err := h.hotspots.Update(auth.FromContext(c), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(hotspot)
}

// DeleteHotspot removes a hotspot
// @Summary Delete a hotspot
// @Tags hotspots
// @Param id path string true "Hotspot ID" Format(uuid)
// @Success 200 {object} map[string]interface{}
// @Router /hotspots/{id} [delete]
func (h *HotspotHandler) DeleteHotspot(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.hotspots.Delete(auth.FromContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
