package handlers

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
	"userflow-service/internal/validation"
)

type FlowHandler struct {
	flows   *services.FlowService
	screens *services.ScreenService
}

func NewFlowHandler(flows *services.FlowService, screens *services.ScreenService) *FlowHandler {
	return &FlowHandler{flows: flows, screens: screens}
}

// GetFlow returns a flow by ID
// @Summary Get a flow
// @Tags flows
// @Produce json
// @Param id path string true "Flow ID" Format(uuid)
// @Success 200 {object} models.Flow
// @Failure 404 {object} errorBody "Flow not found"
// @Router /flows/{id} [get]
func (h *FlowHandler) GetFlow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	flow, err := h.flows.Get(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(flow)
}

// UpdateFlow applies a partial update
// @Summary Update a flow
// @Tags flows
// @Accept json
// @Produce json
// @Param id path string true "Flow ID" Format(uuid)
// @Param flow body services.FlowPatch true "Fields to change"
// @Success 200 {object} models.Flow
// @Router /flows/{id} [patch]
func (h *FlowHandler) UpdateFlow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var patch services.FlowPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	flow, err := h.flows.Update(auth.FromContext(c), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(flow)
}

// DeleteFlow soft-deletes a flow and its screens
// @Summary Delete a flow
// @Tags flows
// @Param id path string true "Flow ID" Format(uuid)
// @Success 200 {object} map[string]interface{}
// @Router /flows/{id} [delete]
func (h *FlowHandler) DeleteFlow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.flows.Delete(auth.FromContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListScreens returns the screens of a flow in order
// @Summary List screens of a flow
// @Tags screens
// @Produce json
// @Param id path string true "Flow ID" Format(uuid)
// @Success 200 {array} models.Screen
// @Router /flows/{id}/screens [get]
func (h *FlowHandler) ListScreens(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	screens, err := h.screens.ListByFlow(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(screens)
}

// CreateScreen appends a screen to a flow
// @Summary Create a screen
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "Flow ID" Format(uuid)
// @Param screen body services.ScreenInput true "Screen data"
// @Success 201 {object} models.Screen
// @Failure 400 {object} errorBody "Invalid screen data"
// @Router /flows/{id}/screens [post]
func (h *FlowHandler) CreateScreen(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in services.ScreenInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	screen, err := h.screens.Create(auth.FromContext(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(screen)
}

// ReorderScreens sets the screen order of a flow
// @Summary Reorder screens
// @Tags screens
// @Accept json
// @Produce json
// @Param id path string true "Flow ID" Format(uuid)
// @Param order body orderRequest true "Screen IDs in the new order"
// @Success 200 {array} models.Screen
// @Router /flows/{id}/screens/order [put]
func (h *FlowHandler) ReorderScreens(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ids, err := parseOrder(c)
	if err != nil {
		return respondError(c, err)
	}
	screens, err := h.screens.Reorder(auth.FromContext(c), id, ids)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(screens)
}

// ImportScreens creates screens from an uploaded archive of screenshots
// @Summary Import screenshots from an archive
// @Description Accepts a ZIP, TAR or RAR archive; each image becomes a screen, in file name order
// @Tags screens
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Flow ID" Format(uuid)
// @Param file formData file true "Archive"
// @Success 201 {object} services.ImportResult
// @Failure 400 {object} errorBody "Invalid archive"
// @Failure 503 {object} errorBody "Object storage is not configured"
// @Router /flows/{id}/import [post]
func (h *FlowHandler) ImportScreens(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, &validation.Error{Field: "file", Message: "is required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, errors.Wrap(err, "open uploaded archive"))
	}
	defer src.Close()

	// archive format detection uses the extension as a hint
	tmp, err := os.CreateTemp("", "import-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return respondError(c, errors.Wrap(err, "create temporary archive"))
	}
	defer os.Remove(tmp.Name())
	_, err = io.Copy(tmp, src)
	tmp.Close()
	if err != nil {
		return respondError(c, errors.Wrap(err, "write temporary archive"))
	}

	result, err := h.screens.ImportArchive(c.UserContext(), auth.FromContext(c), id, tmp.Name())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
