package handlers

import (
	"github.com/gofiber/fiber/v2"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
)

// CommentHandler edits and removes comments. Listing and creation live under
// the screen routes.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// UpdateComment edits or resolves a comment. Author only.
// @Summary Update a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID" Format(uuid)
// @Param comment body services.CommentPatch true "Fields to change"
// @Success 200 {object} models.ScreenComment
// @Failure 403 {object} errorBody "Not the author"
// @Router /comments/{id} [patch]
func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var patch services.CommentPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	comment, err := h.comments.Update(auth.FromContext(c), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes a comment. Author only.
// @Summary Delete a comment
// @Tags comments
// @Param id path string true "Comment ID" Format(uuid)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errorBody "Not the author"
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.comments.Delete(auth.FromContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
