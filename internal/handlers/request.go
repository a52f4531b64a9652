package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/validation"
)

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, InvalidUUIDError)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		log.Debug().Err(err).Str("path", c.Path()).Msg("invalid request body")
		return fiber.NewError(fiber.StatusBadRequest, InvalidRequestError)
	}
	return nil
}

// parseOrder reads an orderRequest body into ids.
func parseOrder(c *fiber.Ctx) ([]uuid.UUID, error) {
	var req orderRequest
	if err := parseBody(c, &req); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &validation.Error{Field: "ids", Message: "must contain valid UUIDs"}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
