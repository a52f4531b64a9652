package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/services"
	"userflow-service/internal/validation"
	"userflow-service/internal/vision"
)

const (
	InvalidUUIDError    = "invalid UUID"
	InvalidRequestError = "Invalid request format"
	InternalError       = "Internal server error"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorBody{Error: true, Message: message})
}

// respondError maps a service error onto a status code and the error body.
// Unexpected errors are logged and answered with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr *validation.Error
		nf   *services.NotFoundError
		nc   *services.NotConfiguredError
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: true, Message: verr.Error(), Field: verr.Field})
	case errors.Is(err, services.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Forbidden")
	case errors.As(err, &nf):
		return fail(c, fiber.StatusNotFound, capitalize(nf.Error()))
	case errors.As(err, &nc):
		return fail(c, fiber.StatusServiceUnavailable, capitalize(nc.Error()))
	case errors.Is(err, vision.ErrRateLimited):
		return fail(c, fiber.StatusTooManyRequests, "Vision provider rate limit reached, try again later")
	case errors.Is(err, vision.ErrInvalidKey), errors.Is(err, vision.ErrUnavailable):
		log.Error().Err(err).Str("path", c.Path()).Msg("vision provider unavailable")
		return fail(c, fiber.StatusServiceUnavailable, "Vision provider unavailable")
	case errors.As(err, &ferr):
		return fail(c, ferr.Code, ferr.Message)
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this response
		return fail(c, fiber.StatusInternalServerError, InternalError)
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return fail(c, fiber.StatusInternalServerError, InternalError)
}

// ErrorHandler answers errors returned from handlers and fiber itself in the
// same JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
