package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/auth"
	"userflow-service/internal/metrics"
	"userflow-service/internal/services"
)

// RequestLogger logs every request and records it in m when m is set.
func RequestLogger(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		latency := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		evt := log.Info()
		if status >= fiber.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.Str("method", c.Method()).
			Str("route", route).
			Int("status", status).
			Dur("latency", latency).
			Msg("request")

		if m != nil {
			m.ObserveRequest(c.Method(), route, status, latency)
		}
		return nil
	}
}

// RequireDatabase answers 500 on routes that need the relational store when
// none is configured.
func RequireDatabase(configured bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !configured {
			return fail(c, fiber.StatusInternalServerError, "Database not configured")
		}
		return c.Next()
	}
}

// RequireIdentity answers 401 for anonymous requests before any path or body
// parsing happens.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auth.FromContext(c).Empty() {
			return respondError(c, services.ErrUnauthorized)
		}
		return c.Next()
	}
}
