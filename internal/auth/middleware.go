package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	identityKey   = "auth.identity"
	sessionCookie = "__session"
)

// Middleware resolves the caller identity from a bearer token or the session
// cookie. Requests without a valid token continue anonymously; handlers decide
// whether an identity is required.
func Middleware(verifier Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			return c.Next()
		}
		token := TokenFromRequest(c)
		if token == "" {
			return c.Next()
		}
		identity, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("session token rejected")
			return c.Next()
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// TokenFromRequest extracts the session token from the Authorization header
// or the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
	}
	return strings.TrimSpace(c.Cookies(sessionCookie))
}

// FromContext returns the identity resolved by Middleware, or an empty one.
func FromContext(c *fiber.Ctx) Identity {
	if identity, ok := c.Locals(identityKey).(Identity); ok {
		return identity
	}
	return Identity{}
}
