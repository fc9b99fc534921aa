// Package middleware provides authentication, rate limiting, tracing and
// request logging middleware for the HTTP API.
package middleware

import (
	"context"
	"strings"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals set by the auth middleware.
const (
	LocalUserID  = "userID"
	LocalSession = "session"
)

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Session, error)
}

// AuthRequired enforces a valid bearer token and attaches the session to the request.
func AuthRequired(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SessionFrom(c); ok {
			return c.Next()
		}
		token, err := bearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authorization header required"))
		}

		session, err := v.Verify(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		attach(c, session)
		return c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and lets
// anonymous requests through. A malformed or rejected token is still an error.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if token == "" {
			return c.Next()
		}

		session, err := v.Verify(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		attach(c, session)
		return c.Next()
	}
}

// SessionFrom returns the session attached by the auth middleware.
func SessionFrom(c *fiber.Ctx) (*auth.Session, bool) {
	s, ok := c.Locals(LocalSession).(*auth.Session)
	return s, ok && s != nil
}

func attach(c *fiber.Ctx, session *auth.Session) {
	c.Locals(LocalUserID, session.UserID)
	c.Locals(LocalSession, session)

	ctx := auth.WithSession(c.UserContext(), session)
	ctx = observability.WithUserID(ctx, session.UserID)
	c.SetUserContext(ctx)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// It returns "" without error when the header is absent.
func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", models.NewUnauthenticatedError("Invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}
