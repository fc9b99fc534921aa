package server

import (
	"strings"

	"fitstream/internal/auth"
	"fitstream/internal/middleware"
	"fitstream/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req auth.SignUpInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	session, err := s.auth.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   session.Token,
		"session": session,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	session, err := s.auth.SignIn(c.UserContext(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":   session.Token,
		"session": session,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Not signed in"))
	}
	if err := s.auth.Revoke(c.UserContext(), session); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// GetSession handles GET /api/auth/session
func (s *Server) GetSession(c *fiber.Ctx) error {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Not signed in"))
	}
	return c.JSON(session)
}
