package server

import (
	"fitstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.Me(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetProfile handles GET /api/profiles/:id. Unknown members get the placeholder profile.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return c.JSON(s.userService.GetProfile(c.UserContext(), id))
}

// GetFeatureFlags returns configured feature flags and evaluated state for the current viewer.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	viewer := viewerFrom(c)
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(viewer),
	})
}
