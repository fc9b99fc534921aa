package server

import (
	"context"
	"time"

	"fitstream/internal/models"
	"fitstream/internal/service"
	"fitstream/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const feedTimeout = 5 * time.Second

// GetPosts handles GET /api/posts and returns the whole feed newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), feedTimeout)
	defer cancel()

	posts, err := s.postService.ListPosts(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := validation.ValidateCaption(req.Caption); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	for _, ref := range []string{req.PrimaryMedia, req.SecondaryMedia} {
		if err := validation.ValidateMediaRef(ref); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like. Liking twice is not an error.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reactionService.Like(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return s.respondWithPost(c, id)
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reactionService.Unlike(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return s.respondWithPost(c, id)
}

// respondWithPost returns the post with fresh counts after a reaction change.
func (s *Server) respondWithPost(c *fiber.Ctx, id uuid.UUID) error {
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
