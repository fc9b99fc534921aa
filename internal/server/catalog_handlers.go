package server

import (
	"fitstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetVideos handles GET /api/videos?category=...
func (s *Server) GetVideos(c *fiber.Ctx) error {
	videos, err := s.catalogService.VideosByCategory(c.UserContext(), c.Query("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(videos)
}

// SearchVideos handles GET /api/videos/search?q=...
func (s *Server) SearchVideos(c *fiber.Ctx) error {
	videos, err := s.catalogService.SearchVideos(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(videos)
}

// GetVideo handles GET /api/videos/:id
func (s *Server) GetVideo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	video, err := s.catalogService.GetVideo(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(video)
}

// RecordView handles POST /api/videos/:id/view
func (s *Server) RecordView(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.RecordView(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFavorites handles GET /api/favorites
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	favorites, err := s.catalogService.ListFavorites(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(favorites)
}

// GetFavoriteStatus handles GET /api/favorites/:videoId
func (s *Server) GetFavoriteStatus(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	ok, err := s.catalogService.IsFavorite(c.UserContext(), videoID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"video_id": videoID, "favorite": ok})
}

// AddFavorite handles POST /api/favorites/:videoId
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	if err := s.catalogService.AddFavorite(c.UserContext(), videoID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/favorites/:videoId
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	if err := s.catalogService.RemoveFavorite(c.UserContext(), videoID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetProgress handles GET /api/progress/:videoId. It answers 204 when the video was never watched.
func (s *Server) GetProgress(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	progress, err := s.catalogService.GetProgress(c.UserContext(), videoID)
	if err != nil {
		return respondError(c, err)
	}
	if progress == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(progress)
}

// UpdateProgress handles PUT /api/progress/:videoId
func (s *Server) UpdateProgress(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}

	var req service.UpdateProgressInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	progress, err := s.catalogService.UpdateProgress(c.UserContext(), videoID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}

// GetContinueWatching handles GET /api/progress/continue
func (s *Server) GetContinueWatching(c *fiber.Ctx) error {
	progress, err := s.catalogService.ContinueWatching(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}

// GetCompletedVideos handles GET /api/progress/completed
func (s *Server) GetCompletedVideos(c *fiber.Ctx) error {
	progress, err := s.catalogService.CompletedVideos(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}
