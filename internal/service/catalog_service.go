package service

import (
	"context"
	"strings"
	"time"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/repository"

	"github.com/google/uuid"
)

// continueWatchingLimit caps the in-progress shelf.
const continueWatchingLimit = 10

// CatalogService serves the workout video catalog, favorites and watch progress.
type CatalogService struct {
	videoRepo    repository.VideoRepository
	favoriteRepo repository.FavoriteRepository
	progressRepo repository.ProgressRepository
	sessions     auth.SessionSource
	now          func() time.Time
}

// UpdateProgressInput reports how far the member got in a video.
type UpdateProgressInput struct {
	WatchedDuration int  `json:"watched_duration"`
	Completed       bool `json:"completed"`
}

func NewCatalogService(
	videoRepo repository.VideoRepository,
	favoriteRepo repository.FavoriteRepository,
	progressRepo repository.ProgressRepository,
	sessions auth.SessionSource,
) *CatalogService {
	return &CatalogService{
		videoRepo:    videoRepo,
		favoriteRepo: favoriteRepo,
		progressRepo: progressRepo,
		sessions:     sessions,
		now:          time.Now,
	}
}

func (s *CatalogService) ListVideos(ctx context.Context) ([]*models.Video, error) {
	return s.videoRepo.List(ctx)
}

func (s *CatalogService) VideosByCategory(ctx context.Context, category string) ([]*models.Video, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return s.videoRepo.List(ctx)
	}
	return s.videoRepo.ListByCategory(ctx, category)
}

func (s *CatalogService) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return s.videoRepo.GetByID(ctx, id)
}

func (s *CatalogService) SearchVideos(ctx context.Context, query string) ([]*models.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.videoRepo.Search(ctx, query)
}

// RecordView counts one playback of the video.
func (s *CatalogService) RecordView(ctx context.Context, id uuid.UUID) error {
	return s.videoRepo.IncrementViews(ctx, id)
}

func (s *CatalogService) AddFavorite(ctx context.Context, videoID uuid.UUID) error {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return err
	}
	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return err
	}
	return s.favoriteRepo.Add(ctx, actor.UserID, videoID)
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, videoID uuid.UUID) error {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return err
	}
	return s.favoriteRepo.Remove(ctx, actor.UserID, videoID)
}

func (s *CatalogService) IsFavorite(ctx context.Context, videoID uuid.UUID) (bool, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return false, err
	}
	return s.favoriteRepo.Exists(ctx, actor.UserID, videoID)
}

// ListFavorites returns the member's saved videos, newest first.
func (s *CatalogService) ListFavorites(ctx context.Context) ([]*models.Favorite, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	return s.favoriteRepo.ListByUser(ctx, actor.UserID)
}

// GetProgress returns nil without error when the member never watched the video.
func (s *CatalogService) GetProgress(ctx context.Context, videoID uuid.UUID) (*models.UserProgress, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	return s.progressRepo.Get(ctx, actor.UserID, videoID)
}

func (s *CatalogService) UpdateProgress(ctx context.Context, videoID uuid.UUID, in UpdateProgressInput) (*models.UserProgress, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if in.WatchedDuration < 0 {
		return nil, models.NewValidationError("watched_duration must not be negative")
	}
	if _, err := s.videoRepo.GetByID(ctx, videoID); err != nil {
		return nil, err
	}

	progress := &models.UserProgress{
		UserID:          actor.UserID,
		VideoID:         videoID,
		WatchedDuration: in.WatchedDuration,
		Completed:       in.Completed,
		LastWatchedAt:   s.now(),
	}
	if err := s.progressRepo.Upsert(ctx, progress); err != nil {
		return nil, err
	}
	return s.progressRepo.Get(ctx, actor.UserID, videoID)
}

// ContinueWatching lists unfinished videos, most recently watched first.
func (s *CatalogService) ContinueWatching(ctx context.Context) ([]*models.UserProgress, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	return s.progressRepo.ListByCompletion(ctx, actor.UserID, false, continueWatchingLimit)
}

func (s *CatalogService) CompletedVideos(ctx context.Context) ([]*models.UserProgress, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	return s.progressRepo.ListByCompletion(ctx, actor.UserID, true, 0)
}
