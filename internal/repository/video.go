package repository

import (
	"context"
	"strings"

	"fitstream/internal/cache"
	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoRepository defines the interface for the workout catalog.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetByTitle(ctx context.Context, title string) (*models.Video, error)
	List(ctx context.Context) ([]*models.Video, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Video, error)
	Search(ctx context.Context, query string) ([]*models.Video, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type videoRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db, log: observability.NewRepoLogger("videos")}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translate(err, "Video", video.ID)
	}
	r.log.LogCreate(ctx, map[string]any{"video_id": video.ID.String(), "category": video.Category})
	cache.InvalidateVideos(ctx, uuid.Nil, video.Category)
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	err := cache.Aside(ctx, cache.VideoKey(id), &video, cache.VideoTTL, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error
	})
	if err != nil {
		return nil, translate(err, "Video", id)
	}
	return &video, nil
}

func (r *videoRepository) GetByTitle(ctx context.Context, title string) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&video).Error; err != nil {
		return nil, translate(err, "Video", title)
	}
	return &video, nil
}

func (r *videoRepository) List(ctx context.Context) ([]*models.Video, error) {
	var videos []*models.Video
	err := cache.Aside(ctx, cache.VideoListKey, &videos, cache.VideoTTL, func() error {
		return r.db.WithContext(ctx).Order("created_at DESC").Find(&videos).Error
	})
	if err != nil {
		return nil, translate(err, "Video", nil)
	}
	return videos, nil
}

func (r *videoRepository) ListByCategory(ctx context.Context, category string) ([]*models.Video, error) {
	var videos []*models.Video
	err := cache.Aside(ctx, cache.VideoCategoryKey(category), &videos, cache.VideoTTL, func() error {
		return r.db.WithContext(ctx).
			Where("category = ?", category).
			Order("created_at DESC").
			Find(&videos).Error
	})
	if err != nil {
		return nil, translate(err, "Video", nil)
	}
	return videos, nil
}

// Search matches query case-insensitively against title and description.
func (r *videoRepository) Search(ctx context.Context, query string) ([]*models.Video, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var videos []*models.Video
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("created_at DESC").
		Find(&videos).Error
	if err != nil {
		return nil, translate(err, "Video", nil)
	}
	return videos, nil
}

func (r *videoRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "Video", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	cache.Invalidate(ctx, cache.VideoKey(id))
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
