package repository

import (
	"context"

	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository stores saved videos per user.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, videoID uuid.UUID) error
	Remove(ctx context.Context, userID, videoID uuid.UUID) error
	Exists(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Favorite, error)
}

type favoriteRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db, log: observability.NewRepoLogger("favorites")}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, videoID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoNothing: true,
		}).
		Create(&models.Favorite{UserID: userID, VideoID: videoID})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil
		}
		r.log.LogError(ctx, res.Error, "create")
		return translate(res.Error, "Video", videoID)
	}
	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, videoID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&models.Favorite{}).Error
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return translate(err, "Video", videoID)
	}
	return nil
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "Video", videoID)
	}
	return count > 0, nil
}

// ListByUser returns the user's favorites newest first with their videos loaded.
func (r *favoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Favorite, error) {
	var favorites []*models.Favorite
	err := r.db.WithContext(ctx).
		Preload("Video").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, translate(err, "Favorite", nil)
	}
	return favorites, nil
}
