package repository

import (
	"context"
	"errors"

	"fitstream/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository tracks per-user watch progress.
type ProgressRepository interface {
	// Get returns nil without error when the user never watched the video.
	Get(ctx context.Context, userID, videoID uuid.UUID) (*models.UserProgress, error)
	Upsert(ctx context.Context, progress *models.UserProgress) error
	ListByCompletion(ctx context.Context, userID uuid.UUID, completed bool, limit int) ([]*models.UserProgress, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Get(ctx context.Context, userID, videoID uuid.UUID) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "Progress", videoID)
	}
	return &progress, nil
}

func (r *progressRepository) Upsert(ctx context.Context, progress *models.UserProgress) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"watched_duration", "completed", "last_watched_at"}),
		}).
		Create(progress).Error
	if err != nil {
		return translate(err, "Video", progress.VideoID)
	}
	return nil
}

// ListByCompletion returns progress rows newest-watched first. A limit of 0 means no limit.
func (r *progressRepository) ListByCompletion(ctx context.Context, userID uuid.UUID, completed bool, limit int) ([]*models.UserProgress, error) {
	q := r.db.WithContext(ctx).
		Preload("Video").
		Where("user_id = ? AND completed = ?", userID, completed).
		Order("last_watched_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []*models.UserProgress
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "Progress", nil)
	}
	return rows, nil
}
