package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is a workout video in the catalog.
type Video struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" yaml:"-"`
	Title           string    `gorm:"not null" json:"title" yaml:"title"`
	Description     string    `gorm:"type:text" json:"description,omitempty" yaml:"description"`
	VideoURL        string    `gorm:"not null" json:"video_url" yaml:"video_url"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty" yaml:"thumbnail_url"`
	Category        string    `gorm:"index" json:"category,omitempty" yaml:"category"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	Views           int64     `gorm:"not null;default:0" json:"views" yaml:"-"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
}

func (v *Video) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Favorite marks a video as saved by a user.
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_video" json:"user_id"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_video" json:"video_id"`
	Video     *Video    `gorm:"foreignKey:VideoID" json:"video,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// UserProgress tracks how much of a video a user has watched.
type UserProgress struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_video" json:"user_id"`
	VideoID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_video" json:"video_id"`
	Video           *Video    `gorm:"foreignKey:VideoID" json:"video,omitempty"`
	WatchedDuration int       `gorm:"not null;default:0" json:"watched_duration"`
	Completed       bool      `gorm:"not null;default:false;index" json:"completed"`
	LastWatchedAt   time.Time `gorm:"index" json:"last_watched_at"`
	CreatedAt       time.Time `json:"created_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (p *UserProgress) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
