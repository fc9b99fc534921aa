package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public projection of a member used to render posts and comments.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
