package models

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is a user's like on a post.
// The combination of PostID and UserID must be unique.
type Reaction struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reaction) TableName() string { return "post_likes" }
