package repository

import (
	"context"

	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores likes keyed by (post, user).
type ReactionRepository interface {
	// Add is idempotent: an existing like is left untouched and reported as success.
	Add(ctx context.Context, postID, userID uuid.UUID) error
	// Remove deletes the like if present. Removing a missing like is a no-op.
	Remove(ctx context.Context, postID, userID uuid.UUID) error
}

type reactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, log: observability.NewRepoLogger("post_likes")}
}

func (r *reactionRepository) Add(ctx context.Context, postID, userID uuid.UUID) error {
	reaction := &models.Reaction{PostID: postID, UserID: userID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(reaction)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil
		}
		r.log.LogError(ctx, res.Error, "create")
		return translate(res.Error, "Post", postID)
	}
	if res.RowsAffected > 0 {
		r.log.LogCreate(ctx, map[string]any{"post_id": postID.String()})
	}
	return nil
}

func (r *reactionRepository) Remove(ctx context.Context, postID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Reaction{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return translate(res.Error, "Post", postID)
	}
	if res.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]any{"post_id": postID.String()})
	}
	return nil
}
