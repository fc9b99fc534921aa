package repository

import (
	"context"

	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Grouped aggregates, one query each regardless of the number of posts.
	CountLikes(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CountComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	// Single-post aggregates used by the per-post strategy.
	CountLikesForPost(ctx context.Context, postID uuid.UUID) (int64, error)
	CountCommentsForPost(ctx context.Context, postID uuid.UUID) (int64, error)
	HasLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return translate(err, "Post", post.ID)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID.String(), "kind": string(post.Kind)})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, "Post", id)
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, translate(err, "Post", nil)
	}
	return posts, nil
}

// Delete removes the post together with its likes and comments.
func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var likes, comments int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ?", id).Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		likes = res.RowsAffected

		res = tx.Where("post_id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		comments = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return translate(err, "Post", id)
	}

	r.log.LogDelete(ctx, map[string]any{
		"post_id":          id.String(),
		"removed_likes":    likes,
		"removed_comments": comments,
	})
	return nil
}

type postCount struct {
	PostID uuid.UUID
	Count  int64
}

func (r *postRepository) groupedCount(ctx context.Context, model any, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(model).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "Post", nil)
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

func (r *postRepository) CountLikes(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return r.groupedCount(ctx, &models.Reaction{}, postIDs)
}

func (r *postRepository) CountComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return r.groupedCount(ctx, &models.Comment{}, postIDs)
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool)
	if userID == uuid.Nil || len(postIDs) == 0 {
		return liked, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, translate(err, "Post", nil)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *postRepository) CountLikesForPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Reaction{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, translate(err, "Post", postID)
	}
	return count, nil
}

func (r *postRepository) CountCommentsForPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, translate(err, "Post", postID)
	}
	return count, nil
}

func (r *postRepository) HasLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "Post", postID)
	}
	return count > 0, nil
}
