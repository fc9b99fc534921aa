package service

import (
	"context"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"

	"github.com/google/uuid"
)

// ReactionService toggles likes for the acting member.
type ReactionService struct {
	reactionRepo repository.ReactionRepository
	postRepo     repository.PostRepository
	sessions     auth.SessionSource
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	postRepo repository.PostRepository,
	sessions auth.SessionSource,
) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		postRepo:     postRepo,
		sessions:     sessions,
	}
}

// Like records a like. Liking twice is a success that leaves one row.
func (s *ReactionService) Like(ctx context.Context, postID uuid.UUID) (err error) {
	ctx, span := observability.StartSpan(ctx, "ReactionService.Like",
		observability.IDAttr(observability.AttrPostID, postID))
	defer func() { finish(span, "like", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return err
	}
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post", postID)
	}
	return s.reactionRepo.Add(ctx, postID, actor.UserID)
}

// Unlike removes the like if present.
func (s *ReactionService) Unlike(ctx context.Context, postID uuid.UUID) (err error) {
	ctx, span := observability.StartSpan(ctx, "ReactionService.Unlike",
		observability.IDAttr(observability.AttrPostID, postID))
	defer func() { finish(span, "unlike", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return err
	}
	return s.reactionRepo.Remove(ctx, postID, actor.UserID)
}
