package service

import (
	"context"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"

	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	sessions    auth.SessionSource
	profiles    *ProfileResolver
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	sessions auth.SessionSource,
	profiles *ProfileResolver,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		sessions:    sessions,
		profiles:    profiles,
	}
}

// AddComment stores content on the post as the acting member. Content rules
// are enforced by callers.
func (s *CommentService) AddComment(ctx context.Context, postID uuid.UUID, content string) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.AddComment",
		observability.IDAttr(observability.AttrPostID, postID))
	defer func() { finish(span, "add_comment", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	profiles := resolverFor(ctx, s.profiles)
	profiles.EnsureProfile(ctx, actor)

	comment = &models.Comment{
		PostID:   postID,
		AuthorID: actor.UserID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	author := profiles.Resolve(ctx, actor.UserID)
	comment.Author = &author
	return comment, nil
}

// ListComments returns the thread oldest first with resolved authors.
func (s *CommentService) ListComments(ctx context.Context, postID uuid.UUID) (comments []*models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.ListComments",
		observability.IDAttr(observability.AttrPostID, postID))
	defer func() { finish(span, "list_comments", err) }()

	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err = s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors := resolverFor(ctx, s.profiles).ResolveMany(ctx, ids)
	for _, c := range comments {
		author := authors[c.AuthorID]
		c.Author = &author
	}
	return comments, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, commentID uuid.UUID) (err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.DeleteComment",
		observability.IDAttr(observability.AttrCommentID, commentID))
	defer func() { finish(span, "delete_comment", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor.UserID {
		return models.NewPermissionDeniedError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}

func (s *CommentService) ensurePost(ctx context.Context, postID uuid.UUID) error {
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}
