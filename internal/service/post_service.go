package service

import (
	"context"
	"strings"

	"fitstream/internal/auth"
	"fitstream/internal/featureflags"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type PostService struct {
	postRepo repository.PostRepository
	sessions auth.SessionSource
	profiles *ProfileResolver
	flags    *featureflags.Manager
}

// CreatePostInput is the publish form. Caption length rules are enforced by callers.
type CreatePostInput struct {
	Caption        string                 `json:"caption"`
	Kind           models.PostKind        `json:"kind"`
	PrimaryMedia   string                 `json:"primary_media"`
	SecondaryMedia string                 `json:"secondary_media"`
	IsVideo        bool                   `json:"is_video"`
	Nutrition      *models.NutritionFacts `json:"nutrition"`
}

func NewPostService(
	postRepo repository.PostRepository,
	sessions auth.SessionSource,
	profiles *ProfileResolver,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		sessions: sessions,
		profiles: profiles,
		flags:    flags,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost",
		observability.AttrPostKind.String(string(in.Kind)))
	defer func() { finish(span, "create_post", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if !in.Kind.Valid() {
		return nil, models.NewValidationError("Invalid post kind")
	}
	if in.Nutrition != nil && !in.Nutrition.Empty() && !in.Nutrition.Complete() {
		return nil, models.NewValidationError("Nutrition facts need protein, carbs and kcal together")
	}

	profiles := resolverFor(ctx, s.profiles)
	profiles.EnsureProfile(ctx, actor)

	post = &models.Post{
		AuthorID:       actor.UserID,
		Kind:           in.Kind,
		Caption:        in.Caption,
		PrimaryMedia:   strings.TrimSpace(in.PrimaryMedia),
		SecondaryMedia: strings.TrimSpace(in.SecondaryMedia),
		IsVideo:        in.IsVideo,
	}
	post.SetNutrition(in.Nutrition)
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	author := profiles.Resolve(ctx, actor.UserID)
	post.Author = &author
	return post, nil
}

// ListPosts returns the whole feed newest first, enriched for the acting viewer.
func (s *PostService) ListPosts(ctx context.Context) (posts []*models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ListPosts")
	defer func() { finish(span, "list_posts", err) }()

	posts, err = s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.GetPost",
		observability.IDAttr(observability.AttrPostID, id))
	defer func() { finish(span, "get_post", err) }()

	post, err = s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost",
		observability.IDAttr(observability.AttrPostID, id))
	defer func() { finish(span, "delete_post", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.UserID {
		return models.NewPermissionDeniedError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, id)
}

func (s *PostService) enrich(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	viewer := viewerID(ctx, s.sessions)

	var err error
	if s.flags.Enabled(featureflags.PerPostCounts, viewer) {
		err = s.countPerPost(ctx, posts, viewer)
	} else {
		err = s.countGrouped(ctx, posts, viewer)
	}
	if err != nil {
		return err
	}

	authorIDs := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	authors := resolverFor(ctx, s.profiles).ResolveMany(ctx, authorIDs)
	for _, p := range posts {
		author := authors[p.AuthorID]
		p.Author = &author
	}
	return nil
}

func (s *PostService) countGrouped(ctx context.Context, posts []*models.Post, viewer uuid.UUID) error {
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := s.postRepo.CountLikes(ctx, ids)
	if err != nil {
		return err
	}
	comments, err := s.postRepo.CountComments(ctx, ids)
	if err != nil {
		return err
	}
	liked := map[uuid.UUID]bool{}
	if viewer != uuid.Nil {
		if liked, err = s.postRepo.LikedPostIDs(ctx, viewer, ids); err != nil {
			return err
		}
	}

	for _, p := range posts {
		p.LikeCount = likes[p.ID]
		p.CommentCount = comments[p.ID]
		p.ViewerHasLiked = liked[p.ID]
	}
	return nil
}

// countPerPost issues three queries per post.
func (s *PostService) countPerPost(ctx context.Context, posts []*models.Post, viewer uuid.UUID) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)

	for _, p := range posts {
		p := p
		g.Go(func() error {
			likes, err := s.postRepo.CountLikesForPost(gctx, p.ID)
			if err != nil {
				return err
			}
			comments, err := s.postRepo.CountCommentsForPost(gctx, p.ID)
			if err != nil {
				return err
			}
			var liked bool
			if viewer != uuid.Nil {
				if liked, err = s.postRepo.HasLiked(gctx, viewer, p.ID); err != nil {
					return err
				}
			}

			p.LikeCount, p.CommentCount, p.ViewerHasLiked = likes, comments, liked
			return nil
		})
	}
	return g.Wait()
}
