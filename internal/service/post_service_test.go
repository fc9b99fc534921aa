package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"fitstream/internal/auth"
	"fitstream/internal/featureflags"
	"fitstream/internal/models"
	"fitstream/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uuid.UUID) (*models.Post, error)
	existsFn        func(context.Context, uuid.UUID) (bool, error)
	listFn          func(context.Context) ([]*models.Post, error)
	deleteFn        func(context.Context, uuid.UUID) error
	countLikesFn    func(context.Context, []uuid.UUID) (map[uuid.UUID]int64, error)
	countCommentsFn func(context.Context, []uuid.UUID) (map[uuid.UUID]int64, error)
	likedFn         func(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]bool, error)
	perPostCalls    atomic.Int32
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context) ([]*models.Post, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) CountLikes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return s.countLikesFn(ctx, ids)
}
func (s *postRepoStub) CountComments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return s.countCommentsFn(ctx, ids)
}
func (s *postRepoStub) LikedPostIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.likedFn(ctx, userID, ids)
}
func (s *postRepoStub) CountLikesForPost(context.Context, uuid.UUID) (int64, error) {
	s.perPostCalls.Add(1)
	return 0, nil
}
func (s *postRepoStub) CountCommentsForPost(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}
func (s *postRepoStub) HasLiked(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uuid.UUID) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		},
		existsFn: func(_ context.Context, _ uuid.UUID) (bool, error) { return true, nil },
		listFn:   func(_ context.Context) ([]*models.Post, error) { return nil, nil },
		deleteFn: func(_ context.Context, _ uuid.UUID) error { return nil },
		countLikesFn: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]int64, error) {
			return map[uuid.UUID]int64{}, nil
		},
		countCommentsFn: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]int64, error) {
			return map[uuid.UUID]int64{}, nil
		},
		likedFn: func(_ context.Context, _ uuid.UUID, _ []uuid.UUID) (map[uuid.UUID]bool, error) {
			return map[uuid.UUID]bool{}, nil
		},
	}
}

func newStubPostService(repo *postRepoStub, profiles *testutil.ProfileRepoStub) *PostService {
	return NewPostService(repo, auth.ContextSessions{}, NewProfileResolver(profiles, auth.ContextSessions{}, testDefaults), nil)
}

func TestCreatePost_RequiresActor(t *testing.T) {
	repo := noopPostRepo()
	called := false
	repo.createFn = func(context.Context, *models.Post) error { called = true; return nil }
	svc := newStubPostService(repo, testutil.NewProfileRepoStub())

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Caption: "hi", Kind: models.KindMoment})
	assertCode(t, err, models.CodeUnauthenticated)
	assert.False(t, called)
}

func TestCreatePost_Validation(t *testing.T) {
	h := newHarness(t, "")
	ctx := h.as(h.newUser(t, "ana"))

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"unknown kind", CreatePostInput{Caption: "x", Kind: "workout"}},
		{"partial nutrition", CreatePostInput{Caption: "x", Kind: models.KindNutrition,
			Nutrition: &models.NutritionFacts{Protein: "30g", Kcal: "400"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.posts.CreatePost(ctx, tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestCreatePost_StoresNutritionAndMedia(t *testing.T) {
	h := newHarness(t, "")
	ctx := h.as(h.newUser(t, "ana"))

	post, err := h.posts.CreatePost(ctx, CreatePostInput{
		Caption:      "Almoço pós treino",
		Kind:         models.KindNutrition,
		PrimaryMedia: " https://cdn.example.com/plate.jpg ",
		Nutrition:    &models.NutritionFacts{Protein: "32g", Carbs: "50g", Kcal: "520"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/plate.jpg", post.PrimaryMedia)
	require.NotNil(t, post.Author)
	assert.Equal(t, "ana", post.Author.DisplayName)

	got, err := h.posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NutritionFacts)
	assert.Equal(t, "32g", got.NutritionFacts.Protein)
	assert.Equal(t, "520", got.NutritionFacts.Kcal)

	// Empty facts are stored as none.
	plain, err := h.posts.CreatePost(ctx, CreatePostInput{Caption: "x", Kind: models.KindMoment,
		Nutrition: &models.NutritionFacts{}})
	require.NoError(t, err)
	got, err = h.posts.GetPost(ctx, plain.ID)
	require.NoError(t, err)
	assert.Nil(t, got.NutritionFacts)
}

func TestCreatePost_EnsureProfileFailureIsSwallowed(t *testing.T) {
	profiles := testutil.NewProfileRepoStub()
	profiles.CreateErr = errors.New("profiles table unavailable")
	var stored *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error { stored = p; return nil }
	svc := newStubPostService(repo, profiles)

	user := &models.User{ID: uuid.New(), Name: "ana"}
	post, err := svc.CreatePost(sessionCtx(user), CreatePostInput{Caption: "hi", Kind: models.KindCheckin})
	require.NoError(t, err)
	assert.Same(t, stored, post)
	assert.Equal(t, user.ID, post.AuthorID)
	// The author comes from the session, not the store.
	assert.Equal(t, "ana", post.Author.DisplayName)
}

func TestCreatePost_EnsuresProfileRow(t *testing.T) {
	profiles := testutil.NewProfileRepoStub()
	svc := newStubPostService(noopPostRepo(), profiles)

	user := &models.User{ID: uuid.New(), Name: "ana"}
	_, err := svc.CreatePost(sessionCtx(user), CreatePostInput{Caption: "hi", Kind: models.KindCheckin})
	require.NoError(t, err)
	assert.True(t, profiles.Has(user.ID))
}

func TestDeletePost(t *testing.T) {
	h := newHarness(t, "")
	owner, other := h.newUser(t, "ana"), h.newUser(t, "bia")
	post := h.publish(t, h.as(owner), "bye")
	require.NoError(t, h.reactions.Like(h.as(other), post.ID))
	_, err := h.comments.AddComment(h.as(other), post.ID, "nice")
	require.NoError(t, err)

	assertCode(t, h.posts.DeletePost(context.Background(), post.ID), models.CodeUnauthenticated)
	assertCode(t, h.posts.DeletePost(h.as(other), post.ID), models.CodePermissionDenied)
	assertCode(t, h.posts.DeletePost(h.as(owner), uuid.New()), models.CodeNotFound)

	require.NoError(t, h.posts.DeletePost(h.as(owner), post.ID))

	var likes, comments int64
	require.NoError(t, h.db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&likes).Error)
	require.NoError(t, h.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestListPosts_CountFailureIsReturned(t *testing.T) {
	repo := noopPostRepo()
	repo.listFn = func(context.Context) ([]*models.Post, error) {
		return []*models.Post{{ID: uuid.New(), AuthorID: uuid.New()}}, nil
	}
	repo.countLikesFn = func(context.Context, []uuid.UUID) (map[uuid.UUID]int64, error) {
		return nil, models.NewTransientError(errors.New("connection reset"))
	}
	svc := newStubPostService(repo, testutil.NewProfileRepoStub())

	_, err := svc.ListPosts(context.Background())
	assertCode(t, err, models.CodeTransient)
}

func TestListPosts_PerPostFlag(t *testing.T) {
	posts := []*models.Post{{ID: uuid.New(), AuthorID: uuid.New()}, {ID: uuid.New(), AuthorID: uuid.New()}}
	repo := noopPostRepo()
	repo.listFn = func(context.Context) ([]*models.Post, error) { return posts, nil }
	groupedCalls := 0
	repo.countLikesFn = func(context.Context, []uuid.UUID) (map[uuid.UUID]int64, error) {
		groupedCalls++
		return map[uuid.UUID]int64{}, nil
	}

	svc := newStubPostService(repo, testutil.NewProfileRepoStub())
	_, err := svc.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, groupedCalls)
	assert.Zero(t, repo.perPostCalls.Load())

	svc.flags = featureflags.NewManager("per_post_counts=on")
	_, err = svc.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, groupedCalls)
	assert.Equal(t, int32(2), repo.perPostCalls.Load())
}

func TestListPosts_UnknownAuthorGetsPlaceholder(t *testing.T) {
	ghost := uuid.New()
	repo := noopPostRepo()
	repo.listFn = func(context.Context) ([]*models.Post, error) {
		return []*models.Post{{ID: uuid.New(), AuthorID: ghost}}, nil
	}
	svc := newStubPostService(repo, testutil.NewProfileRepoStub())

	posts, err := svc.ListPosts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, ghost, posts[0].Author.ID)
	assert.Equal(t, "Usuário", posts[0].Author.DisplayName)
}
