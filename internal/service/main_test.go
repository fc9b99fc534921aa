package service

import (
	"context"
	"errors"
	"testing"

	"fitstream/internal/auth"
	"fitstream/internal/featureflags"
	"fitstream/internal/models"
	"fitstream/internal/repository"
	"fitstream/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDefaults = ProfileDefaults{
	DisplayName: "Usuário",
	AvatarURL:   "https://cdn.example.com/default.png",
	Unit:        "Zona Norte",
}

type harness struct {
	db        *gorm.DB
	profiles  *ProfileResolver
	posts     *PostService
	comments  *CommentService
	reactions *ReactionService
	users     *UserService
	catalog   *CatalogService
}

func newHarness(t *testing.T, flags string) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	postRepo := repository.NewPostRepository(db)
	profileRepo := repository.NewProfileRepository(db, 0)
	profiles := NewProfileResolver(profileRepo, auth.ContextSessions{}, testDefaults)

	return &harness{
		db:        db,
		profiles:  profiles,
		posts:     NewPostService(postRepo, auth.ContextSessions{}, profiles, featureflags.NewManager(flags)),
		comments:  NewCommentService(repository.NewCommentRepository(db), postRepo, auth.ContextSessions{}, profiles),
		reactions: NewReactionService(repository.NewReactionRepository(db), postRepo, auth.ContextSessions{}),
		users:     NewUserService(repository.NewUserRepository(db), profileRepo, auth.ContextSessions{}, profiles, nil),
		catalog: NewCatalogService(
			repository.NewVideoRepository(db),
			repository.NewFavoriteRepository(db),
			repository.NewProgressRepository(db),
			auth.ContextSessions{},
		),
	}
}

// sessionCtx returns a context acting as user.
func sessionCtx(user *models.User) context.Context {
	return auth.WithSession(context.Background(), &auth.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Unit:      user.Unit,
	})
}

// as acts as user with a fresh request-scoped resolver.
func (h *harness) as(user *models.User) context.Context {
	return WithResolver(sessionCtx(user), h.profiles.Fork())
}

func (h *harness) newUser(t *testing.T, name string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, h.db, name)
}

func (h *harness) publish(t *testing.T, ctx context.Context, caption string) *models.Post {
	t.Helper()
	post, err := h.posts.CreatePost(ctx, CreatePostInput{Caption: caption, Kind: models.KindCheckin})
	require.NoError(t, err)
	return post
}

func findPost(t *testing.T, posts []*models.Post, post *models.Post) *models.Post {
	t.Helper()
	for _, p := range posts {
		if p.ID == post.ID {
			return p
		}
	}
	t.Fatalf("post %s not listed", post.ID)
	return nil
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
