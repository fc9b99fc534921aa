package feed

import (
	"context"
	"testing"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/repository"
	"fitstream/internal/service"
	"fitstream/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewModel_AgainstStore(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	postRepo := repository.NewPostRepository(db)
	profiles := service.NewProfileResolver(repository.NewProfileRepository(db, 0), auth.ContextSessions{},
		service.ProfileDefaults{DisplayName: "Usuário"})

	posts := service.NewPostService(postRepo, auth.ContextSessions{}, profiles, nil)
	reactions := service.NewReactionService(repository.NewReactionRepository(db), postRepo, auth.ContextSessions{})
	comments := service.NewCommentService(repository.NewCommentRepository(db), postRepo, auth.ContextSessions{}, profiles)

	ana := testutil.CreateUser(t, db, "ana")
	bia := testutil.CreateUser(t, db, "bia")
	asAna := auth.WithSession(context.Background(), &auth.Session{UserID: ana.ID, Name: ana.Name})
	asBia := auth.WithSession(context.Background(), &auth.Session{UserID: bia.ID, Name: bia.Name})

	anaFeed := NewViewModel(posts, reactions, comments, Options{})
	biaFeed := NewViewModel(posts, reactions, comments, Options{})

	require.NoError(t, anaFeed.Publish(asAna, PublishInput{Caption: "Leg day done 🔥", Kind: models.KindCheckin}))
	state := anaFeed.State()
	require.Len(t, state.Posts, 1)
	post := state.Posts[0]
	assert.Equal(t, "ana", post.Author.DisplayName)

	require.NoError(t, biaFeed.Load(asBia))
	require.NoError(t, biaFeed.ToggleLike(asBia, post.ID))
	_, err := biaFeed.Comment(asBia, post.ID, "Nice!")
	require.NoError(t, err)
	local := biaFeed.State().Posts[0]

	require.NoError(t, biaFeed.Load(asBia))
	fresh := biaFeed.State().Posts[0]
	assert.Equal(t, local.LikeCount, fresh.LikeCount)
	assert.Equal(t, local.CommentCount, fresh.CommentCount)
	assert.True(t, fresh.ViewerHasLiked)

	require.NoError(t, anaFeed.Load(asAna))
	assert.Equal(t, int64(1), anaFeed.State().Posts[0].LikeCount)
	assert.False(t, anaFeed.State().Posts[0].ViewerHasLiked)

	err = biaFeed.Remove(asBia, post.ID)
	assert.True(t, models.IsCode(err, models.CodePermissionDenied))

	require.NoError(t, anaFeed.Remove(asAna, post.ID))
	assert.Empty(t, anaFeed.State().Posts)
}
