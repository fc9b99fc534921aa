package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postsStub is a stub for the Posts dependency.
type postsStub struct {
	mu       sync.Mutex
	posts    []*models.Post
	listErr  error
	createFn func(service.CreatePostInput) (*models.Post, error)
	deleteFn func(uuid.UUID) error
	lists    int
}

func (s *postsStub) CreatePost(_ context.Context, in service.CreatePostInput) (*models.Post, error) {
	return s.createFn(in)
}

func (s *postsStub) ListPosts(context.Context) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*models.Post, len(s.posts))
	for i, p := range s.posts {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

func (s *postsStub) DeletePost(_ context.Context, id uuid.UUID) error {
	return s.deleteFn(id)
}

type reactionsStub struct {
	err     error
	likes   []uuid.UUID
	unlikes []uuid.UUID
}

func (s *reactionsStub) Like(_ context.Context, id uuid.UUID) error {
	s.likes = append(s.likes, id)
	return s.err
}

func (s *reactionsStub) Unlike(_ context.Context, id uuid.UUID) error {
	s.unlikes = append(s.unlikes, id)
	return s.err
}

type commentsStub struct {
	addErr    error
	deleteErr error
	added     []string
}

func (s *commentsStub) AddComment(_ context.Context, postID uuid.UUID, content string) (*models.Comment, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.added = append(s.added, content)
	return &models.Comment{ID: uuid.New(), PostID: postID, Content: content}, nil
}

func (s *commentsStub) DeleteComment(context.Context, uuid.UUID) error {
	return s.deleteErr
}

type fixture struct {
	vm        *ViewModel
	posts     *postsStub
	reactions *reactionsStub
	comments  *commentsStub
	first     *models.Post
	second    *models.Post
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	first := &models.Post{ID: uuid.New(), Caption: "first", LikeCount: 2, CommentCount: 1}
	second := &models.Post{ID: uuid.New(), Caption: "second", LikeCount: 5, ViewerHasLiked: true}
	f := &fixture{
		posts:     &postsStub{posts: []*models.Post{first, second}},
		reactions: &reactionsStub{},
		comments:  &commentsStub{},
		first:     first,
		second:    second,
	}
	f.vm = NewViewModel(f.posts, f.reactions, f.comments, opts)
	require.NoError(t, f.vm.Load(context.Background()))
	return f
}

func (f *fixture) post(id uuid.UUID) *models.Post {
	return findPost(f.vm.State().Posts, id)
}

func TestLoad_Transitions(t *testing.T) {
	posts := &postsStub{posts: []*models.Post{{ID: uuid.New()}}}
	vm := NewViewModel(posts, &reactionsStub{}, &commentsStub{}, Options{})

	var seen []Status
	unsubscribe := vm.Subscribe(func(s State) { seen = append(seen, s.Status) })
	defer unsubscribe()

	require.NoError(t, vm.Load(context.Background()))
	assert.Equal(t, []Status{StatusIdle, StatusLoading, StatusLoaded}, seen)
	assert.Len(t, vm.State().Posts, 1)
	assert.NoError(t, vm.State().Err)
}

func TestLoad_FailureKeepsStalePosts(t *testing.T) {
	f := newFixture(t, Options{})
	f.posts.listErr = models.NewTransientError(errors.New("offline"))

	err := f.vm.Load(context.Background())
	require.Error(t, err)

	state := f.vm.State()
	assert.Equal(t, StatusLoaded, state.Status)
	assert.Len(t, state.Posts, 2)
	assert.True(t, models.IsCode(state.Err, models.CodeTransient))

	f.posts.listErr = nil
	require.NoError(t, f.vm.Load(context.Background()))
	assert.NoError(t, f.vm.State().Err)
}

func TestPublish_RejectsBlankCaptionBeforeService(t *testing.T) {
	f := newFixture(t, Options{})
	called := false
	f.posts.createFn = func(service.CreatePostInput) (*models.Post, error) {
		called = true
		return &models.Post{}, nil
	}

	err := f.vm.Publish(context.Background(), PublishInput{Caption: "   ", Kind: models.KindMoment})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	err = f.vm.Publish(context.Background(), PublishInput{Caption: "ok", Kind: models.KindMoment, PrimaryMedia: "ftp://x"})
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.False(t, called)
}

func TestPublish_ReloadsFeed(t *testing.T) {
	f := newFixture(t, Options{})
	f.posts.createFn = func(in service.CreatePostInput) (*models.Post, error) {
		p := &models.Post{ID: uuid.New(), Caption: in.Caption, Kind: in.Kind}
		f.posts.posts = append([]*models.Post{p}, f.posts.posts...)
		return p, nil
	}

	require.NoError(t, f.vm.Publish(context.Background(), PublishInput{Caption: " Leg day ", Kind: models.KindCheckin}))
	state := f.vm.State()
	require.Len(t, state.Posts, 3)
	assert.Equal(t, "Leg day", state.Posts[0].Caption)
	assert.Equal(t, 2, f.posts.lists)
}

func TestPublish_FailureSurfacesInState(t *testing.T) {
	f := newFixture(t, Options{})
	f.posts.createFn = func(service.CreatePostInput) (*models.Post, error) {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}

	err := f.vm.Publish(context.Background(), PublishInput{Caption: "hi", Kind: models.KindMoment})
	require.Error(t, err)
	assert.True(t, models.IsCode(f.vm.State().Err, models.CodeUnauthenticated))
	assert.Equal(t, 1, f.posts.lists)
}

func TestToggleLike_Optimistic(t *testing.T) {
	f := newFixture(t, Options{})

	var states []State
	f.vm.Subscribe(func(s State) { states = append(states, s) })

	require.NoError(t, f.vm.ToggleLike(context.Background(), f.first.ID))
	p := f.post(f.first.ID)
	assert.True(t, p.ViewerHasLiked)
	assert.Equal(t, int64(3), p.LikeCount)
	assert.Equal(t, []uuid.UUID{f.first.ID}, f.reactions.likes)
	require.Len(t, states, 2)
	assert.True(t, findPost(states[1].Posts, f.first.ID).ViewerHasLiked)

	require.NoError(t, f.vm.ToggleLike(context.Background(), f.second.ID))
	p = f.post(f.second.ID)
	assert.False(t, p.ViewerHasLiked)
	assert.Equal(t, int64(4), p.LikeCount)
	assert.Equal(t, []uuid.UUID{f.second.ID}, f.reactions.unlikes)
	assert.Equal(t, 1, f.posts.lists, "successful toggles never reload")
}

func TestToggleLike_FailureRevertsOnlyThatPost(t *testing.T) {
	f := newFixture(t, Options{})
	f.reactions.err = models.NewTransientError(errors.New("timeout"))

	// A local change on another post must survive the revert.
	_, err := f.vm.Comment(context.Background(), f.second.ID, "boa")
	require.NoError(t, err)

	err = f.vm.ToggleLike(context.Background(), f.first.ID)
	require.Error(t, err)

	p := f.post(f.first.ID)
	assert.False(t, p.ViewerHasLiked)
	assert.Equal(t, int64(2), p.LikeCount)
	assert.Equal(t, int64(1), f.post(f.second.ID).CommentCount)
	assert.True(t, models.IsCode(f.vm.State().Err, models.CodeTransient))
	assert.Equal(t, 1, f.posts.lists)
}

func TestToggleLike_FailureReloadOption(t *testing.T) {
	f := newFixture(t, Options{ReloadOnLikeFailure: true})
	f.reactions.err = errors.New("boom")

	require.Error(t, f.vm.ToggleLike(context.Background(), f.first.ID))
	assert.Equal(t, 2, f.posts.lists)
	assert.False(t, f.post(f.first.ID).ViewerHasLiked)
	assert.Error(t, f.vm.State().Err)
}

func TestToggleLike_UnknownPost(t *testing.T) {
	f := newFixture(t, Options{})
	err := f.vm.ToggleLike(context.Background(), uuid.New())
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.Empty(t, f.reactions.likes)
}

func TestComment(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.vm.Comment(context.Background(), f.first.ID, " \n ")
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Empty(t, f.comments.added)

	c, err := f.vm.Comment(context.Background(), f.first.ID, " Nice! ")
	require.NoError(t, err)
	assert.Equal(t, "Nice!", c.Content)
	assert.Equal(t, int64(2), f.post(f.first.ID).CommentCount)

	require.NoError(t, f.vm.DeleteComment(context.Background(), f.first.ID, c.ID))
	assert.Equal(t, int64(1), f.post(f.first.ID).CommentCount)

	f.comments.deleteErr = models.NewPermissionDeniedError("not yours")
	require.Error(t, f.vm.DeleteComment(context.Background(), f.first.ID, uuid.New()))
	assert.Equal(t, int64(1), f.post(f.first.ID).CommentCount)
	assert.True(t, models.IsCode(f.vm.State().Err, models.CodePermissionDenied))
}

func TestRemove(t *testing.T) {
	f := newFixture(t, Options{})
	f.posts.deleteFn = func(id uuid.UUID) error {
		f.posts.posts = f.posts.posts[1:]
		return nil
	}

	require.NoError(t, f.vm.Remove(context.Background(), f.first.ID))
	assert.Len(t, f.vm.State().Posts, 1)

	f.posts.deleteFn = func(uuid.UUID) error { return models.NewPermissionDeniedError("not yours") }
	require.Error(t, f.vm.Remove(context.Background(), f.second.ID))
	assert.Len(t, f.vm.State().Posts, 1)
	assert.True(t, models.IsCode(f.vm.State().Err, models.CodePermissionDenied))
}

func TestSnapshotsAreIsolated(t *testing.T) {
	f := newFixture(t, Options{})
	snap := f.vm.State()
	snap.Posts[0].LikeCount = 99
	assert.Equal(t, int64(2), f.post(f.first.ID).LikeCount)
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t, Options{})
	calls := 0
	unsubscribe := f.vm.Subscribe(func(State) { calls++ })
	unsubscribe()
	unsubscribe()

	require.NoError(t, f.vm.ToggleLike(context.Background(), f.first.ID))
	assert.Equal(t, 1, calls)
}

type notifierStub struct{ listener auth.Listener }

func (n *notifierStub) OnSessionChange(l auth.Listener) func() {
	n.listener = l
	return func() {}
}

func TestAttach_ResetsOnSignOut(t *testing.T) {
	f := newFixture(t, Options{})
	n := &notifierStub{}
	f.vm.Attach(n)

	n.listener(auth.Event{Type: auth.EventUserUpdated, Session: &auth.Session{}, Previous: &auth.Session{}})
	assert.Len(t, f.vm.State().Posts, 2)

	n.listener(auth.Event{Type: auth.EventSignedOut, Previous: &auth.Session{UserID: uuid.New()}})
	state := f.vm.State()
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, state.Posts)
}
