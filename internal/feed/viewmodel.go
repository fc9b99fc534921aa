// Package feed holds the community feed view-model: the observable list of
// posts a client renders, with optimistic like toggling.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/service"
	"fitstream/internal/validation"

	"github.com/google/uuid"
)

// Status is the load phase of the feed.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// State is an immutable snapshot of the feed. Err carries the last failed
// operation and is cleared by the next successful load.
type State struct {
	Status Status
	Posts  []*models.Post
	Err    error
}

// Posts is the post service surface the feed needs.
type Posts interface {
	CreatePost(ctx context.Context, in service.CreatePostInput) (*models.Post, error)
	ListPosts(ctx context.Context) ([]*models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
}

// Reactions is the like service surface the feed needs.
type Reactions interface {
	Like(ctx context.Context, postID uuid.UUID) error
	Unlike(ctx context.Context, postID uuid.UUID) error
}

// Comments is the comment service surface the feed needs.
type Comments interface {
	AddComment(ctx context.Context, postID uuid.UUID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

// Options tunes the view-model.
type Options struct {
	// ReloadOnLikeFailure reloads the whole feed after a failed like toggle
	// instead of reverting only the toggled post.
	ReloadOnLikeFailure bool
}

// PublishInput is the composer form.
type PublishInput struct {
	Caption        string
	Kind           models.PostKind
	PrimaryMedia   string
	SecondaryMedia string
	IsVideo        bool
	Nutrition      *models.NutritionFacts
}

// ViewModel owns the feed state for one signed-in session.
type ViewModel struct {
	posts     Posts
	reactions Reactions
	comments  Comments
	opts      Options

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextID    int
}

func NewViewModel(posts Posts, reactions Reactions, comments Comments, opts Options) *ViewModel {
	return &ViewModel{
		posts:     posts,
		reactions: reactions,
		comments:  comments,
		opts:      opts,
		observers: make(map[int]func(State)),
	}
}

// State returns a snapshot of the current state.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshot()
}

// Subscribe registers fn for every state change and immediately delivers the current state.
func (vm *ViewModel) Subscribe(fn func(State)) (unsubscribe func()) {
	vm.mu.Lock()
	id := vm.nextID
	vm.nextID++
	vm.observers[id] = fn
	current := vm.snapshot()
	vm.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			vm.mu.Lock()
			delete(vm.observers, id)
			vm.mu.Unlock()
		})
	}
}

// Load fetches the feed. On failure the previous posts stay visible and Err is set.
func (vm *ViewModel) Load(ctx context.Context) error {
	vm.update(func(s *State) { s.Status = StatusLoading })

	posts, err := vm.posts.ListPosts(ctx)
	vm.update(func(s *State) {
		s.Status = StatusLoaded
		if err != nil {
			s.Err = err
			return
		}
		s.Posts = posts
		s.Err = nil
	})
	if err != nil {
		observability.Logger.WarnContext(ctx, "feed load failed", slog.String("error", err.Error()))
	}
	return err
}

// Publish creates a post and reloads the feed.
func (vm *ViewModel) Publish(ctx context.Context, in PublishInput) error {
	if err := validation.ValidateCaption(in.Caption); err != nil {
		return models.NewValidationError(err.Error())
	}
	for _, ref := range []string{in.PrimaryMedia, in.SecondaryMedia} {
		if err := validation.ValidateMediaRef(strings.TrimSpace(ref)); err != nil {
			return models.NewValidationError(err.Error())
		}
	}

	_, err := vm.posts.CreatePost(ctx, service.CreatePostInput{
		Caption:        strings.TrimSpace(in.Caption),
		Kind:           in.Kind,
		PrimaryMedia:   in.PrimaryMedia,
		SecondaryMedia: in.SecondaryMedia,
		IsVideo:        in.IsVideo,
		Nutrition:      in.Nutrition,
	})
	if err != nil {
		vm.fail(err)
		return err
	}
	return vm.Load(ctx)
}

// ToggleLike flips the viewer's like on postID immediately and then persists it.
// A failed call reverts that post only, unless Options.ReloadOnLikeFailure is set.
func (vm *ViewModel) ToggleLike(ctx context.Context, postID uuid.UUID) error {
	var wasLiked, found bool
	vm.update(func(s *State) {
		p := findPost(s.Posts, postID)
		if p == nil {
			return
		}
		found, wasLiked = true, p.ViewerHasLiked
		applyLike(p, !wasLiked)
	})
	if !found {
		return models.NewNotFoundError("Post", postID)
	}

	var err error
	if wasLiked {
		err = vm.reactions.Unlike(ctx, postID)
	} else {
		err = vm.reactions.Like(ctx, postID)
	}
	if err == nil {
		return nil
	}

	observability.Logger.WarnContext(ctx, "like toggle failed",
		slog.String("post_id", postID.String()),
		slog.String("error", err.Error()),
	)
	if vm.opts.ReloadOnLikeFailure {
		observability.OptimisticReverts.WithLabelValues("reload").Inc()
		_ = vm.Load(ctx)
		vm.fail(err)
		return err
	}

	observability.OptimisticReverts.WithLabelValues("single_post").Inc()
	vm.update(func(s *State) {
		if p := findPost(s.Posts, postID); p != nil && p.ViewerHasLiked != wasLiked {
			applyLike(p, wasLiked)
		}
		s.Err = err
	})
	return err
}

// Remove deletes a post and reloads the feed.
func (vm *ViewModel) Remove(ctx context.Context, postID uuid.UUID) error {
	if err := vm.posts.DeletePost(ctx, postID); err != nil {
		vm.fail(err)
		return err
	}
	return vm.Load(ctx)
}

// Comment adds a comment and bumps the post's count locally.
func (vm *ViewModel) Comment(ctx context.Context, postID uuid.UUID, content string) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment, err := vm.comments.AddComment(ctx, postID, strings.TrimSpace(content))
	if err != nil {
		vm.fail(err)
		return nil, err
	}
	vm.update(func(s *State) {
		if p := findPost(s.Posts, postID); p != nil {
			p.CommentCount++
		}
	})
	return comment, nil
}

// DeleteComment removes a comment and decrements the parent post's count locally.
func (vm *ViewModel) DeleteComment(ctx context.Context, postID, commentID uuid.UUID) error {
	if err := vm.comments.DeleteComment(ctx, commentID); err != nil {
		vm.fail(err)
		return err
	}
	vm.update(func(s *State) {
		if p := findPost(s.Posts, postID); p != nil && p.CommentCount > 0 {
			p.CommentCount--
		}
	})
	return nil
}

// Reset drops every post and returns to Idle.
func (vm *ViewModel) Reset() {
	vm.update(func(s *State) { *s = State{} })
}

// Attach resets the feed when the session signs out or switches member.
func (vm *ViewModel) Attach(n auth.Notifier) (detach func()) {
	return n.OnSessionChange(func(ev auth.Event) {
		switch {
		case ev.Type == auth.EventSignedOut:
			vm.Reset()
		case ev.Previous != nil && ev.Session != nil && ev.Previous.UserID != ev.Session.UserID:
			vm.Reset()
		}
	})
}

func (vm *ViewModel) fail(err error) {
	vm.update(func(s *State) { s.Err = err })
}

// update applies fn under the lock, then notifies observers with the new snapshot.
func (vm *ViewModel) update(fn func(*State)) {
	vm.mu.Lock()
	fn(&vm.state)
	snap := vm.snapshot()
	observers := make([]func(State), 0, len(vm.observers))
	for _, o := range vm.observers {
		observers = append(observers, o)
	}
	vm.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

// snapshot copies the state so observers never share posts with the view-model.
func (vm *ViewModel) snapshot() State {
	out := State{Status: vm.state.Status, Err: vm.state.Err}
	if vm.state.Posts != nil {
		out.Posts = make([]*models.Post, len(vm.state.Posts))
		for i, p := range vm.state.Posts {
			cp := *p
			out.Posts[i] = &cp
		}
	}
	return out
}

func findPost(posts []*models.Post, id uuid.UUID) *models.Post {
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func applyLike(p *models.Post, liked bool) {
	p.ViewerHasLiked = liked
	if liked {
		p.LikeCount++
	} else if p.LikeCount > 0 {
		p.LikeCount--
	}
}
