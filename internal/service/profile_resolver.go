package service

import (
	"context"
	"log/slog"
	"sync"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ProfileDefaults is the placeholder shown for members without a profile row.
type ProfileDefaults struct {
	DisplayName string
	AvatarURL   string
	Unit        string
}

// ProfileResolver turns user ids into display profiles. Results are memoized
// for the lifetime of the resolver, which is one session (or one request).
// Resolve never fails: lookups that cannot be answered yield a placeholder.
type ProfileResolver struct {
	profiles repository.ProfileRepository
	sessions auth.SessionSource
	defaults ProfileDefaults

	mu    sync.RWMutex
	memo  map[uuid.UUID]models.Profile
	gen   uint64
	group singleflight.Group
}

// NewProfileResolver creates a resolver with an empty memo.
func NewProfileResolver(profiles repository.ProfileRepository, sessions auth.SessionSource, defaults ProfileDefaults) *ProfileResolver {
	return &ProfileResolver{
		profiles: profiles,
		sessions: sessions,
		defaults: defaults,
		memo:     make(map[uuid.UUID]models.Profile),
	}
}

// Fork returns a resolver with the same collaborators and an empty memo.
func (r *ProfileResolver) Fork() *ProfileResolver {
	return NewProfileResolver(r.profiles, r.sessions, r.defaults)
}

// Placeholder returns the deterministic stand-in profile for id.
func (r *ProfileResolver) Placeholder(id uuid.UUID) models.Profile {
	return models.Profile{
		ID:          id,
		DisplayName: r.defaults.DisplayName,
		AvatarURL:   r.defaults.AvatarURL,
		Unit:        r.defaults.Unit,
	}
}

// Resolve returns the profile for id.
func (r *ProfileResolver) Resolve(ctx context.Context, id uuid.UUID) models.Profile {
	r.mu.RLock()
	p, ok := r.memo[id]
	gen := r.gen
	r.mu.RUnlock()
	if ok {
		observability.ProfileLookups.WithLabelValues("memo").Inc()
		return p
	}

	if r.sessions != nil {
		if session, err := r.sessions.CurrentSession(ctx); err == nil && session != nil && session.UserID == id {
			observability.ProfileLookups.WithLabelValues("session").Inc()
			p = session.Profile()
			r.remember(gen, p)
			return p
		}
	}

	v, _, _ := r.group.Do(id.String(), func() (any, error) {
		return r.fetch(ctx, gen, id), nil
	})
	return v.(models.Profile)
}

func (r *ProfileResolver) fetch(ctx context.Context, gen uint64, id uuid.UUID) models.Profile {
	stored, err := r.profiles.GetByID(ctx, id)
	switch {
	case err == nil:
		observability.ProfileLookups.WithLabelValues("store").Inc()
		r.remember(gen, *stored)
		return *stored
	case models.IsCode(err, models.CodeNotFound):
		observability.ProfileLookups.WithLabelValues("placeholder").Inc()
		p := r.Placeholder(id)
		r.remember(gen, p)
		return p
	default:
		// Not memoized so the next call retries.
		observability.ProfileLookups.WithLabelValues("placeholder").Inc()
		observability.Logger.WarnContext(ctx, "profile lookup failed",
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()),
		)
		return r.Placeholder(id)
	}
}

func (r *ProfileResolver) remember(gen uint64, p models.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen == gen {
		r.memo[p.ID] = p
	}
}

// ResolveMany resolves every distinct id with bounded concurrency.
func (r *ProfileResolver) ResolveMany(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]models.Profile {
	out := make(map[uuid.UUID]models.Profile, len(ids))
	var mu sync.Mutex

	seen := make(map[uuid.UUID]struct{}, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		id := id
		g.Go(func() error {
			p := r.Resolve(gctx, id)
			mu.Lock()
			out[id] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// EnsureProfile creates the actor's profile row from the session metadata
// when it does not exist yet. Failures are logged and otherwise ignored.
func (r *ProfileResolver) EnsureProfile(ctx context.Context, session *auth.Session) {
	if session == nil {
		return
	}
	p := session.Profile()
	if p.DisplayName == "" {
		p.DisplayName = r.defaults.DisplayName
	}
	if err := r.profiles.CreateIfMissing(ctx, &p); err != nil {
		observability.Logger.WarnContext(ctx, "ensure profile failed",
			slog.String("user_id", session.UserID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Forget drops the memoized entry for id.
func (r *ProfileResolver) Forget(id uuid.UUID) {
	r.mu.Lock()
	delete(r.memo, id)
	r.mu.Unlock()
}

// Clear drops every memoized profile.
func (r *ProfileResolver) Clear() {
	r.mu.Lock()
	r.memo = make(map[uuid.UUID]models.Profile)
	r.gen++
	r.mu.Unlock()
}

// Attach clears the memo whenever the signed-in member changes or edits their metadata.
func (r *ProfileResolver) Attach(n auth.Notifier) (detach func()) {
	return n.OnSessionChange(func(ev auth.Event) {
		switch {
		case ev.Type == auth.EventSignedOut, ev.Type == auth.EventUserUpdated:
			r.Clear()
		case ev.Previous != nil && ev.Session != nil && ev.Previous.UserID != ev.Session.UserID:
			r.Clear()
		}
	})
}

type resolverKey struct{}

// WithResolver scopes r to ctx, overriding the resolver a service was built with.
func WithResolver(ctx context.Context, r *ProfileResolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

func resolverFor(ctx context.Context, fallback *ProfileResolver) *ProfileResolver {
	if r, ok := ctx.Value(resolverKey{}).(*ProfileResolver); ok && r != nil {
		return r
	}
	return fallback
}
