// Package auth implements the identity service: accounts, signed sessions,
// revocation and session change notifications.
package auth

import (
	"context"
	"time"

	"fitstream/internal/models"

	"github.com/google/uuid"
)

// Session is an authenticated actor together with the metadata shown on their posts.
type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url"`
	Unit      string    `json:"unit"`
	Token     string    `json:"token,omitempty"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile projects the session metadata into a public profile.
func (s *Session) Profile() models.Profile {
	return models.Profile{
		ID:          s.UserID,
		DisplayName: s.Name,
		AvatarURL:   s.AvatarURL,
		Unit:        s.Unit,
	}
}

func sessionFromUser(u *models.User) *Session {
	return &Session{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Unit:      u.Unit,
	}
}

type sessionKey struct{}

// WithSession returns a context carrying s as the acting session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// EventType names a session transition.
type EventType string

const (
	EventSignedIn    EventType = "SIGNED_IN"
	EventSignedOut   EventType = "SIGNED_OUT"
	EventUserUpdated EventType = "USER_UPDATED"
)

// Event describes a change of the current session. Session is nil after sign-out.
type Event struct {
	Type     EventType
	Session  *Session
	Previous *Session
}

// Listener receives session change events.
type Listener func(Event)

// SessionSource yields the acting session. A nil session without error means signed out.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*Session, error)
}

// Notifier lets components follow session changes.
type Notifier interface {
	OnSessionChange(l Listener) (unsubscribe func())
}

// ContextSessions is a SessionSource that only reads the session attached to
// ctx. Request handlers use it so an anonymous request never inherits the
// process-level current session.
type ContextSessions struct{}

func (ContextSessions) CurrentSession(ctx context.Context) (*Session, error) {
	s, _ := FromContext(ctx)
	return s, nil
}
