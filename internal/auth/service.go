package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"
	"fitstream/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer   = "fitstream-api"
	audience = "fitstream-client"
)

// Config configures token signing.
type Config struct {
	Secret     string
	SessionTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Unit     string `json:"unit"`
	Password string `json:"password"`
}

// Service is the identity service. Besides stateless token verification it
// tracks one current session for in-process clients such as the feed view-model.
type Service struct {
	users repository.UserRepository
	redis *redis.Client
	cfg   Config
	now   func() time.Time

	mu        sync.Mutex
	current   *Session
	listeners map[int]Listener
	nextID    int
}

// NewService builds an identity service. rdb may be nil, in which case
// revocations are not persisted.
func NewService(users repository.UserRepository, rdb *redis.Client, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:     users,
		redis:     rdb,
		cfg:       cfg,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// SignUp registers an account and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := validation.ValidateDisplayName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Phone:        validation.FormatPhone(in.Phone),
		Unit:         strings.TrimSpace(in.Unit),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// SignIn checks credentials and makes the resulting session current.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthenticatedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *Service) issue(user *models.User) (*Session, error) {
	session := sessionFromUser(user)
	token, jti, exp, err := s.sign(user.ID)
	if err != nil {
		return nil, err
	}
	session.Token, session.TokenID, session.ExpiresAt = token, jti, exp

	s.setCurrent(EventSignedIn, session)
	return session, nil
}

func (s *Service) sign(userID uuid.UUID) (token, jti string, exp time.Time, err error) {
	if s.cfg.Secret == "" {
		return "", "", time.Time{}, errors.New("JWT secret not configured")
	}

	now := s.now()
	exp = now.Add(s.cfg.SessionTTL)
	jti = uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        jti,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, jti, exp, nil
}

// Verify parses token, rejects revoked tokens and loads the account metadata.
func (s *Service) Verify(ctx context.Context, token string) (*Session, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, models.NewUnauthenticatedError("Invalid or expired token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, models.NewUnauthenticatedError("Invalid user ID in token")
	}

	if claims.ID != "" && s.redis != nil {
		n, err := s.redis.Exists(ctx, revocationKey(claims.ID)).Result()
		if err != nil {
			observability.Logger.WarnContext(ctx, "revocation check failed", slog.String("error", err.Error()))
		} else if n > 0 {
			return nil, models.NewUnauthenticatedError("Token has been revoked")
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthenticatedError("Account no longer exists")
		}
		return nil, err
	}

	session := sessionFromUser(user)
	session.Token = token
	session.TokenID = claims.ID
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Revoke blacklists the session's token until it would have expired.
func (s *Service) Revoke(ctx context.Context, session *Session) error {
	if session == nil || session.TokenID == "" {
		return nil
	}
	if s.redis == nil {
		observability.Logger.WarnContext(ctx, "token revocation skipped, redis unavailable")
		return nil
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, revocationKey(session.TokenID), "1", ttl).Err(); err != nil {
		return models.NewTransientError(err)
	}
	return nil
}

// SignOut revokes the session acting in ctx (or the current one) and clears the current session.
func (s *Service) SignOut(ctx context.Context) error {
	session, _ := s.CurrentSession(ctx)
	if err := s.Revoke(ctx, session); err != nil {
		return err
	}
	s.setCurrent(EventSignedOut, nil)
	return nil
}

// CurrentSession returns the session attached to ctx, falling back to the
// process-level current session. A nil session means nobody is signed in.
func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	if session, ok := FromContext(ctx); ok {
		return session, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

// UpdateSessionUser refreshes the current session's metadata after an account edit.
func (s *Service) UpdateSessionUser(user *models.User) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur == nil || cur.UserID != user.ID {
		return
	}

	updated := *cur
	updated.Name, updated.Phone = user.Name, user.Phone
	updated.AvatarURL, updated.Unit = user.AvatarURL, user.Unit
	s.setCurrent(EventUserUpdated, &updated)
}

// OnSessionChange registers l for session transitions.
func (s *Service) OnSessionChange(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) setCurrent(typ EventType, session *Session) {
	s.mu.Lock()
	prev := s.current
	s.current = session
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	ev := Event{Type: typ, Session: session, Previous: prev}
	for _, l := range listeners {
		l(ev)
	}
}

func revocationKey(jti string) string {
	return "blacklist:" + jti
}
