package service

import (
	"context"
	"strings"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"
	"fitstream/internal/validation"

	"github.com/google/uuid"
)

// SessionUpdater is told about account edits so the live session stays current.
type SessionUpdater interface {
	UpdateSessionUser(user *models.User)
}

type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	sessions    auth.SessionSource
	profiles    *ProfileResolver
	updater     SessionUpdater
}

// UpdateProfileInput holds the editable account fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
	Unit      *string `json:"unit"`
}

func NewUserService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	sessions auth.SessionSource,
	profiles *ProfileResolver,
	updater SessionUpdater,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sessions:    sessions,
		profiles:    profiles,
		updater:     updater,
	}
}

// Me returns the acting member's account.
func (s *UserService) Me(ctx context.Context) (*models.User, error) {
	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, actor.UserID)
}

// GetProfile resolves the public profile of any member.
func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) models.Profile {
	return resolverFor(ctx, s.profiles).Resolve(ctx, id)
}

// UpdateProfile edits the acting member's metadata and republishes their profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService.UpdateProfile")
	defer func() { finish(span, "update_profile", err) }()

	actor, err := requireActor(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	user, err = s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := validation.ValidateDisplayName(*in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		if err := validation.ValidatePhone(*in.Phone); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Phone = validation.FormatPhone(strings.TrimSpace(*in.Phone))
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" {
			if err := validation.ValidateMediaRef(avatar); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
		}
		user.AvatarURL = avatar
	}
	if in.Unit != nil {
		user.Unit = strings.TrimSpace(*in.Unit)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	profile := user.Profile()
	if err := s.profileRepo.Upsert(ctx, &profile); err != nil {
		return nil, err
	}
	resolverFor(ctx, s.profiles).Forget(user.ID)
	if s.updater != nil {
		s.updater.UpdateSessionUser(user)
	}
	return user, nil
}
