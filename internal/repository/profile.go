package repository

import (
	"context"
	"time"

	"fitstream/internal/cache"
	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository reads and writes the public profile projection.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	// CreateIfMissing inserts the profile unless a row with the same id exists.
	CreateIfMissing(ctx context.Context, profile *models.Profile) error
	Upsert(ctx context.Context, profile *models.Profile) error
}

type profileRepository struct {
	db  *gorm.DB
	ttl time.Duration
	log *observability.RepoLogger
}

// NewProfileRepository creates a profile repository cached in Redis for ttl.
// A zero ttl uses cache.ProfileTTL.
func NewProfileRepository(db *gorm.DB, ttl time.Duration) ProfileRepository {
	if ttl <= 0 {
		ttl = cache.ProfileTTL
	}
	return &profileRepository{db: db, ttl: ttl, log: observability.NewRepoLogger("profiles")}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(id), &profile, r.ttl, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	})
	if err != nil {
		return nil, translate(err, "Profile", id)
	}
	return &profile, nil
}

func (r *profileRepository) CreateIfMissing(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil
		}
		r.log.LogError(ctx, res.Error, "create")
		return translate(res.Error, "Profile", profile.ID)
	}
	if res.RowsAffected > 0 {
		r.log.LogCreate(ctx, map[string]any{"profile_id": profile.ID.String()})
		cache.InvalidateProfile(ctx, profile.ID)
	}
	return nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar_url", "unit", "updated_at"}),
		}).
		Create(profile).Error
	if err != nil {
		r.log.LogError(ctx, err, "upsert")
		return translate(err, "Profile", profile.ID)
	}
	cache.InvalidateProfile(ctx, profile.ID)
	return nil
}
