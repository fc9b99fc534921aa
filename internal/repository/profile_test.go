package repository

import (
	"context"
	"testing"

	"fitstream/internal/cache"
	"fitstream/internal/models"
	"fitstream/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_GetByID_CachesInRedis(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, _ := testutil.NewRedis(t)
	repo := NewProfileRepository(db, 0)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "carla")

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carla", got.DisplayName)
	assert.True(t, mr.Exists(cache.ProfileKey(user.ID)))

	// A cached read does not see a direct table change until invalidation.
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", user.ID).Update("display_name", "Carla M.").Error)
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carla", got.DisplayName)

	cache.InvalidateProfile(ctx, user.ID)
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carla M.", got.DisplayName)
}

func TestProfileRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, _ := testutil.NewRedis(t)
	repo := NewProfileRepository(db, 0)
	id := uuid.New()

	_, err := repo.GetByID(context.Background(), id)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.False(t, mr.Exists(cache.ProfileKey(id)))
}

func TestProfileRepository_CreateIfMissingAndUpsert(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProfileRepository(db, 0)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, repo.CreateIfMissing(ctx, &models.Profile{ID: id, DisplayName: "first"}))
	require.NoError(t, repo.CreateIfMissing(ctx, &models.Profile{ID: id, DisplayName: "second"}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.DisplayName)

	require.NoError(t, repo.Upsert(ctx, &models.Profile{ID: id, DisplayName: "updated", Unit: "Centro"}))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.DisplayName)
	assert.Equal(t, "Centro", got.Unit)
}
