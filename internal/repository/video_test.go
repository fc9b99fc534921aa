package repository

import (
	"context"
	"testing"
	"time"

	"fitstream/internal/cache"
	"fitstream/internal/models"
	"fitstream/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVideos(t *testing.T, repo VideoRepository) []*models.Video {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	videos := []*models.Video{
		{Title: "HIIT 20", Description: "Queima total", VideoURL: "https://v/1", Category: "hiit", CreatedAt: base},
		{Title: "Mobilidade", Description: "Alongamento 100% guiado", VideoURL: "https://v/2", Category: "mobility", CreatedAt: base.Add(time.Minute)},
		{Title: "Glúteos", VideoURL: "https://v/3", Category: "hiit", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, v := range videos {
		require.NoError(t, repo.Create(context.Background(), v))
	}
	return videos
}

func TestVideoRepository_ListAndCategory(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewVideoRepository(db)
	videos := seedVideos(t, repo)
	ctx := context.Background()

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, videos[2].ID, all[0].ID)

	hiit, err := repo.ListByCategory(ctx, "hiit")
	require.NoError(t, err)
	assert.Len(t, hiit, 2)
}

func TestVideoRepository_Search(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewVideoRepository(db)
	seedVideos(t, repo)
	ctx := context.Background()

	found, err := repo.Search(ctx, "hiit")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "HIIT 20", found[0].Title)

	found, err = repo.Search(ctx, "QUEIMA")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = repo.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestVideoRepository_IncrementViews(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr, _ := testutil.NewRedis(t)
	repo := NewVideoRepository(db)
	videos := seedVideos(t, repo)
	ctx := context.Background()
	id := videos[0].ID

	_, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.VideoKey(id)))

	require.NoError(t, repo.IncrementViews(ctx, id))
	require.NoError(t, repo.IncrementViews(ctx, id))
	assert.False(t, mr.Exists(cache.VideoKey(id)))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	err = repo.IncrementViews(ctx, uuid.New())
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestFavoriteRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	videos := seedVideos(t, NewVideoRepository(db))
	repo := NewFavoriteRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "dani")

	require.NoError(t, repo.Add(ctx, user.ID, videos[0].ID))
	require.NoError(t, repo.Add(ctx, user.ID, videos[0].ID))
	require.NoError(t, repo.Add(ctx, user.ID, videos[1].ID))

	ok, err := repo.Exists(ctx, user.ID, videos[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Video)

	require.NoError(t, repo.Remove(ctx, user.ID, videos[0].ID))
	ok, err = repo.Exists(ctx, user.ID, videos[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProgressRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	videos := seedVideos(t, NewVideoRepository(db))
	repo := NewProgressRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "eva")

	none, err := repo.Get(ctx, user.ID, videos[0].ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	now := time.Now()
	require.NoError(t, repo.Upsert(ctx, &models.UserProgress{UserID: user.ID, VideoID: videos[0].ID, WatchedDuration: 60, LastWatchedAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Upsert(ctx, &models.UserProgress{UserID: user.ID, VideoID: videos[0].ID, WatchedDuration: 300, LastWatchedAt: now}))
	require.NoError(t, repo.Upsert(ctx, &models.UserProgress{UserID: user.ID, VideoID: videos[1].ID, WatchedDuration: 900, Completed: true, LastWatchedAt: now}))

	got, err := repo.Get(ctx, user.ID, videos[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 300, got.WatchedDuration)

	var rows int64
	db.Model(&models.UserProgress{}).Where("user_id = ?", user.ID).Count(&rows)
	assert.Equal(t, int64(2), rows)

	incomplete, err := repo.ListByCompletion(ctx, user.ID, false, 10)
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, videos[0].ID, incomplete[0].VideoID)
	require.NotNil(t, incomplete[0].Video)

	completed, err := repo.ListByCompletion(ctx, user.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}
