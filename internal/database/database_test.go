package database

import (
	"context"
	"regexp"
	"testing"

	"fitstream/internal/config"
	"fitstream/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(gormDB, cfg))

	assert.Equal(t, 10, db.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnect_SQLiteAutoMigrates(t *testing.T) {
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   "sqlite",
		SQLitePath: "file::memory:?cache=shared",
	}

	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T should be migrated", model)
	}
	assert.True(t, db.Migrator().HasTable("post_likes"))
}

func TestPersistentModels_IncludesFeedTables(t *testing.T) {
	var hasPost, hasReaction, hasProfile bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Post:
			hasPost = true
		case *models.Reaction:
			hasReaction = true
		case *models.Profile:
			hasProfile = true
		}
	}
	assert.True(t, hasPost)
	assert.True(t, hasReaction)
	assert.True(t, hasProfile)
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations(migrationFS)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "feed_schema", migrations[0].Name)
	assert.Contains(t, migrations[0].UpScript, "ON DELETE CASCADE")
	assert.Contains(t, migrations[0].UpScript, "PRIMARY KEY (post_id, user_id)")
	assert.Contains(t, migrations[0].DownScript, "DROP TABLE IF EXISTS post_likes")
	assert.Equal(t, "000002_video_catalog", migrations[1].String())
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		mode     string
		dialect  string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"sqlite always auto", "production", SchemaModeSQL, "sqlite", false, true, false},
		{"hybrid in development", "development", "", "postgres", true, true, false},
		{"hybrid in production", "production", SchemaModeHybrid, "postgres", true, false, false},
		{"sql only", "development", SchemaModeSQL, "postgres", true, false, false},
		{"auto in development", "development", SchemaModeAuto, "postgres", false, true, false},
		{"auto refused in production", "production", SchemaModeAuto, "postgres", false, false, true},
		{"unknown mode", "development", "magic", "postgres", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&config.Config{Env: tt.env, DBSchemaMode: tt.mode}, tt.dialect)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestRunMigrations_AppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	migrations := []Migration{
		{Version: 1, Name: "first", UpScript: "CREATE TABLE first_table (id INT)"},
		{Version: 2, Name: "second", UpScript: "CREATE TABLE second_table (id INT)"},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS migration_logs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "version" FROM "migration_logs" ORDER BY version ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE second_table (id INT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "migration_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), gormDB, migrations))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(logger.Warn)
	quiet := l.LogMode(logger.Silent).(*GormLogger)
	assert.Equal(t, logger.Silent, quiet.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel)
}

func TestRegisterMetrics_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterMetrics(db))
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	var count int64
	assert.NoError(t, db.Model(&models.Profile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetSchemaStatus_SQLite(t *testing.T) {
	cfg := &config.Config{Env: "test", DBDriver: "sqlite", SQLitePath: "file::memory:"}
	db, err := Open(cfg)
	require.NoError(t, err)

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	assert.Empty(t, status.AppliedVersions)
	assert.Len(t, status.PendingMigrations, 2)
}

func TestRollbackMigration_UnknownVersion(t *testing.T) {
	cfg := &config.Config{Env: "test", DBDriver: "sqlite", SQLitePath: "file::memory:"}
	db, err := Open(cfg)
	require.NoError(t, err)

	err = RollbackMigration(context.Background(), db, 999)
	assert.ErrorContains(t, err, "not found")
}
