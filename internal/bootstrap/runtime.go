// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"fitstream/internal/cache"
	"fitstream/internal/config"
	"fitstream/internal/database"
	"fitstream/internal/observability"
	"fitstream/internal/repository"
	"fitstream/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ImportCatalog loads cfg.CatalogFile (or the built-in catalog) into the videos table.
	ImportCatalog bool
	// SkipRedis leaves the Redis client nil.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis and optionally imports the workout catalog.
// The returned Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ImportCatalog {
		if err := importCatalog(ctx, db, cfg.CatalogFile); err != nil {
			return nil, nil, err
		}
	}

	if opts.SkipRedis {
		return db, nil, nil
	}
	return db, cache.InitRedis(cfg.RedisURL), nil
}

func importCatalog(ctx context.Context, db *gorm.DB, path string) error {
	videos, err := seed.LoadCatalogFile(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	added, err := seed.ImportCatalog(ctx, repository.NewVideoRepository(db), videos)
	if err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}
	observability.Logger.InfoContext(ctx, "catalog ready",
		slog.String("source", sourceName(path)),
		slog.Int("added", added),
	)
	return nil
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
