// Package bootstrap connects the runtime dependencies shared by the API
// server entry points.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"blogsys/internal/cache"
	"blogsys/internal/config"
	"blogsys/internal/database"
	"blogsys/internal/middleware"
	"blogsys/internal/seed"
	"blogsys/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// DemoComments is the number of fake comments written to an empty
	// development database. Zero disables seeding.
	DemoComments int
}

// OptionsFromConfig derives Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{DemoComments: cfg.SeedDemoComments}
}

// InitRuntime connects to DB and Redis and optionally seeds demo comments.
// The Redis client is nil when REDIS_URL is unset or unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.NewClient(cfg.RedisURL)
	if rdb == nil && cfg.RedisURL != "" {
		middleware.Logger.Warn("Redis unavailable; caching and token revocation disabled")
	}

	if err := seedDemoComments(context.Background(), cfg, db, opts.DemoComments); err != nil {
		database.Close(db)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, fmt.Errorf("failed to seed demo comments: %w", err)
	}

	return db, rdb, nil
}

func seedDemoComments(ctx context.Context, cfg *config.Config, db *gorm.DB, n int) error {
	if n <= 0 || cfg.Env != "development" {
		return nil
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Comment{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	created, err := seed.NewFactory(db, seed.Options{Count: n, MaxLikes: 25}).Comments(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("Seeded demo comments", slog.Int("count", len(created)))
	return nil
}
