package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/h1bee-match/internal/cache"
	"github.com/oggyb/h1bee-match/internal/config"
	"github.com/oggyb/h1bee-match/internal/notify"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Notifier   notify.Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

// New creates a new AppContext. Notifier defaults to a noop one and Now to
// the wall clock in UTC.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, notifier notify.Notifier, logger *slog.Logger) *AppContext {
	if notifier == nil {
		notifier = notify.NewNoopNotifier(logger, "not configured")
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Notifier:   notifier,
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}
