// Package di assembles infrastructure-backed implementations for the application.
package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "focoprod_backend/internal/feature/auth/adapters"
	"focoprod_backend/internal/feature/auth/usecase"
	"focoprod_backend/internal/platform/session"
)

// ExpiredSessionSweeper deletes expired rows from a SQL session store.
type ExpiredSessionSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the SQL database and also returns the sweeper for expired rows.
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) (usecase.SessionRepository, ExpiredSessionSweeper) {
	if rdb != nil {
		return session.NewSessionRedis(rdb, session.DefaultKeyPrefix), nil
	}
	repo := authadapters.NewSessionRepository(db)
	return repo, repo
}

// RunSessionSweeper calls DeleteExpired every interval until ctx is done.
// Redis expires keys on its own, so this only runs for the SQL store.
func RunSessionSweeper(ctx context.Context, sweeper ExpiredSessionSweeper, interval time.Duration) {
	if sweeper == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweeper.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("failed to delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions deleted", "count", n)
			}
		}
	}
}
