// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "pricing_backend/internal/feature/auth/adapters"
	"pricing_backend/internal/feature/auth/usecase"
	"pricing_backend/internal/platform/session"
)

// sessionPrefix はRedis上のセッションキーの名前空間です。
const sessionPrefix = "session"

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the relational store.
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) usecase.SessionRepository {
	if rdb != nil {
		return session.NewRedisStore(rdb, sessionPrefix)
	}
	return authadapters.NewSessionRepository(db)
}
