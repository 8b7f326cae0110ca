package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	productadapters "pricing_backend/internal/feature/product/adapters"
	"pricing_backend/internal/platform/cache"
)

// NewProductStore creates the product repository wrapped with the Redis read cache.
// A nil rdb yields a pass-through decorator.
func NewProductStore(db *gorm.DB, rdb *redis.Client, ttl time.Duration) cache.ProductStore {
	return cache.NewCachingProductRepository(rdb, ttl, productadapters.NewProductRepository(db), "products")
}
