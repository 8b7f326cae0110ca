// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/feature/product/usecase"
)

// ProductStore is the repository surface the decorator wraps.
// FindByIDs serves the pricing reports and is not cached.
type ProductStore interface {
	usecase.ProductRepository
	FindByIDs(ctx context.Context, ids []uint) ([]entity.Product, error)
}

// CachingProductRepository decorates a ProductStore with Redis caching.
// Reads of the full list and of single products are cached under the current
// generation (<namespace>:gen). Every successful mutation bumps the generation,
// so a read that loaded before the mutation can only fill a generation that is
// no longer read.
type CachingProductRepository struct {
	inner     ProductStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ ProductStore = (*CachingProductRepository)(nil)

// NewCachingProductRepository decorates a ProductStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "products".
// A nil rdb makes every call pass through.
func NewCachingProductRepository(rdb *redis.Client, ttl time.Duration, inner ProductStore, namespace string) *CachingProductRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "products"
	}
	return &CachingProductRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// List returns all products, checking the cache first.
func (c *CachingProductRepository) List(ctx context.Context) ([]entity.Product, error) {
	if c.rdb == nil {
		return c.inner.List(ctx)
	}

	gen, ok := c.generation(ctx)
	if !ok {
		return c.inner.List(ctx)
	}

	key := c.listKey(gen)
	var out []entity.Product
	if c.load(ctx, key, &out) {
		return out, nil
	}

	out, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

// FindByID returns one product, checking the cache first. Misses are not cached.
func (c *CachingProductRepository) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	gen, ok := c.generation(ctx)
	if !ok {
		return c.inner.FindByID(ctx, id)
	}

	key := c.idKey(gen, id)
	var cached entity.Product
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, p)
	return p, nil
}

// FindByIDs always reads through to the underlying repository.
func (c *CachingProductRepository) FindByIDs(ctx context.Context, ids []uint) ([]entity.Product, error) {
	return c.inner.FindByIDs(ctx, ids)
}

// Create saves a product and invalidates the namespace.
func (c *CachingProductRepository) Create(ctx context.Context, p *entity.Product) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update replaces a product and invalidates the namespace.
func (c *CachingProductRepository) Update(ctx context.Context, p *entity.Product) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Delete removes a product and invalidates the namespace.
func (c *CachingProductRepository) Delete(ctx context.Context, id uint) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// UpsertEstimation writes the estimation and invalidates the namespace.
func (c *CachingProductRepository) UpsertEstimation(ctx context.Context, productID uint, params entity.EstimationParams) error {
	if err := c.inner.UpsertEstimation(ctx, productID, params); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// load reads and decodes a cached value. Corrupted entries are deleted.
func (c *CachingProductRepository) load(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// store caches a value (best effort).
func (c *CachingProductRepository) store(ctx context.Context, key string, v any) {
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
}

// generation returns the current cache generation. ok is false when Redis
// cannot tell, in which case the caller reads through without caching.
func (c *CachingProductRepository) generation(ctx context.Context) (int64, bool) {
	v, err := c.rdb.Get(ctx, c.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	gen, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return gen, true
}

// invalidate moves readers to a new generation and drops the previous one.
func (c *CachingProductRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	gen, err := c.rdb.Incr(ctx, c.genKey()).Result()
	if err != nil {
		// 世代を進められない場合は全エントリを削除する
		_ = c.deleteByPattern(ctx, c.namespace+":g*:*")
		return
	}
	// Best effort: entries left behind expire by TTL
	_ = c.deleteByPattern(ctx, fmt.Sprintf("%s:g%d:*", c.namespace, gen-1))
}

func (c *CachingProductRepository) genKey() string {
	return c.namespace + ":gen"
}

func (c *CachingProductRepository) listKey(gen int64) string {
	return fmt.Sprintf("%s:g%d:list", c.namespace, gen)
}

func (c *CachingProductRepository) idKey(gen int64, id uint) string {
	return fmt.Sprintf("%s:g%d:id:%d", c.namespace, gen, id)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingProductRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
