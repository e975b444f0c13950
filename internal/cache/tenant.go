// Package cache holds Redis-backed read-through caches for hot lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/observ"
	"github.com/lalith-99/notevault/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTenantTTL is used when NewTenantCache gets a non-positive ttl.
const DefaultTenantTTL = 5 * time.Minute

// TenantCache decorates a TenantRepository with a Redis read-through cache.
//
// Why cache tenants at all?
//   - Every organization read and every "me/with-org" call loads the
//     tenant row, and tenant rows almost never change.
//
// Why is Redis failure not an error?
//   - The cache is an optimization. If Redis is down, reads fall through
//     to the wrapped repository and the failure is logged and counted.
//
// Only positive results are cached. Delete removes the key, so a tenant
// rolled back during bootstrap can't be served from cache afterwards.
type TenantCache struct {
	next   repository.TenantRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.TenantRepository = (*TenantCache)(nil)

func NewTenantCache(next repository.TenantRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *TenantCache {
	if ttl <= 0 {
		ttl = DefaultTenantTTL
	}
	return &TenantCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func tenantKey(id uuid.UUID) string {
	return "notevault:tenant:" + id.String()
}

func (c *TenantCache) Create(ctx context.Context, name string, description *string) (*models.Tenant, error) {
	return c.next.Create(ctx, name, description)
}

func (c *TenantCache) GetByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	key := tenantKey(tenantID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t models.Tenant
		if jsonErr := json.Unmarshal(raw, &t); jsonErr == nil {
			observ.TenantCacheTotal.WithLabelValues("hit").Inc()
			return &t, nil
		}
		c.logger.Warn("dropping undecodable tenant cache entry", zap.String("key", key))
		c.rdb.Del(ctx, key)
		observ.TenantCacheTotal.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		observ.TenantCacheTotal.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("tenant cache read failed", zap.String("key", key), zap.Error(err))
		observ.TenantCacheTotal.WithLabelValues("error").Inc()
	}

	t, err := c.next.GetByID(ctx, tenantID)
	if err != nil || t == nil {
		return t, err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode tenant: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("tenant cache write failed", zap.String("key", key), zap.Error(err))
	}
	return t, nil
}

func (c *TenantCache) Delete(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	deleted, err := c.next.Delete(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if err := c.rdb.Del(ctx, tenantKey(tenantID)).Err(); err != nil {
		c.logger.Warn("tenant cache invalidation failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
	return deleted, nil
}
