package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
	"github.com/lalith-99/notevault/internal/repository"
	"github.com/lalith-99/notevault/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingTenants counts reads that reach the wrapped repository.
type countingTenants struct {
	repository.TenantRepository
	reads int
}

func (c *countingTenants) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	c.reads++
	return c.TenantRepository.GetByID(ctx, id)
}

func newTestCache(t *testing.T) (*TenantCache, *countingTenants, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backing := &countingTenants{TenantRepository: memory.New().Tenants()}
	return NewTenantCache(backing, rdb, time.Minute, zap.NewNop()), backing, mr
}

func TestTenantCache_ReadThrough(t *testing.T) {
	c, backing, mr := newTestCache(t)
	ctx := context.Background()
	desc := "robots"

	created, err := c.Create(ctx, "Acme", &desc)
	require.NoError(t, err)

	first, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.reads)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Acme", second.Name)
	require.NotNil(t, second.Description)
	assert.Equal(t, "robots", *second.Description)

	assert.True(t, mr.Exists(tenantKey(created.ID)))
	assert.Equal(t, time.Minute, mr.TTL(tenantKey(created.ID)))
}

func TestTenantCache_MissesAreNotCached(t *testing.T) {
	c, backing, mr := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	got, err := c.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(tenantKey(id)))

	_, _ = c.GetByID(ctx, id)
	assert.Equal(t, 2, backing.reads)
}

func TestTenantCache_DeleteInvalidates(t *testing.T) {
	c, _, mr := newTestCache(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "Acme", nil)
	require.NoError(t, err)
	_, err = c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(tenantKey(created.ID)))

	deleted, err := c.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists(tenantKey(created.ID)))

	got, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTenantCache_RedisDownFallsThrough(t *testing.T) {
	c, backing, mr := newTestCache(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "Acme", nil)
	require.NoError(t, err)

	mr.Close()

	got, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, backing.reads)
}

func TestTenantCache_CorruptEntryIsDropped(t *testing.T) {
	c, backing, mr := newTestCache(t)
	ctx := context.Background()

	created, err := c.Create(ctx, "Acme", nil)
	require.NoError(t, err)
	require.NoError(t, mr.Set(tenantKey(created.ID), "{not json"))

	got, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, backing.reads)
}
