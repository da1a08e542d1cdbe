package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
)

const prefix = "test:application:"

// countingRepo records how often the wrapped repository is hit.
type countingRepo struct {
	*Memory
	finds int
}

func (c *countingRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	c.finds++
	return c.Memory.FindByID(ctx, id)
}

func TestCached_ReadThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := &countingRepo{Memory: NewMemory()}
	require.NoError(t, backing.Memory.Upsert(context.Background(), sampleApplication("a-1")))

	repo := NewCached(backing, rdb, time.Minute, prefix, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := repo.FindByID(ctx, "a-1")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, "a-1")
	require.NoError(t, err)

	assert.Equal(t, 1, backing.finds)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(prefix+"a-1"))
	assert.Equal(t, time.Minute, mr.TTL(prefix+"a-1"))
}

func TestCached_WriteThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := NewMemory()
	repo := NewCached(backing, rdb, time.Minute, prefix, logger.NewTestLogger(t))
	ctx := context.Background()

	app := sampleApplication("a-1")
	app.Finalized = true
	require.NoError(t, repo.Upsert(ctx, app))

	raw, err := mr.Get(prefix + "a-1")
	require.NoError(t, err)
	var cached models.Application
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.True(t, cached.Finalized)

	stored, err := backing.FindByID(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, stored.Finalized)
}

func TestCached_NotFoundIsNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	repo := NewCached(NewMemory(), redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, prefix, logger.NewNoOpLogger())

	_, err = repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(prefix+"ghost"))
}

func TestCached_RedisFailureFallsBack(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	backing := NewMemory()
	app := sampleApplication("a-1")
	require.NoError(t, backing.Upsert(context.Background(), app))

	repo := NewCached(backing, rdb, time.Minute, prefix, logger.NewNoOpLogger())

	mock.ExpectGet(prefix + "a-1").SetErr(errors.New("redis down"))
	data, _ := json.Marshal(app)
	mock.ExpectSet(prefix+"a-1", data, time.Minute).SetErr(errors.New("redis down"))
	mock.ExpectDel(prefix + "a-1").SetErr(errors.New("redis down"))

	got, err := repo.FindByID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCached_CorruptEntryIgnored(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	backing := NewMemory()
	require.NoError(t, backing.Upsert(context.Background(), sampleApplication("a-1")))
	require.NoError(t, mr.Set(prefix+"a-1", "{not json"))

	repo := NewCached(backing, redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, prefix, logger.NewNoOpLogger())

	got, err := repo.FindByID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, 25000, got.LoanInfo.Amount)
}

func TestCached_LoadAllPassesThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	backing := NewMemory()
	require.NoError(t, backing.Upsert(context.Background(), sampleApplication("a-1")))

	all, err := NewCached(backing, rdb, time.Minute, prefix, logger.NewNoOpLogger()).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
