package baseline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-discovery/internal/common/logger"
)

func TestRedisSource_MissLoadsAndCaches(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &fakeSource{value: 0.42, found: true}
	src := NewRedisSource(inner, db, 5*time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet(DefaultRedisKey).RedisNil()
	mock.ExpectSet(DefaultRedisKey, "0.42", 5*time.Minute).SetVal("OK")

	v, found, err := src.AcceptanceBaseline(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.42, v)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSource_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &fakeSource{value: 0.9, found: true}
	src := NewRedisSource(inner, db, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet(DefaultRedisKey).SetVal("0.37")

	v, found, err := src.AcceptanceBaseline(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.37, v)
	assert.Zero(t, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSource_CachesMissingRow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &fakeSource{found: false}
	src := NewRedisSource(inner, db, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet(DefaultRedisKey).RedisNil()
	mock.ExpectSet(DefaultRedisKey, missingMarker, time.Minute).SetVal("OK")

	_, found, err := src.AcceptanceBaseline(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectGet(DefaultRedisKey).SetVal(missingMarker)
	_, found, err = src.AcceptanceBaseline(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, inner.calls)
}

func TestRedisSource_RedisDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	inner := &fakeSource{value: 0.31, found: true}
	src := NewRedisSource(inner, db, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet(DefaultRedisKey).SetErr(fmt.Errorf("connection refused"))
	mock.ExpectSet(DefaultRedisKey, "0.31", time.Minute).SetErr(fmt.Errorf("connection refused"))

	v, found, err := src.AcceptanceBaseline(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.31, v)
}

func TestRedisSource_InnerErrorPropagates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	src := NewRedisSource(&fakeSource{err: fmt.Errorf("pq: canceling statement")}, db, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet(DefaultRedisKey).RedisNil()

	_, _, err := src.AcceptanceBaseline(context.Background())
	assert.Error(t, err)
}

func TestRedisSource_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &fakeSource{value: 0.28, found: true}
	src := NewRedisSource(inner, client, 5*time.Minute, logger.NewTestLogger(t))
	cache := NewCache(src, time.Minute, 0.3, logger.NewTestLogger(t))

	v, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.28, v)

	stored, err := mr.Get(DefaultRedisKey)
	require.NoError(t, err)
	assert.Equal(t, "0.28", stored)
	assert.Equal(t, 5*time.Minute, mr.TTL(DefaultRedisKey))

	// A second replica with a cold in-process cache reads the shared value.
	other := NewCache(NewRedisSource(&fakeSource{err: fmt.Errorf("unused")}, client, 5*time.Minute, logger.NewTestLogger(t)), time.Minute, 0.3, logger.NewTestLogger(t))
	v, err = other.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.28, v)
	assert.Equal(t, 1, inner.calls)
}
