package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLocker_RunsFn(t *testing.T) {
	called := false
	err := NopLocker{}.WithScheduleLock(context.Background(), 2, 1, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestNopLocker_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := NopLocker{}.WithScheduleLock(context.Background(), 2, 1, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestScheduleLockKey(t *testing.T) {
	assert.Equal(t, "lock:schedule:doctor:2:clinic:1", scheduleLockKey(2, 1))
	assert.NotEqual(t, scheduleLockKey(1, 2), scheduleLockKey(2, 1))
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisScheduleLocker_AcquiresAndReleases(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisScheduleLocker(rdb, 5*time.Second)
	key := scheduleLockKey(2, 1)

	called := false
	err := locker.WithScheduleLock(context.Background(), 2, 1, func(ctx context.Context) error {
		called = true
		assert.True(t, mr.Exists(key), "lock key held while fn runs")
		assert.Greater(t, mr.TTL(key), time.Duration(0))

		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, mr.Exists(key), "lock key removed after fn returns")
}

func TestRedisScheduleLocker_ReleasesOnError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisScheduleLocker(rdb, 5*time.Second)

	boom := errors.New("boom")
	err := locker.WithScheduleLock(context.Background(), 2, 1, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(scheduleLockKey(2, 1)))
}

func TestRedisScheduleLocker_ContendedLock(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := NewRedisScheduleLocker(rdb, 5*time.Second)
	ctx := context.Background()

	err := locker.WithScheduleLock(ctx, 2, 1, func(ctx context.Context) error {
		innerCalled := false
		err := locker.WithScheduleLock(ctx, 2, 1, func(context.Context) error {
			innerCalled = true
			return nil
		})
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.False(t, innerCalled)

		// another clinic for the same doctor is a separate schedule
		return locker.WithScheduleLock(ctx, 2, 7, func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	err = locker.WithScheduleLock(ctx, 2, 1, func(context.Context) error { return nil })
	assert.NoError(t, err, "lock can be taken again once released")
}

func TestRedisScheduleLocker_ConcurrentCallersSerialized(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := NewRedisScheduleLocker(rdb, 5*time.Second)

	const callers = 8
	start := make(chan struct{})
	release := make(chan struct{})
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		go func() {
			<-start
			results <- locker.WithScheduleLock(context.Background(), 2, 1, func(context.Context) error {
				<-release
				return nil
			})
		}()
	}
	close(start)

	var busy int
	for i := 0; i < callers-1; i++ {
		err := <-results
		require.ErrorIs(t, err, ErrLockNotAcquired)
		busy++
	}
	close(release)
	assert.NoError(t, <-results)
	assert.Equal(t, callers-1, busy)
}

func TestRedisScheduleLocker_KeepsKeyOwnedByAnotherToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisScheduleLocker(rdb, 5*time.Second)
	key := scheduleLockKey(2, 1)

	err := locker.WithScheduleLock(context.Background(), 2, 1, func(ctx context.Context) error {
		// our lease expired and someone else took the key
		return mr.Set(key, "other-owner")
	})
	require.NoError(t, err)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other-owner", got)
}

func TestRedisScheduleLocker_RedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisScheduleLocker(rdb, 5*time.Second)
	mr.Close()

	called := false
	err := locker.WithScheduleLock(context.Background(), 2, 1, func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
	assert.Contains(t, err.Error(), "acquire schedule lock")
	assert.False(t, called)
}
