package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("schedule lock not acquired")
)

// Locker serializes the conflict check and insert for one doctor at one clinic.
type Locker interface {
	WithScheduleLock(ctx context.Context, doctorID, clinicID int64, fn func(ctx context.Context) error) error
}

// NopLocker runs fn without any coordination. Two concurrent bookings for the
// same doctor and clinic can then both pass the conflict check.
type NopLocker struct{}

func (NopLocker) WithScheduleLock(ctx context.Context, _, _ int64, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type redisScheduleLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisScheduleLocker creates a locker that uses one Redis key per doctor and clinic
func NewRedisScheduleLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisScheduleLocker{
		client: client,
		ttl:    ttl,
	}
}

func scheduleLockKey(doctorID, clinicID int64) string {
	return fmt.Sprintf("lock:schedule:doctor:%d:clinic:%d", doctorID, clinicID)
}

func (l *redisScheduleLocker) WithScheduleLock(ctx context.Context, doctorID, clinicID int64, fn func(ctx context.Context) error) error {
	key := scheduleLockKey(doctorID, clinicID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire schedule lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// delete only if we still own the key
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisScheduleLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release schedule lock: %w", err)
	}
	return nil
}
