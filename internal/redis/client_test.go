package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	assert.Equal(t, 10, rdb.Options().PoolSize)
	assert.NoError(t, Pinger(rdb)(context.Background()))

	mr.Close()
	assert.Error(t, Pinger(rdb)(context.Background()))
}

func TestNewRedisClient_Auth(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireUserAuth("scheduler", "s3cret")

	_, err := NewRedisClient(context.Background(), Options{Addr: mr.Addr(), Username: "scheduler", Password: "wrong"})
	require.Error(t, err)

	rdb, err := NewRedisClient(context.Background(), Options{Addr: mr.Addr(), Username: "scheduler", Password: "s3cret"})
	require.NoError(t, err)
	_ = rdb.Close()
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), Options{Addr: addr, PingTimeout: 500 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis "+addr)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.Config{
		RedisAddr:     "cache:6380",
		RedisUsername: "scheduler",
		RedisPassword: "s3cret",
	})
	assert.Equal(t, Options{Addr: "cache:6380", Username: "scheduler", Password: "s3cret"}, opts)

	d := opts.withDefaults()
	assert.Equal(t, 10, d.PoolSize)
	assert.Equal(t, 5*time.Second, d.PingTimeout)
}
