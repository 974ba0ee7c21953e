package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pratik071103/case-link-share/core"
)

func TestRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	redisC, err := func() (c *tcRedis.RedisContainer, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("docker unavailable: %v", r)
			}
		}()
		return tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	}()
	if err != nil {
		t.Skipf("redis container: %v", err)
	}
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	r := NewRedis(core.RedisConfig{Addr: host + ":" + port.Port()}, "test:")
	t.Cleanup(func() { _ = r.Close() })
	require.NoError(t, r.Ping(ctx))

	var got payload
	ok, err := r.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := payload{Name: "focus", Count: 1}
	require.NoError(t, r.Set(ctx, "k", want, time.Minute))
	ok, err = r.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, r.Set(ctx, "short", want, 50*time.Millisecond))
	require.Eventually(t, func() bool {
		ok, err := r.Get(ctx, "short", &got)
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, r.Delete(ctx, "k"))
	ok, err = r.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
