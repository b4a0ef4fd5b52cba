package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
)

// поднимает redis в контейнере, без docker тесты пропускаются
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	addr, err := ctr.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisStores_Integration(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	t.Run("session snapshot", func(t *testing.T) {
		store := NewSessionStore(rdb, time.Minute)
		missing, err := store.Load(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)

		snap := &domain.SessionSnapshot{
			ID:       "s1",
			GameType: game.TypeTicTacToe,
			Stake:    5,
			Status:   domain.SessionActive,
			Players:  []game.Participant{{ID: 1, Name: "alice"}, {ID: -1, Name: "bot", IsBot: true}},
			State:    json.RawMessage(`{"turn":1}`),
		}
		require.NoError(t, store.Save(ctx, snap))

		got, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, snap.Stake, got.Stake)
		assert.Len(t, got.Players, 2)
		assert.JSONEq(t, `{"turn":1}`, string(got.State))

		ttl, err := rdb.TTL(ctx, sessionKeyPrefix+"s1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		require.NoError(t, store.Delete(ctx, "s1"))
		got, err = store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("rate limiter", func(t *testing.T) {
		l := NewRateLimiter(rdb, 3, time.Minute)
		for i := 0; i < 3; i++ {
			ok, err := l.Allow(ctx, "user:1")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := l.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.False(t, ok)

		// у другого ключа свой счетчик
		ok, err = l.Allow(ctx, "user:2")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
