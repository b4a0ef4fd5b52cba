package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) Sweep(time.Time) int {
	s.calls.Add(1)
	return 1
}

type countingKeeper struct {
	calls     atomic.Int32
	templates atomic.Int32
}

func (k *countingKeeper) EnsureOpen(_ context.Context, templates []config.TemplateConfig) int {
	k.calls.Add(1)
	k.templates.Store(int32(len(templates)))
	return 0
}

func TestScheduler_RunsJobs(t *testing.T) {
	cfg := &config.Config{
		RetentionSweepInterval: 20 * time.Millisecond,
		TemplateInterval:       time.Hour,
		Tournament: config.TournamentConfig{
			Templates: []config.TemplateConfig{{GameType: "chess", Capacity: 4}},
		},
	}
	rooms, tournaments, keeper := &countingSweeper{}, &countingSweeper{}, &countingKeeper{}

	s, err := New(cfg, Deps{Rooms: rooms, Tournaments: tournaments, Templates: keeper})
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })

	assert.Eventually(t, func() bool {
		return rooms.calls.Load() >= 2 && tournaments.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	// шаблоны проверяются сразу при старте
	assert.Eventually(t, func() bool { return keeper.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), keeper.templates.Load())
}

func TestScheduler_NoTemplatesNoJob(t *testing.T) {
	cfg := &config.Config{RetentionSweepInterval: time.Hour, TemplateInterval: time.Hour}
	s, err := New(cfg, Deps{Templates: &countingKeeper{}})
	require.NoError(t, err)
	s.Start()
	assert.Len(t, s.s.Jobs(), 1)
	require.NoError(t, s.Shutdown())
}
