// Package jobs - фоновые задачи по расписанию: очистка завершенных игр
// из памяти и поддержание открытых турниров по шаблонам.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
)

const replenishTimeout = 10 * time.Second

type Sweeper interface {
	Sweep(now time.Time) int
}

type TemplateKeeper interface {
	EnsureOpen(ctx context.Context, templates []config.TemplateConfig) int
}

type Deps struct {
	Rooms       Sweeper
	Tournaments Sweeper
	Templates   TemplateKeeper
}

type Scheduler struct {
	s    gocron.Scheduler
	deps Deps
	cfg  *config.Config
	log  *slog.Logger
}

func New(cfg *config.Config, deps Deps) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	j := &Scheduler{s: s, deps: deps, cfg: cfg, log: logger.With("component", "jobs")}

	_, err = s.NewJob(
		gocron.DurationJob(cfg.RetentionSweepInterval),
		gocron.NewTask(j.sweep),
		gocron.WithName("retention-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("add sweep job: %w", err)
	}

	if deps.Templates != nil && len(cfg.Tournament.Templates) > 0 {
		_, err = s.NewJob(
			gocron.DurationJob(cfg.TemplateInterval),
			gocron.NewTask(j.replenish),
			gocron.WithName("tournament-templates"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, fmt.Errorf("add templates job: %w", err)
		}
	}
	return j, nil
}

func (j *Scheduler) Start() {
	j.s.Start()
	j.log.Info("scheduler started", "jobs", len(j.s.Jobs()))
}

func (j *Scheduler) Shutdown() error {
	return j.s.Shutdown()
}

func (j *Scheduler) sweep() {
	now := time.Now()
	sessions, tournaments := 0, 0
	if j.deps.Rooms != nil {
		sessions = j.deps.Rooms.Sweep(now)
	}
	if j.deps.Tournaments != nil {
		tournaments = j.deps.Tournaments.Sweep(now)
	}
	if sessions > 0 || tournaments > 0 {
		j.log.Info("retention sweep", "sessions", sessions, "tournaments", tournaments)
	}
}

func (j *Scheduler) replenish() {
	ctx, cancel := context.WithTimeout(context.Background(), replenishTimeout)
	defer cancel()
	if n := j.deps.Templates.EnsureOpen(ctx, j.cfg.Tournament.Templates); n > 0 {
		j.log.Info("tournaments opened from templates", "count", n)
	}
}
