package jobs

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/kino-bot/pkg/config"
)

// Periodic is one cron entry of the maintenance schedule.
type Periodic struct {
	Cron string
	Task *asynq.Task
}

// Schedule lists the periodic tasks enabled in cfg. An empty cron
// disables its task.
func Schedule(cfg config.JobsConfig) ([]Periodic, error) {
	premium, err := NewPremiumExpiryTask(true)
	if err != nil {
		return nil, err
	}
	sessions, err := NewSessionCleanupTask()
	if err != nil {
		return nil, err
	}

	all := []Periodic{
		{Cron: cfg.PremiumExpiryCron, Task: premium},
		{Cron: cfg.SessionCleanupCron, Task: sessions},
		{Cron: cfg.JoinCachePruneCron, Task: NewJoinCachePruneTask()},
	}

	enabled := all[:0]
	for _, p := range all {
		if p.Cron != "" {
			enabled = append(enabled, p)
		}
	}
	return enabled, nil
}

// Scheduler enqueues the periodic tasks. With several replicas each one
// enqueues; unique tasks collapse the duplicates.
type Scheduler struct {
	scheduler *asynq.Scheduler
	log       *slog.Logger
}

// NewScheduler registers every entry of Schedule(cfg).
func NewScheduler(redisOpt asynq.RedisConnOpt, cfg config.JobsConfig, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "jobs_scheduler"))

	entries, err := Schedule(cfg)
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: newAsynqLogger(log)})
	for _, entry := range entries {
		if _, err := s.Register(entry.Cron, entry.Task); err != nil {
			return nil, fmt.Errorf("schedule %s at %q: %w", entry.Task.Type(), entry.Cron, err)
		}
		log.Info("task scheduled", slog.String("task", entry.Task.Type()), slog.String("cron", entry.Cron))
	}

	return &Scheduler{scheduler: s, log: log}, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.log.Info("jobs scheduler shutting down")
	s.scheduler.Shutdown()
}
