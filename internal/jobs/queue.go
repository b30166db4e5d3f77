package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Queue enqueues maintenance tasks on demand, outside the cron schedule.
type Queue struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewQueue opens an asynq client on redisOpt.
func NewQueue(redisOpt asynq.RedisConnOpt, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}

	return &Queue{
		client: asynq.NewClient(redisOpt),
		log:    log.With(slog.String("component", "jobs_queue")),
	}
}

// ExpirePremiums asks a worker to revoke ended premium subscriptions now.
// A sweep already queued within the uniqueness window counts as success.
func (q *Queue) ExpirePremiums(ctx context.Context, notify bool) error {
	task, err := NewPremiumExpiryTask(notify)
	if err != nil {
		return err
	}

	return q.enqueue(ctx, task)
}

// CleanupSessions asks a worker to clear idle wizard sessions now.
func (q *Queue) CleanupSessions(ctx context.Context) error {
	task, err := NewSessionCleanupTask()
	if err != nil {
		return err
	}

	return q.enqueue(ctx, task)
}

func (q *Queue) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := q.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		q.log.DebugContext(ctx, "task already queued", slog.String("task", task.Type()))
		return nil
	}
	if err != nil {
		return err
	}

	q.log.InfoContext(ctx, "task enqueued",
		slog.String("task", task.Type()),
		slog.String("id", info.ID),
		slog.String("queue", info.Queue),
	)
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
