package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/kino-bot/pkg/metrics"
)

const defaultConcurrency = 5

// Worker processes maintenance tasks from the weighted queues.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

// NewWorker builds a Worker. Tasks that exhaust their retries are logged
// with their type and payload size.
func NewWorker(redisOpt asynq.RedisConnOpt, concurrency int, log *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "jobs_worker"))

	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:      Queues,
		Concurrency: concurrency,
		Logger:      newAsynqLogger(log),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retried < maxRetry {
				return
			}
			log.ErrorContext(ctx, "task failed permanently",
				slog.String("task", task.Type()),
				slog.Int("payload_bytes", len(task.Payload())),
				slog.Any("error", err),
			)
		}),
	})

	w := &Worker{server: server, mux: asynq.NewServeMux(), log: log}
	w.mux.Use(w.observe)
	return w
}

// Handle routes taskType to handler.
func (w *Worker) Handle(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Run blocks until Shutdown.
func (w *Worker) Run() error {
	w.log.Info("jobs worker starting")
	return w.server.Run(w.mux)
}

// Shutdown waits for running tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.log.Info("jobs worker shutting down")
	w.server.Shutdown()
}

func (w *Worker) observe(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, task)
		metrics.RecordJobRun(task.Type(), err)
		w.log.DebugContext(ctx, "task processed",
			slog.String("task", task.Type()),
			slog.Duration("elapsed", time.Since(start)),
			slog.Bool("ok", err == nil),
		)
		return err
	})
}
