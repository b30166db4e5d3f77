package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypePremiumExpiry  = "premium:expire"
	TaskTypeSessionCleanup = "session:cleanup"
	TaskTypeJoinCachePrune = "subscription:prune"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues weights the queues processed by the worker.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

type PremiumExpiryPayload struct {
	Notify bool `json:"notify"`
}

type SessionCleanupPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewPremiumExpiryTask revokes ended premium subscriptions. With notify the
// affected users get a message.
func NewPremiumExpiryTask(notify bool) (*asynq.Task, error) {
	payload, err := json.Marshal(PremiumExpiryPayload{Notify: notify})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypePremiumExpiry, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Unique(time.Minute),
	), nil
}

func NewSessionCleanupTask() (*asynq.Task, error) {
	payload, err := json.Marshal(SessionCleanupPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeSessionCleanup, payload, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}

func NewJoinCachePruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeJoinCachePrune, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}
