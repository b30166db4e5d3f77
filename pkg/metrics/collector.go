package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/kino-bot/internal/state"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of handled updates labeled by action and status",
		},
		[]string{"action", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	wizardTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Total number of wizard state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of admin and user wizard sessions",
		},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of sessions per wizard state",
		},
		[]string{"state"},
	)
	gateChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_checks_total",
			Help: "Total number of mandatory subscription checks by result",
		},
		[]string{"result"},
	)
	broadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Total number of broadcast deliveries by outcome",
		},
		[]string{"outcome"},
	)
	premiumExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "premium_expired_total",
			Help: "Total number of premium subscriptions revoked by the expiry sweep",
		},
	)
	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_updates_total",
			Help: "Total number of updates rejected by the per-user rate limit",
		},
		[]string{"scope"},
	)
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of background task runs by type and status",
		},
		[]string{"task", "status"},
	)
	breakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_breaker_transitions_total",
			Help: "Total number of membership circuit breaker state changes",
		},
		[]string{"to"},
	)
	sessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_expired_total",
			Help: "Total number of idle wizard sessions cleared by the cleanup sweep",
		},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(action, status).Inc()
	updateDurationSeconds.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordStateTransition tracks wizard transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	wizardTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// RecordGateCheck counts a subscription check outcome.
func RecordGateCheck(passed bool) {
	result := "blocked"
	if passed {
		result = "passed"
	}
	gateChecksTotal.WithLabelValues(result).Inc()
}

// RecordBroadcastDelivery counts one broadcast recipient.
func RecordBroadcastDelivery(sent bool) {
	result := "failed"
	if sent {
		result = "sent"
	}
	broadcastDeliveriesTotal.WithLabelValues(result).Inc()
}

func RecordPremiumExpired(count int) {
	premiumExpiredTotal.Add(float64(count))
}

// RecordRateLimited counts an update rejected within scope.
func RecordRateLimited(scope string) {
	rateLimitedTotal.WithLabelValues(scope).Inc()
}

// RecordJobRun counts one background task run.
func RecordJobRun(task string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	jobRunsTotal.WithLabelValues(task, status).Inc()
}

func RecordBreakerTransition(to string) {
	breakerTransitionsTotal.WithLabelValues(to).Inc()
}

func RecordSessionsExpired(count int) {
	sessionsExpiredTotal.Add(float64(count))
}

// SetActiveSessions updates the gauge for open sessions.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// SetSessionsByState updates the gauge for the given state.
func SetSessionsByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	sessionsByState.WithLabelValues(state).Set(float64(count))
}

// StateCollector periodically gathers session counts and emits gauge metrics.
type StateCollector struct {
	machine  *state.Machine
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the session store.
func NewStateCollector(machine *state.Machine) *StateCollector {
	return &StateCollector{machine: machine, interval: 10 * time.Second}
}

// Run polls the session store until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.machine == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	sessions, err := c.machine.All(ctx)
	if err != nil {
		return err
	}

	SetActiveSessions(len(sessions))

	stateCounts := make(map[string]int, len(sessions))
	for _, s := range sessions {
		label := "unknown"
		if s != nil && s.State() != "" {
			label = string(s.State())
		}
		stateCounts[label]++
	}

	sessionsByState.Reset()

	for _, tracked := range state.States() {
		label := string(tracked)
		SetSessionsByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetSessionsByState(label, count)
	}

	return nil
}
