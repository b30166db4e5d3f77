package redis

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	goredis "github.com/redis/go-redis/v9"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Total number of Redis commands by name and status.",
		},
		[]string{"command", "status"},
	)
	commandSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Redis round trip latency; pipelines are observed as one call.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"command"},
	)
	dialErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_dial_errors_total",
			Help: "Total number of failed connection attempts to Redis.",
		},
	)
)

// metricsHook instruments every command the client sends. A missing key
// (redis.Nil) counts as success.
type metricsHook struct{}

func (metricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			dialErrorsTotal.Inc()
		}
		return conn, err
	}
}

func (metricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		name := commandName(cmd)
		timer := prometheus.NewTimer(commandSeconds.WithLabelValues(name))
		err := next(ctx, cmd)
		timer.ObserveDuration()
		count(name, err)
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		timer := prometheus.NewTimer(commandSeconds.WithLabelValues("pipeline"))
		err := next(ctx, cmds)
		timer.ObserveDuration()
		for _, cmd := range cmds {
			count(commandName(cmd), cmd.Err())
		}
		return err
	}
}

// commandName is the lower-cased verb; scripts report as evalsha.
func commandName(cmd goredis.Cmder) string {
	return strings.ToLower(cmd.Name())
}

func count(command string, err error) {
	status := "ok"
	if err != nil && !errors.Is(err, goredis.Nil) {
		status = "error"
	}
	commandsTotal.WithLabelValues(command, status).Inc()
}
