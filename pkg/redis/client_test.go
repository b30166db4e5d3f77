package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestOptions(t *testing.T) {
	opts, err := Options(Config{URL: "redis://:secret@cache:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = Options(Config{Addr: "localhost:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	_, err = Options(Config{})
	assert.Error(t, err)

	_, err = Options(Config{URL: "http://nope"})
	assert.Error(t, err)
}

func TestNewRecordsCommands(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Config{Addr: mr.Addr()}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	before := counterValue(t, commandsTotal.WithLabelValues("get", "ok"))
	_, err = client.Get(context.Background(), "missing").Result()
	require.Error(t, err)
	assert.Equal(t, before+1, counterValue(t, commandsTotal.WithLabelValues("get", "ok")))
}

func TestNewGivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := New(ctx, Config{Addr: addr, ConnectAttempts: 2}, discardLogger())
	assert.Error(t, err)
}
