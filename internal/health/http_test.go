package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProbes struct {
	ready error
}

func (stubProbes) Liveness(context.Context) error    { return nil }
func (p stubProbes) Readiness(context.Context) error { return p.ready }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	router := NewRouter(RouterOptions{Probes: stubProbes{ready: errors.New("not ready")}, Log: discardLogger()})

	rec := serve(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name       string
		ready      error
		dbErr      error
		wantStatus int
	}{
		{name: "ready", wantStatus: http.StatusOK},
		{name: "starting", ready: errors.New("not ready"), wantStatus: http.StatusServiceUnavailable},
		{name: "database down", dbErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(discardLogger())
			checker.AddCheck("redis", NewRedisChecker(client))
			checker.AddCheck("database", CheckFunc(func(context.Context) error { return tt.dbErr }))

			router := NewRouter(RouterOptions{
				Probes:  stubProbes{ready: tt.ready},
				Checker: checker,
				Log:     discardLogger(),
			})

			rec := serve(t, router, http.MethodGet, "/readyz")
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.ready == nil {
				var body struct {
					Checks map[string]string `json:"checks"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "OK", body.Checks["redis"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, NewRouter(RouterOptions{Log: discardLogger()}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestWebhookMount(t *testing.T) {
	var hits int
	webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	router := NewRouter(RouterOptions{Webhook: webhook, WebhookPath: "/tg/hook", Log: discardLogger()})

	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodPost, "/tg/hook").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, router, http.MethodGet, "/tg/hook").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodPost, "/telegram/webhook").Code)
	assert.Equal(t, 1, hits)
}

func TestHealthy(t *testing.T) {
	assert.True(t, Healthy(nil))
	assert.True(t, Healthy(map[string]string{"db": "OK"}))
	assert.False(t, Healthy(map[string]string{"db": "OK", "redis": "dial tcp: refused"}))
}

func TestCheckerRunsChecksConcurrentlyWithBudget(t *testing.T) {
	checker := NewChecker(discardLogger())
	checker.budget = 50 * time.Millisecond
	checker.AddCheck("slow", CheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	checker.AddCheck("telegram", NewTelegramChecker(nil))
	checker.AddCheck("database", NewDBChecker(nil))

	start := time.Now()
	results := checker.Check(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, context.DeadlineExceeded.Error(), results["slow"])
	assert.Equal(t, errBotNotStarted.Error(), results["telegram"])
	assert.NotEqual(t, "OK", results["database"])
	assert.Equal(t, []string{"database", "slow", "telegram"}, checker.Names())
}
