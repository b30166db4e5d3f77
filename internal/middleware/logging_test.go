package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/kino-bot/pkg/logger"
)

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := logger.CorrelationMiddleware(AccessLog(log, "/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/missing", nil)
	req.Header.Set(logger.RequestIDHeader, "req-1")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(logger.RequestIDHeader))
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"correlation_id":"req-1"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(logger.RequestIDHeader))
	assert.Empty(t, buf.String(), "probe requests are logged at debug")
}
