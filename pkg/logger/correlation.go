package logger

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of an HTTP request.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

type correlationIDKey struct{}

// WithCorrelationID stores id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the id stored by WithCorrelationID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// UpdateCorrelationID names a Telegram update. Updates without an id get a
// random one.
func UpdateCorrelationID(updateID int) string {
	if updateID == 0 {
		return uuid.NewString()
	}
	return "upd-" + strconv.Itoa(updateID)
}

// CorrelationMiddleware tags each request with the caller's X-Request-ID,
// or a fresh one, and echoes it in the response.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))
	})
}
