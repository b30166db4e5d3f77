package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/kino-bot/pkg/logger"
)

const (
	floodUserMessage = "⏳ Juda ko'p so'rov. Birozdan so'ng urinib ko'ring."
	codeUnknown      = "unknown"
	codeTelegram     = "telegram"
)

// Handler turns errors that escaped a bot handler into a log record, an
// optional Sentry event and a message for the user.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	onError       func(code string, severity Severity)
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, sentryEnabled: sentryEnabled, onError: func(string, Severity) {}}
}

// OnError registers a hook called once per handled error, e.g. for metrics.
func (h *Handler) OnError(fn func(code string, severity Severity)) {
	if fn != nil {
		h.onError = fn
	}
}

// Handle reports err and returns the text to show the user and whether the
// user may simply try again. An empty text means nothing should be sent.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := []slog.Attr{slog.String("error", err.Error())}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	switch {
	case errors.Is(err, context.Canceled):
		h.log.LogAttrs(ctx, slog.LevelDebug, "update cancelled", attrs...)
		return "", false

	case IsUnreachableRecipient(err):
		h.report(ctx, codeTelegram, SeverityLow, slog.LevelWarn, "recipient unreachable", attrs)
		return "", false
	}

	if wait, ok := TelegramRetryAfter(err); ok {
		attrs = append(attrs, slog.Duration("retry_after", wait))
		h.report(ctx, codeTelegram, SeverityLow, slog.LevelWarn, "telegram flood limit", attrs)
		return floodUserMessage, true
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		h.report(ctx, codeUnknown, SeverityHigh, slog.LevelError, "unknown error", attrs)
		h.capture(ctx, err, codeUnknown, SeverityHigh)
		return genericUserMessage, false
	}

	attrs = append(attrs,
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	)
	level := slog.LevelError
	if appErr.Severity == SeverityLow {
		level = slog.LevelWarn
	}
	h.report(ctx, appErr.Code, appErr.Severity, level, "application error", attrs)

	if appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh {
		h.capture(ctx, err, appErr.Code, appErr.Severity)
	}

	return UserMessage(err), appErr.Retryable
}

func (h *Handler) report(ctx context.Context, code string, severity Severity, level slog.Level, msg string, attrs []slog.Attr) {
	h.log.LogAttrs(ctx, level, msg, attrs...)
	h.onError(code, severity)
}

func (h *Handler) capture(ctx context.Context, err error, code string, severity Severity) {
	if !h.sentryEnabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", code)
		scope.SetTag("severity", string(severity))
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		sentry.CaptureException(err)
	})
}
