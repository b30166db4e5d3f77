package logger

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

var sensitiveKeys = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"authorization",
	"dsn",
	"card_number",
}

var (
	botTokenPattern   = regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`)
	cardNumberPattern = regexp.MustCompile(`\b(\d{4})[ -]?\d{4}[ -]?\d{4}[ -]?(\d{4})\b`)
)

// MaskingHandler wraps a slog.Handler and masks sensitive attributes before delegating.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler creates a handler that masks sensitive fields before passing records downstream.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

// Enabled reports whether the handler handles records at the given level.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// WithAttrs returns a new handler with additional attributes.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		masked = append(masked, maskAttr(attr))
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked)}
}

// WithGroup returns a new handler with an appended group name.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

// Handle applies masking to sensitive attributes and delegates to the wrapped handler.
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, MaskString(record.Message), record.PC)

	tagged := false
	record.Attrs(func(attr slog.Attr) bool {
		tagged = tagged || attr.Key == "correlation_id"
		masked.AddAttrs(maskAttr(attr))
		return true
	})

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" && !tagged {
		masked.AddAttrs(slog.String("correlation_id", correlationID))
	}

	return h.next.Handle(ctx, masked)
}

// MaskString redacts bot tokens and card numbers inside free text.
func MaskString(value string) string {
	value = botTokenPattern.ReplaceAllString(value, "***")
	return cardNumberPattern.ReplaceAllString(value, "$1 **** **** $2")
}

func maskAttr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) {
		attr.Value = slog.StringValue("***")
		return attr
	}

	attr.Value = attr.Value.Resolve()
	switch attr.Value.Kind() {
	case slog.KindAny:
		// Transport errors quote the request URL, which embeds the bot token.
		if err, ok := attr.Value.Any().(error); ok && err != nil {
			if text := MaskString(err.Error()); text != err.Error() {
				attr.Value = slog.AnyValue(errors.New(text))
			}
		}
	case slog.KindString:
		attr.Value = slog.StringValue(MaskString(attr.Value.String()))
	case slog.KindGroup:
		group := attr.Value.Group()
		masked := make([]slog.Attr, 0, len(group))
		for _, nested := range group {
			masked = append(masked, maskAttr(nested))
		}
		attr.Value = slog.GroupValue(masked...)
	}

	return attr
}

func isSensitiveKey(key string) bool {
	for _, sensitive := range sensitiveKeys {
		if strings.EqualFold(key, sensitive) {
			return true
		}
	}
	return false
}
