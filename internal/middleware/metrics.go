package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(ActionName(c), status, time.Since(start))

		return err
	}
}

// ActionName returns a low-cardinality label for the update: the command,
// the callback unique or the update kind.
func ActionName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		data := strings.TrimPrefix(cb.Data, "\f")
		if i := strings.IndexAny(data, "|:"); i >= 0 {
			data = data[:i]
		}
		if data == "" {
			return "callback"
		}
		return "cb:" + data
	}

	if msg := c.Message(); msg != nil {
		switch {
		case strings.HasPrefix(msg.Text, "/"):
			cmd := strings.Fields(msg.Text)[0]
			if i := strings.Index(cmd, "@"); i > 0 {
				cmd = cmd[:i]
			}
			return cmd
		case msg.Photo != nil:
			return "photo"
		case msg.Video != nil:
			return "video"
		case msg.Text != "":
			return "text"
		}
	}

	if c.ChatJoinRequest() != nil {
		return "join_request"
	}

	return "unknown"
}
