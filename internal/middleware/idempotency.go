package middleware

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/internal/idempotency"
)

// Idempotency ensures handlers execute at most once per Telegram update.
// When the store is unreachable the update is handled anyway.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := IdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			ran := false
			outcome, err := manager.Run(handlers.Ctx(c), key, func(context.Context) error {
				ran = true
				return next(c)
			})
			if err != nil {
				if !ran {
					log.Warn("idempotency store unavailable", slog.String("key", key), slog.Any("error", err))
					return next(c)
				}
				return err
			}

			if outcome != idempotency.OutcomeRan {
				log.Debug("skipping duplicate update", slog.String("key", key), slog.String("outcome", outcome.String()))
			}
			return nil
		}
	}
}

// IdempotencyKey identifies an update. Callbacks carry their own id and
// messages fall back to chat and message ids when the update id is absent.
func IdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return fmt.Sprintf("cb:%s", cb.ID)
	}

	if id := c.Update().ID; id != 0 {
		return fmt.Sprintf("upd:%d", id)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return "msg:" + idempotency.GenerateKey(chatID, msg.ID)
	}

	return ""
}
