package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/internal/domain"
	errors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
	"github.com/Proton-105/kino-bot/pkg/logger"
)

const (
	fallbackUserMessage = "⚠️ Xatolik yuz berdi. Keyinroq urinib ko'ring."
	defaultLockWait     = 10 * time.Second
)

// UserResolver loads or registers the sender of an update.
type UserResolver interface {
	GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error)
}

// AdminResolver returns the admin record of a sender or nil.
type AdminResolver interface {
	Resolve(ctx context.Context, telegramID int64) (*domain.Admin, error)
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := fallbackUserMessage
					if errHandler != nil {
						appErr := errors.NewDatabaseError(fmt.Errorf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(handlers.Ctx(c), appErr); msg != "" {
							userMsg = msg
						}
					}

					notify(c, log, userMsg)
					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *errors.Handler, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := fallbackUserMessage
			if errHandler != nil {
				if msg, _ := errHandler.Handle(handlers.Ctx(c), err); msg != "" {
					userMsg = msg
				}
			}

			notify(c, log, userMsg)
			return nil
		}
	}
}

// notify shows msg to the sender: as an alert for callbacks, as a message otherwise.
func notify(c telebot.Context, log *slog.Logger, msg string) {
	if c == nil || c.ChatJoinRequest() != nil {
		return
	}

	if c.Callback() != nil {
		if err := c.Respond(&telebot.CallbackResponse{Text: msg, ShowAlert: true}); err == nil {
			return
		}
	}

	if c.Recipient() == nil {
		return
	}
	if err := c.Send(msg); err != nil {
		log.Warn("failed to notify user about error", slog.Any("error", err))
	}
}

// LoggingMiddleware attaches a correlation id to the update context and logs
// basic telemetry about the update.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()

			correlationID := logger.UpdateCorrelationID(c.Update().ID)
			ctx := logger.WithCorrelationID(context.Background(), correlationID)
			handlers.SetContext(c, ctx)

			userID := handlers.SenderID(c)
			action := updateAction(c)

			log.DebugContext(ctx, "handling update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.String("correlation_id", correlationID),
			)
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.String("correlation_id", correlationID),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

func updateAction(c telebot.Context) string {
	switch {
	case c.Callback() != nil:
		return c.Callback().Data
	case c.ChatJoinRequest() != nil:
		return "join_request"
	case c.Message() != nil && c.Message().Photo != nil:
		return "photo"
	case c.Message() != nil && c.Message().Video != nil:
		return "video"
	default:
		return c.Text()
	}
}

// AuthMiddleware associates the update with a stored user, the admin record
// and a translator. Blocked users are stopped here.
func AuthMiddleware(users UserResolver, admins AdminResolver, locales *i18n.Manager, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			sender := c.Sender()
			if sender == nil || sender.IsBot || c.ChatJoinRequest() != nil {
				return next(c)
			}

			ctx := handlers.Ctx(c)

			var admin *domain.Admin
			if admins != nil {
				a, err := admins.Resolve(ctx, sender.ID)
				if err != nil {
					log.WarnContext(ctx, "failed to resolve admin", slog.Int64("user_id", sender.ID), slog.Any("error", err))
				}
				admin = a
			}
			handlers.SetAdmin(c, admin)

			var user *domain.User
			if users != nil {
				u, err := users.GetOrCreate(ctx, sender)
				if err != nil {
					return err
				}
				user = u
			}
			handlers.SetUser(c, user)

			if locales != nil {
				lang := sender.LanguageCode
				if user != nil && user.LanguageCode != "" {
					lang = user.LanguageCode
				}
				handlers.SetTranslator(c, locales.Translator(lang))
			}

			if user != nil && user.IsBlocked && admin == nil {
				log.InfoContext(ctx, "blocked user ignored", slog.Int64("user_id", sender.ID))
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: handlers.T(c, "start.blocked", nil), ShowAlert: true})
				}
				return c.Send(handlers.T(c, "start.blocked", nil))
			}

			return next(c)
		}
	}
}

// OwnerLockMiddleware serialises the updates of one sender so that wizard
// sessions are never mutated concurrently.
func OwnerLockMiddleware(machine *state.Machine, wait time.Duration, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}
	if wait <= 0 {
		wait = defaultLockWait
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if machine == nil || c.ChatJoinRequest() != nil || c.Sender() == nil {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(handlers.Ctx(c), wait)
			defer cancel()

			unlock, err := machine.Lock(ctx, c.Sender().ID)
			if err != nil {
				log.Warn("owner lock not acquired", slog.Int64("user_id", c.Sender().ID), slog.Any("error", err))
				return errors.NewStateError("session is busy")
			}
			defer unlock()

			return next(c)
		}
	}
}
