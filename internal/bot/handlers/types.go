package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// HandlerFunc adapts ordinary functions to the Handler interface.
type HandlerFunc func(c telebot.Context) error

// Handle executes the underlying function.
func (h HandlerFunc) Handle(c telebot.Context) error {
	return h(c)
}

// Keys of the values the middleware chain stores on telebot.Context.
const (
	keyContext    = "ctx"
	keyUser       = "user"
	keyAdmin      = "admin"
	keyTranslator = "translator"
)

// SetContext attaches the request context of the update.
func SetContext(c telebot.Context, ctx context.Context) {
	c.Set(keyContext, ctx)
}

// Ctx returns the request context of the update.
func Ctx(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(keyContext).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// SetUser attaches the stored user of the sender.
func SetUser(c telebot.Context, u *domain.User) {
	c.Set(keyUser, u)
}

// UserFrom returns the stored user of the sender or nil.
func UserFrom(c telebot.Context) *domain.User {
	if c == nil {
		return nil
	}
	u, _ := c.Get(keyUser).(*domain.User)
	return u
}

// SetAdmin attaches the admin record of the sender.
func SetAdmin(c telebot.Context, a *domain.Admin) {
	c.Set(keyAdmin, a)
}

// AdminFrom returns the admin record of the sender or nil for regular users.
func AdminFrom(c telebot.Context) *domain.Admin {
	if c == nil {
		return nil
	}
	a, _ := c.Get(keyAdmin).(*domain.Admin)
	return a
}

// SetTranslator attaches the translator of the sender's language.
func SetTranslator(c telebot.Context, t i18n.Translator) {
	c.Set(keyTranslator, t)
}

// TranslatorFrom returns the translator of the sender, or nil before the
// auth middleware ran.
func TranslatorFrom(c telebot.Context) i18n.Translator {
	if c == nil {
		return nil
	}
	t, _ := c.Get(keyTranslator).(i18n.Translator)
	return t
}

// T translates key with the sender's translator.
func T(c telebot.Context, key string, data map[string]any) string {
	t := TranslatorFrom(c)
	if t == nil {
		return key
	}
	if data == nil {
		return t.T(key)
	}
	return t.TData(key, data)
}

// SenderID returns the Telegram id of the update author.
func SenderID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}
