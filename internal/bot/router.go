package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
)

// Router dispatches commands, menu labels, callbacks and wizard input.
// Routes and middlewares are registered before the first update; the
// tables are read-only afterwards.
type Router struct {
	commands       map[string]handlers.Handler
	labels         map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	dispatcher     *Dispatcher
	defaultHandler handlers.Handler
	joinHandler    handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger

	chainOnce sync.Once
	chain     func(handlers.Handler) handlers.Handler
}

// NewRouter builds a Router with empty tables.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:   make(map[string]handlers.Handler),
		labels:     make(map[string]handlers.Handler),
		callbacks:  make(map[string]handlers.CallbackHandler),
		dispatcher: dispatcher,
		log:        log,
	}
}

func (r *Router) RegisterCommand(cmd string, h handlers.Handler) { r.commands[cmd] = h }

// RegisterLabel routes a reply keyboard button by its exact text.
func (r *Router) RegisterLabel(label string, h handlers.Handler) { r.labels[label] = h }

// RegisterCallback routes inline buttons by the unique part of their data.
func (r *Router) RegisterCallback(unique string, h handlers.CallbackHandler) {
	r.callbacks[unique] = h
}

// Use appends mw; the first registered middleware runs outermost.
func (r *Router) Use(mw handlers.Middleware) { r.middlewares = append(r.middlewares, mw) }

// SetDefault handles text no command, wizard or label claimed: code lookups.
func (r *Router) SetDefault(h handlers.Handler) { r.defaultHandler = h }

func (r *Router) SetJoinRequest(h handlers.Handler) { r.joinHandler = h }

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	switch {
	case c.ChatJoinRequest() != nil:
		if r.joinHandler == nil {
			return nil
		}
		return r.executeHandler(r.joinHandler, c)
	case c.Callback() != nil:
		return r.executeHandler(r.handleCallback, c)
	default:
		return r.executeHandler(r.handleMessage, c)
	}
}

func (r *Router) handleCallback(c telebot.Context) error {
	handled, err := r.dispatcher.DispatchCallback(c)
	if handled {
		if respondErr := c.Respond(); respondErr != nil {
			r.log.Debug("failed to answer callback", slog.Any("error", respondErr))
		}
		return err
	}
	if err != nil {
		return err
	}

	unique, _, decodeErr := keyboard.DecodeCallback(c.Callback().Data)
	handler := r.callbacks[unique]
	if decodeErr != nil || handler == nil {
		r.log.Info("no callback handler found", slog.String("data", c.Callback().Data))
		return c.Respond()
	}

	return handler(c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	text := strings.TrimSpace(c.Text())

	if cmd := commandName(text); cmd != "" && cmd != CommandCancel {
		if handler := r.commands[cmd]; handler != nil {
			return handler(c)
		}
	}

	handled, err := r.dispatcher.Dispatch(c)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	if handler := r.labels[text]; handler != nil {
		return handler(c)
	}

	if r.defaultHandler != nil {
		return r.defaultHandler(c)
	}

	return nil
}

// commandName returns "/cmd" for "/cmd@bot payload" or "" for plain text.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	r.chainOnce.Do(func() {
		mws := append([]handlers.Middleware(nil), r.middlewares...)
		r.chain = func(h handlers.Handler) handlers.Handler {
			for i := len(mws) - 1; i >= 0 && h != nil; i-- {
				h = mws[i](h)
			}
			return h
		}
	})

	if wrapped := r.chain(h); wrapped != nil {
		return wrapped(c)
	}
	return nil
}
