package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	errors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/idempotency"
	"github.com/Proton-105/kino-bot/internal/middleware"
	"github.com/Proton-105/kino-bot/internal/state"
	"github.com/Proton-105/kino-bot/pkg/config"
)

// Options carries the collaborators of the update pipeline.
type Options struct {
	Handlers    handlers.Deps
	Dispatcher  *Dispatcher
	Machine     *state.Machine
	Users       UserResolver
	Admins      AdminResolver
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
	Errors      *errors.Handler
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot *telebot.Bot
	log     *slog.Logger
	cfg     config.Config
	router  *Router
	webhook *telebot.Webhook
}

// NewTelebot connects to the Bot API in the mode chosen by cfg. Webhook mode
// does not listen on its own; the returned webhook is mounted on the HTTP
// server instead.
func NewTelebot(cfg config.BotConfig, log *slog.Logger) (*telebot.Bot, *telebot.Webhook, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	var webhook *telebot.Webhook
	if cfg.Mode == "webhook" {
		webhook = &telebot.Webhook{
			Endpoint:       &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
			AllowedUpdates: allowedUpdates,
		}
		settings.Poller = webhook
	} else {
		timeout := cfg.PollTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		settings.Poller = &telebot.LongPoller{
			Timeout:        timeout,
			AllowedUpdates: allowedUpdates,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telebot: %w", err)
	}
	return tb, webhook, nil
}

var allowedUpdates = []string{"message", "callback_query", "chat_join_request"}

// New builds the update pipeline on top of tb.
func New(cfg config.Config, tb *telebot.Bot, webhook *telebot.Webhook, opts Options, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	if opts.Errors == nil {
		opts.Errors = errors.NewHandler(log, cfg.Sentry.DSN != "")
	}

	b := &Bot{
		telebot: tb,
		log:     log,
		cfg:     cfg,
		router:  NewRouter(opts.Dispatcher, log),
		webhook: webhook,
	}

	b.setupMiddlewares(opts)
	b.setupRoutes(opts.Handlers)
	b.registerTelebotHandlers()

	return b
}

// Start publishes the command menu and runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	if err := b.telebot.SetCommands(Commands); err != nil {
		b.log.Warn("failed to publish bot commands", slog.Any("error", err))
	}
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Webhook returns the webhook poller in webhook mode or nil.
func (b *Bot) Webhook() *telebot.Webhook {
	return b.webhook
}

// Router exposes the update router.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupMiddlewares(opts Options) {
	b.router.Use(RecoveryMiddleware(b.log, opts.Errors))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Idempotency(opts.Idempotency, b.log))
	b.router.Use(ErrorHandlingMiddleware(opts.Errors, b.log))
	b.router.Use(middleware.Metrics)
	b.router.Use(AuthMiddleware(opts.Users, opts.Admins, opts.Handlers.Locales, b.log))
	if opts.RateLimit != nil {
		b.router.Use(opts.RateLimit.Handle)
	}
	b.router.Use(OwnerLockMiddleware(opts.Machine, b.cfg.Session.LockWait, b.log))
}

func (b *Bot) setupRoutes(d handlers.Deps) {
	r := b.router

	r.RegisterCommand(CommandStart, handlers.NewStartHandler(d))
	r.RegisterCommand(CommandAdmin, handlers.NewAdminHandler(d))
	r.RegisterCommand(CommandProfile, handlers.NewProfileHandler(d))
	r.RegisterCommand(CommandLang, handlers.NewLanguageHandler(d))
	r.RegisterCommand(CommandHelp, handlers.NewAboutHandler(d))

	for _, label := range userLabels(d.Locales, "menu.search") {
		r.RegisterLabel(label, handlers.NewSearchPromptHandler(d))
	}
	for _, label := range userLabels(d.Locales, "menu.premium") {
		r.RegisterLabel(label, handlers.NewPremiumHandler(d))
	}
	for _, label := range userLabels(d.Locales, "menu.about") {
		r.RegisterLabel(label, handlers.NewAboutHandler(d))
	}
	for _, label := range userLabels(d.Locales, "menu.profile") {
		r.RegisterLabel(label, handlers.NewProfileHandler(d))
	}
	for _, label := range userLabels(d.Locales, "menu.contact") {
		r.RegisterLabel(label, handlers.NewContactHandler(d))
	}
	for _, label := range userLabels(d.Locales, "menu.language") {
		r.RegisterLabel(label, handlers.NewLanguageHandler(d))
	}
	r.RegisterLabel(keyboard.BtnBack, handlers.NewBackHandler(d))

	for _, btn := range handlers.AdminButtons(d) {
		r.RegisterLabel(btn.Label, handlers.RequirePermission(btn.Perm, btn.Handler))
	}

	r.RegisterCallback(keyboard.CbCheckSubscription, handlers.NewCheckSubscriptionHandler(d))
	r.RegisterCallback(keyboard.CbEpisode, handlers.NewEpisodeHandler(d))
	r.RegisterCallback(keyboard.CbBuyPremium, handlers.NewBuyPremiumHandler(d))
	r.RegisterCallback(keyboard.CbLanguage, handlers.NewSetLanguageHandler(d))

	for _, cb := range handlers.AdminCallbacks(d) {
		r.RegisterCallback(cb.Unique, handlers.CallbackHandler(handlers.RequirePermission(cb.Perm, handlers.Handler(cb.Handler))))
	}

	r.SetJoinRequest(handlers.NewJoinRequestHandler(d))
	r.SetDefault(handlers.NewCodeHandler(d))
}

// userLabels returns the translations of key in every loaded language so
// that menu buttons match whatever language the keyboard was sent in.
func userLabels(locales *i18n.Manager, key string) []string {
	if locales == nil {
		return nil
	}

	seen := make(map[string]struct{})
	labels := make([]string, 0, len(locales.Languages()))
	for _, lang := range locales.Languages() {
		label := locales.Translator(lang).T(key)
		if label == "" || label == key {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil {
		return
	}

	for _, endpoint := range []string{
		telebot.OnText,
		telebot.OnPhoto,
		telebot.OnVideo,
		telebot.OnCallback,
		telebot.OnChatJoinRequest,
	} {
		b.telebot.Handle(endpoint, b.router.Route)
	}
}
