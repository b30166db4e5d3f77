package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/kino-bot/internal/admin"
	"github.com/Proton-105/kino-bot/internal/bot"
	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/internal/broadcast"
	"github.com/Proton-105/kino-bot/internal/channel"
	"github.com/Proton-105/kino-bot/internal/content"
	"github.com/Proton-105/kino-bot/internal/database"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/health"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/idempotency"
	"github.com/Proton-105/kino-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/kino-bot/internal/jobs/handlers"
	"github.com/Proton-105/kino-bot/internal/lifecycle"
	"github.com/Proton-105/kino-bot/internal/middleware"
	"github.com/Proton-105/kino-bot/internal/payment"
	"github.com/Proton-105/kino-bot/internal/ratelimit"
	"github.com/Proton-105/kino-bot/internal/repository"
	"github.com/Proton-105/kino-bot/internal/settings"
	"github.com/Proton-105/kino-bot/internal/state"
	"github.com/Proton-105/kino-bot/internal/subscription"
	"github.com/Proton-105/kino-bot/internal/user"
	"github.com/Proton-105/kino-bot/internal/wizard"
	"github.com/Proton-105/kino-bot/pkg/config"
	"github.com/Proton-105/kino-bot/pkg/graceful"
	"github.com/Proton-105/kino-bot/pkg/logger"
	"github.com/Proton-105/kino-bot/pkg/metrics"
	pkgredis "github.com/Proton-105/kino-bot/pkg/redis"
)

const (
	defaultShutdownTimeout = 15 * time.Second
	limiterCleanupInterval = 5 * time.Minute
	settingsCacheTTL       = time.Minute
	adminCacheTTL          = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("kino bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.SampleRate,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	log, level := logger.New(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Sentry:     sentryEnabled,
	})
	slog.SetDefault(log)

	config.Watch(v, log, func(next *config.Config) {
		level.Set(logger.ParseLevel(next.Logger.Level))
	})

	log.Info("starting kino bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	shutdown := lifecycle.NewShutdown(log)
	probes := lifecycle.NewProbes(log)
	checker := health.NewChecker(log)

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	shutdown.Register(lifecycle.PhaseStorage, "database", func(context.Context) error { return db.Close() })

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	checker.AddCheck("database", health.NewDBChecker(db))

	if cfg.Database.AutoMigrate {
		if err := database.NewMigrator(db, log).Up(); err != nil {
			return err
		}
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		client, err := pkgredis.New(ctx, pkgredis.Config{
			URL:             cfg.Redis.URL,
			Addr:            cfg.Redis.Addr,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			PoolSize:        cfg.Redis.PoolSize,
			ConnectAttempts: cfg.Redis.ConnectAttempts,
		}, log)
		if err != nil {
			return err
		}
		rdb = client.Client
		shutdown.Register(lifecycle.PhaseStorage, "redis", func(context.Context) error { return client.Close() })
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}

	locales, err := i18n.Load(cfg.I18n.Dir, cfg.I18n.DefaultLang)
	if err != nil {
		return err
	}
	errs := apperrors.NewHandler(log, sentryEnabled)
	errs.OnError(func(code string, severity apperrors.Severity) {
		metrics.RecordError(code, string(severity))
	})

	machine, cleaner := newSessions(cfg, rdb, log)

	userRepo := repository.NewUserRepository(db, log)
	users := user.NewService(userRepo, locales, log)
	contents := content.NewService(repository.NewContentRepository(db, log), log)
	fields := content.NewFieldService(repository.NewFieldRepository(db, log), log)
	channels := channel.NewService(repository.NewChannelRepository(db, log), log)
	payments := payment.NewService(repository.NewPaymentRepository(db, log), userRepo, log)
	settingsSvc := settings.NewService(repository.NewSettingsRepository(db, log), settingsCacheTTL, log)
	admins := admin.NewService(repository.NewAdminRepository(db, log), admin.NewCache(rdb, adminCacheTTL), log)

	if err := admins.Bootstrap(ctx, cfg.Bot.AdminIDs); err != nil {
		return err
	}

	tb, webhook, err := bot.NewTelebot(cfg.Bot, log)
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))
	log.Info("health checks registered", slog.Any("checks", checker.Names()))
	messenger := bot.NewMessenger(tb, tb.Me)

	gate := subscription.NewGate(
		channels,
		subscription.Guard(bot.NewMembershipChecker(tb), apperrors.NewCircuitBreaker(
			apperrors.OnStateChange(func(from, to apperrors.State) {
				log.Warn("membership circuit breaker moved", slog.String("from", from.String()), slog.String("to", to.String()))
				metrics.RecordBreakerTransition(to.String())
			}),
		), cfg.Subscription.CheckTimeout),
		newJoinCache(cfg, rdb, log),
		log,
	)
	gate.OnCheck(metrics.RecordGateCheck)

	runner := broadcast.NewRunner(broadcast.NewListSource(users), log, broadcast.Options{
		Pacer:         pacer(cfg.Broadcast),
		ProgressEvery: cfg.Broadcast.ProgressEvery,
		MaxAttempts:   cfg.Broadcast.MaxAttempts,
	})
	runner.OnDelivery(metrics.RecordBroadcastDelivery)

	wizards := wizard.NewDispatcher(machine, messenger, wizard.Deps{
		Content:     contents,
		Fields:      fields,
		Channels:    channels,
		Admins:      admins,
		Settings:    settingsSvc,
		Payments:    payments,
		Users:       users,
		Broadcaster: runner,
		Locales:     users,
	}, errs, log)

	opts := bot.Options{
		Handlers: handlers.Deps{
			Users:     users,
			Content:   contents,
			Fields:    fields,
			Channels:  channels,
			Payments:  payments,
			Admins:    admins,
			Settings:  settingsSvc,
			Gate:      gate,
			Wizards:   wizards,
			Messenger: messenger,
			Locales:   locales,
			Log:       log,
		},
		Dispatcher: bot.NewDispatcher(wizards, log),
		Machine:    machine,
		Users:      users,
		Admins:     admins,
		Errors:     errs,
	}

	if cfg.RateLimit.Enabled {
		memory := ratelimit.NewMemoryLimiter(log)
		var limiter ratelimit.Limiter = memory
		if cfg.RateLimit.Backend == "redis" && rdb != nil {
			limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb, log), memory, log)
		}
		go ratelimit.NewCleaner(memory, log, limiterCleanupInterval).Run(ctx)
		var whitelist []int64
		if cfg.RateLimit.AdminBypass {
			whitelist = cfg.Bot.AdminIDs
		}
		opts.RateLimit = middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit, whitelist), log)
	}

	var updates idempotency.Store = idempotency.NewMemoryStore()
	if rdb != nil {
		updates = idempotency.NewRedisStore(rdb, log)
	}
	opts.Idempotency = idempotency.NewManager(updates, log)

	b := bot.New(*cfg, tb, webhook, opts, log)

	if cfg.Jobs.Enabled && rdb != nil {
		if err := startJobs(ctx, cfg, rdb, jobDeps{
			users:     users,
			messenger: messenger,
			locales:   locales,
			cleaner:   cleaner,
			gate:      gate,
		}, shutdown, log); err != nil {
			return err
		}
	} else {
		go cleaner.Run(ctx)
	}

	go metrics.NewStateCollector(machine).Run(ctx)

	var webhookHandler http.Handler
	if webhook != nil {
		webhookHandler = webhook
	}
	srv := graceful.NewServer(log, &http.Server{
		Addr: cfg.Server.Addr,
		Handler: health.NewRouter(health.RouterOptions{
			Probes:      probes,
			Checker:     checker,
			Webhook:     webhookHandler,
			WebhookPath: cfg.Server.WebhookPath,
			AccessLog:   middleware.AccessLog(log, "/healthz", "/readyz", "/metrics"),
			Log:         log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}, shutdownTimeout(cfg.Server))

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.ListenAndServe(ctx) }()

	go b.Start()
	probes.MarkReady()
	log.Info("kino bot is running")

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-serverDone:
		serverDone = nil
		log.Error("http server stopped early", slog.Any("error", serveErr))
		stop()
	}
	probes.MarkNotReady()
	log.Info("kino bot shutting down")

	// Updates stop before the stores they write to are closed.
	b.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
	defer cancel()

	if serverDone != nil {
		if err := <-serverDone; err != nil {
			log.Error("http server stopped with error", slog.Any("error", err))
		}
	}
	if err := shutdown.Execute(shutdownCtx); err != nil {
		return err
	}
	return serveErr
}

func newSessions(cfg *config.Config, rdb *goredis.Client, log *slog.Logger) (*state.Machine, *state.Cleaner) {
	var (
		storage state.Storage = state.NewMemoryStorage()
		locker  state.Locker  = state.NewMemoryLocker()
	)
	if cfg.Session.Backend == "redis" && rdb != nil {
		storage = state.NewRedisStorage(rdb, log, cfg.Session.IdleTTL)
		locker = state.NewRedisLocker(rdb, cfg.Session.LockTTL)
	}

	machine := state.NewMachine(storage, log,
		state.WithIdleTTL(cfg.Session.IdleTTL),
		state.WithLocker(locker),
	)
	return machine, state.NewCleaner(machine, log, cfg.Session.CleanupInterval)
}

func newJoinCache(cfg *config.Config, rdb *goredis.Client, log *slog.Logger) subscription.RequestCache {
	if cfg.Subscription.CacheBackend == "redis" && rdb != nil {
		return subscription.NewRedisCache(rdb, log, cfg.Subscription.RequestTTL, cfg.Subscription.DedupeWindow)
	}
	return subscription.NewMemoryCache(cfg.Subscription.RequestTTL, cfg.Subscription.DedupeWindow)
}

func pacer(cfg config.BroadcastConfig) broadcast.PacerFactory {
	if cfg.Pacing == "token_bucket" {
		return broadcast.TokenBucket(cfg.Rate, cfg.Burst)
	}
	return broadcast.Fixed(cfg.Delay)
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}
	return cfg.ShutdownTimeout
}

type jobDeps struct {
	users     *user.Service
	messenger wizard.Messenger
	locales   *i18n.Manager
	cleaner   *state.Cleaner
	gate      *subscription.Gate
}

// startJobs runs the asynq worker and scheduler on the shared Redis server.
func startJobs(ctx context.Context, cfg *config.Config, rdb *goredis.Client, deps jobDeps, shutdown *lifecycle.Shutdown, log *slog.Logger) error {
	conn := rdb.Options()
	redisOpt := asynq.RedisClientOpt{
		Addr:      conn.Addr,
		Username:  conn.Username,
		Password:  conn.Password,
		DB:        conn.DB,
		TLSConfig: conn.TLSConfig,
	}

	worker := jobs.NewWorker(redisOpt, cfg.Jobs.Concurrency, log)
	worker.Handle(jobs.TaskTypePremiumExpiry, jobhandlers.NewPremiumExpiryHandler(deps.users, deps.messenger, deps.locales, log))
	worker.Handle(jobs.TaskTypeSessionCleanup, jobhandlers.NewSessionCleanupHandler(deps.cleaner, log))
	worker.Handle(jobs.TaskTypeJoinCachePrune, jobhandlers.NewJoinCachePruneHandler(deps.gate, log))

	scheduler, err := jobs.NewScheduler(redisOpt, cfg.Jobs, log)
	if err != nil {
		return err
	}

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
		}
	}()
	if err := scheduler.Start(); err != nil {
		worker.Shutdown()
		return err
	}

	// Subscriptions that ended and sessions left idle while the bot was down.
	queue := jobs.NewQueue(redisOpt, log)
	if err := queue.ExpirePremiums(ctx, true); err != nil {
		log.Warn("enqueue startup premium expiry", slog.Any("error", err))
	}
	if err := queue.CleanupSessions(ctx); err != nil {
		log.Warn("enqueue startup session cleanup", slog.Any("error", err))
	}

	shutdown.Register(lifecycle.PhaseWorkers, "jobs", func(context.Context) error {
		scheduler.Shutdown()
		worker.Shutdown()
		return queue.Close()
	})
	return nil
}
