// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from YAML files and environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// env files are optional
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	cfg.AppEnv = env

	return cfg, v, nil
}

// Watch re-reads the config file on change and hands the validated result to
// onChange. Invalid edits are logged and ignored.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			log.Warn("config reload rejected", slog.String("file", event.Name), slog.Any("error", err))
			return
		}

		log.Info("config reloaded", slog.String("file", event.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.poll_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.connect_attempts", 5)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.lock_ttl", 30*time.Second)
	v.SetDefault("session.lock_wait", 10*time.Second)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)

	v.SetDefault("subscription.cache_backend", "memory")
	v.SetDefault("subscription.request_ttl", 10*time.Minute)
	v.SetDefault("subscription.dedupe_window", 5*time.Minute)
	v.SetDefault("subscription.check_timeout", 15*time.Second)

	v.SetDefault("broadcast.pacing", "fixed")
	v.SetDefault("broadcast.delay", 50*time.Millisecond)
	v.SetDefault("broadcast.rate", 25.0)
	v.SetDefault("broadcast.burst", 1)
	v.SetDefault("broadcast.progress_every", 50)
	v.SetDefault("broadcast.max_attempts", 1)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.user_limit", 30)
	v.SetDefault("ratelimit.user_window", time.Minute)
	v.SetDefault("ratelimit.code_limit", 10)
	v.SetDefault("ratelimit.code_window", time.Minute)
	v.SetDefault("ratelimit.admin_bypass", true)

	v.SetDefault("jobs.concurrency", 5)
	v.SetDefault("jobs.premium_expiry_cron", "*/10 * * * *")
	v.SetDefault("jobs.session_cleanup_cron", "*/5 * * * *")
	v.SetDefault("jobs.join_cache_prune_cron", "*/10 * * * *")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.webhook_path", "/telegram/webhook")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.max_size_mb", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 14)

	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("i18n.dir", "./locales")
	v.SetDefault("i18n.default_lang", "uz")
}
