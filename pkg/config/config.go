package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the kino bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Bot          BotConfig          `mapstructure:"bot" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Session      SessionConfig      `mapstructure:"session"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Broadcast    BroadcastConfig    `mapstructure:"broadcast"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
	Server       ServerConfig       `mapstructure:"server"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	I18n         I18nConfig         `mapstructure:"i18n"`
}

type BotConfig struct {
	Token       string        `mapstructure:"token" validate:"required"`
	Username    string        `mapstructure:"username"`
	Mode        string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	WebhookURL  string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	AdminIDs    []int64       `mapstructure:"admin_ids"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"required"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// URL returns the connection string in URL form, as the migrator expects.
func (c DatabaseConfig) URL() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, sslMode)
}

type RedisConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// URL, when set, takes precedence over Addr, Password and DB.
	URL             string `mapstructure:"url" validate:"omitempty,url"`
	Addr            string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db" validate:"gte=0"`
	PoolSize        int    `mapstructure:"pool_size" validate:"gte=0"`
	ConnectAttempts int    `mapstructure:"connect_attempts" validate:"gte=0"`
}

type SessionConfig struct {
	Backend         string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	LockWait        time.Duration `mapstructure:"lock_wait"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type SubscriptionConfig struct {
	CacheBackend string        `mapstructure:"cache_backend" validate:"omitempty,oneof=memory redis"`
	RequestTTL   time.Duration `mapstructure:"request_ttl"`
	DedupeWindow time.Duration `mapstructure:"dedupe_window"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

type BroadcastConfig struct {
	Pacing        string        `mapstructure:"pacing" validate:"omitempty,oneof=fixed token_bucket"`
	Delay         time.Duration `mapstructure:"delay"`
	Rate          float64       `mapstructure:"rate"`
	Burst         int           `mapstructure:"burst"`
	ProgressEvery int           `mapstructure:"progress_every"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Backend     string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	UserLimit   int           `mapstructure:"user_limit"`
	UserWindow  time.Duration `mapstructure:"user_window"`
	CodeLimit   int           `mapstructure:"code_limit"`
	CodeWindow  time.Duration `mapstructure:"code_window"`
	AdminBypass bool          `mapstructure:"admin_bypass"`
}

type JobsConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Concurrency        int    `mapstructure:"concurrency"`
	PremiumExpiryCron  string `mapstructure:"premium_expiry_cron"`
	SessionCleanupCron string `mapstructure:"session_cleanup_cron"`
	JoinCachePruneCron string `mapstructure:"join_cache_prune_cron"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	WebhookPath     string        `mapstructure:"webhook_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type I18nConfig struct {
	Dir         string `mapstructure:"dir"`
	DefaultLang string `mapstructure:"default_lang"`
}
