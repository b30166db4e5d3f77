package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// SettingsRepository persists the singleton settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	UpdatePrices(ctx context.Context, prices domain.PremiumPrices) error
	UpdateCard(ctx context.Context, card domain.CardInfo) error
	// UpdateText sets one of the free text columns.
	UpdateText(ctx context.Context, field SettingsText, value string) error
}

// SettingsText names an editable text column of the settings row.
type SettingsText string

const (
	SettingAboutBot              SettingsText = "about_bot"
	SettingSupportUsername       SettingsText = "support_username"
	SettingAdminNotificationChat SettingsText = "admin_notification_chat"
	SettingContactMessage        SettingsText = "contact_message"
	SettingWelcomeMessage        SettingsText = "welcome_message"
)

func (f SettingsText) valid() bool {
	switch f {
	case SettingAboutBot, SettingSupportUsername, SettingAdminNotificationChat, SettingContactMessage, SettingWelcomeMessage:
		return true
	default:
		return false
	}
}

type settingsRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSettingsRepository(db *sql.DB, log *slog.Logger) SettingsRepository {
	return &settingsRepository{db: db, log: log}
}

// Get loads the settings row, creating it with defaults on first use.
func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	const query = `
		INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING about_bot, support_username, admin_notification_chat, contact_message, welcome_message,
			price_monthly, price_quarterly, price_half_year, price_yearly, card_number, card_holder
	`

	var s domain.Settings
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&s.AboutBot,
		&s.SupportUsername,
		&s.AdminNotificationChat,
		&s.ContactMessage,
		&s.WelcomeMessage,
		&s.Prices.Monthly,
		&s.Prices.Quarterly,
		&s.Prices.HalfYear,
		&s.Prices.Yearly,
		&s.Card.Number,
		&s.Card.Holder,
	); err != nil {
		r.log.Error("failed to load settings", slog.Any("error", err))
		return nil, fmt.Errorf("select settings: %w", err)
	}
	return &s, nil
}

func (r *settingsRepository) UpdatePrices(ctx context.Context, prices domain.PremiumPrices) error {
	const query = `
		UPDATE settings
		SET price_monthly = $1, price_quarterly = $2, price_half_year = $3, price_yearly = $4, updated_at = NOW()
		WHERE id = 1
	`
	return execAffecting(ctx, r.db, r.log, "update prices", query,
		prices.Monthly, prices.Quarterly, prices.HalfYear, prices.Yearly)
}

func (r *settingsRepository) UpdateCard(ctx context.Context, card domain.CardInfo) error {
	return execAffecting(ctx, r.db, r.log, "update card",
		`UPDATE settings SET card_number = $1, card_holder = $2, updated_at = NOW() WHERE id = 1`, card.Number, card.Holder)
}

func (r *settingsRepository) UpdateText(ctx context.Context, field SettingsText, value string) error {
	if !field.valid() {
		return fmt.Errorf("unknown settings field %q", field)
	}
	return execAffecting(ctx, r.db, r.log, "update "+string(field),
		`UPDATE settings SET `+string(field)+` = $1, updated_at = NOW() WHERE id = 1`, value)
}
