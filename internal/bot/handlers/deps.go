package handlers

import (
	"context"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/content"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
	"github.com/Proton-105/kino-bot/internal/subscription"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

type Users interface {
	SetLanguage(ctx context.Context, telegramID int64, lang string) error
	Page(ctx context.Context, page, size int) ([]domain.User, int, error)
	ListPremiumBanned(ctx context.Context) ([]domain.User, error)
	Statistics(ctx context.Context) (domain.UserStatistics, error)
}

type Content interface {
	Find(ctx context.Context, kind domain.ContentKind, code int) (*content.Entry, error)
	Episodes(ctx context.Context, kind domain.ContentKind, contentID int64) ([]domain.Episode, error)
	Episode(ctx context.Context, kind domain.ContentKind, contentID int64, number int) (*domain.Episode, error)
	RecordView(ctx context.Context, userID int64, entry *content.Entry)
	Counts(ctx context.Context) (movies, serials int, err error)
}

type Fields interface {
	ListFields(ctx context.Context) ([]domain.Field, error)
	DeleteField(ctx context.Context, id int64) error
}

type Channels interface {
	ListAll(ctx context.Context) ([]domain.MandatoryChannel, error)
	ListWithHistory(ctx context.Context) ([]domain.MandatoryChannel, error)
	Deactivate(ctx context.Context, id int64) error
	Move(ctx context.Context, id int64, delta int) error
	ActiveDatabaseChannels(ctx context.Context) ([]domain.DatabaseChannel, error)
	DeleteDatabaseChannel(ctx context.Context, id int64) error
}

type Payments interface {
	Payment(ctx context.Context, paymentID int64) (*domain.Payment, error)
	Pending(ctx context.Context, limit int) ([]domain.Payment, error)
	ByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.Payment, error)
	Statistics(ctx context.Context) (domain.PaymentStatistics, error)
}

type Admins interface {
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
	RemoveAdmin(ctx context.Context, telegramID int64) error
}

type Settings interface {
	Settings(ctx context.Context) (*domain.Settings, error)
}

// Gate checks mandatory channel subscriptions.
type Gate interface {
	Check(ctx context.Context, userID int64) (subscription.Result, error)
	HandleJoinRequest(ctx context.Context, userID int64, chatID string) error
}

// Wizards starts multi-step flows.
type Wizards interface {
	Begin(ctx context.Context, ownerID int64, admin *domain.Admin, t i18n.Translator, w state.Wizard) error
}

// Deps bundles the collaborators of the update handlers.
type Deps struct {
	Users     Users
	Content   Content
	Fields    Fields
	Channels  Channels
	Payments  Payments
	Admins    Admins
	Settings  Settings
	Gate      Gate
	Wizards   Wizards
	Messenger wizard.Messenger
	Locales   *i18n.Manager
	Log       *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}
