package wizard

import (
	"context"

	"github.com/Proton-105/kino-bot/internal/broadcast"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
)

// The services below report missing records with apperrors not-found errors.

type ContentService interface {
	IsCodeAvailable(ctx context.Context, code int) (bool, error)
	NearestAvailableCodes(ctx context.Context, code, limit int) ([]int, error)
	MovieByCode(ctx context.Context, code int) (*domain.Movie, error)
	SerialByCode(ctx context.Context, code int) (*domain.Serial, error)
	CreateMovie(ctx context.Context, movie domain.NewMovie) (*domain.Movie, error)
	CreateSerial(ctx context.Context, serial domain.NewSerial) (*domain.Serial, error)
	AddEpisodes(ctx context.Context, kind domain.ContentKind, contentID int64, episodes []domain.NewEpisode) error
	AttachVideo(ctx context.Context, movieID int64, videoFileID string, copies []domain.ChannelMessage) error
	SetPosterMessage(ctx context.Context, kind domain.ContentKind, contentID int64, messageID int) error
	Delete(ctx context.Context, kind domain.ContentKind, contentID int64) error
}

type FieldService interface {
	ListFields(ctx context.Context) ([]domain.Field, error)
	FieldByID(ctx context.Context, id int64) (*domain.Field, error)
	CreateField(ctx context.Context, field domain.Field) (*domain.Field, error)
}

type ChannelService interface {
	ActiveDatabaseChannels(ctx context.Context) ([]domain.DatabaseChannel, error)
	CreateDatabaseChannel(ctx context.Context, ch domain.DatabaseChannel) (*domain.DatabaseChannel, error)
	CreateMandatoryChannel(ctx context.Context, ch domain.MandatoryChannel) (*domain.MandatoryChannel, error)
	MandatoryByLink(ctx context.Context, link string) (*domain.MandatoryChannel, error)
}

type AdminService interface {
	AdminByTelegramID(ctx context.Context, telegramID int64) (*domain.Admin, error)
	AddAdmin(ctx context.Context, admin domain.Admin) (*domain.Admin, error)
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
}

type SettingsService interface {
	Settings(ctx context.Context) (*domain.Settings, error)
	UpdatePrices(ctx context.Context, prices domain.PremiumPrices) error
	UpdateCard(ctx context.Context, card domain.CardInfo) error
	UpdateContactMessage(ctx context.Context, text string) error
}

type PaymentService interface {
	Submit(ctx context.Context, userTelegramID, amount int64, durationDays int, receiptFileID string) (*domain.Payment, error)
	Approve(ctx context.Context, paymentID, adminTelegramID int64, durationDays int) (*domain.Payment, error)
	Reject(ctx context.Context, paymentID, adminTelegramID int64, reason string) (*domain.RejectionOutcome, error)
}

type UserService interface {
	// Lookup resolves a numeric Telegram id or an @username.
	Lookup(ctx context.Context, query string) (*domain.User, error)
	Block(ctx context.Context, userID int64, reason string) error
	Unblock(ctx context.Context, userID int64) error
	UnbanPremium(ctx context.Context, userID int64) error
}

// LocaleResolver picks the translator matching a user's saved language.
type LocaleResolver interface {
	TranslatorFor(ctx context.Context, telegramID int64) i18n.Translator
}

// Broadcaster delivers one message to an audience.
type Broadcaster interface {
	Run(ctx context.Context, audience state.Audience, send broadcast.SendFunc, progress broadcast.ProgressFunc) (broadcast.Report, error)
}

// Deps bundles the collaborators of the wizard flows.
type Deps struct {
	Content     ContentService
	Fields      FieldService
	Channels    ChannelService
	Admins      AdminService
	Settings    SettingsService
	Payments    PaymentService
	Users       UserService
	Broadcaster Broadcaster
	Locales     LocaleResolver
}
