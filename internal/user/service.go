// Package user implements user registration, lookup and moderation.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/repository"
)

// Service provides business operations over users.
type Service struct {
	repo    repository.UserRepository
	locales *i18n.Manager
	log     *slog.Logger
	now     func() time.Time
}

// NewService constructs a new Service instance.
func NewService(repo repository.UserRepository, locales *i18n.Manager, log *slog.Logger) *Service {
	return &Service{repo: repo, locales: locales, log: log, now: time.Now}
}

// GetOrCreate fetches a user by telegram ID or creates a new profile when
// missing. Known users get their profile and activity time refreshed.
func (s *Service) GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error) {
	if telegramUser == nil {
		return nil, errors.New("telegram user is nil")
	}

	now := s.now().UTC()
	user, err := s.repo.FindByTelegramID(ctx, telegramUser.ID)
	if err == nil {
		user.FirstName = telegramUser.FirstName
		user.LastName = telegramUser.LastName
		user.Username = telegramUser.Username
		user.HasTelegramPremium = telegramUser.IsPremium
		user.LastActiveAt = now
		if err := s.repo.UpdateProfile(ctx, user); err != nil {
			s.logError("get_or_create.refresh", telegramUser.ID, err)
		}
		return user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		s.logError("get_or_create.find", telegramUser.ID, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	lang := i18n.DefaultLang
	if s.locales != nil {
		lang = s.locales.Translator(telegramUser.LanguageCode).Lang()
	}

	newUser := &domain.User{
		TelegramID:         telegramUser.ID,
		FirstName:          telegramUser.FirstName,
		LastName:           telegramUser.LastName,
		Username:           telegramUser.Username,
		LanguageCode:       lang,
		HasTelegramPremium: telegramUser.IsPremium,
		LastActiveAt:       now,
		CreatedAt:          now,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logError("get_or_create.create", telegramUser.ID, err)
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("user registered", slog.Int64("telegram_id", newUser.TelegramID))
	return newUser, nil
}

// ByTelegramID returns the registered user or a not-found error.
func (s *Service) ByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := s.repo.FindByTelegramID(ctx, telegramID)
	return s.found(user, err, "by_telegram_id", telegramID)
}

// Lookup resolves a numeric Telegram id or an @username.
func (s *Service) Lookup(ctx context.Context, query string) (*domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("❌ Foydalanuvchi ID si yoki @username kiriting.")
	}

	if strings.HasPrefix(query, "@") {
		user, err := s.repo.FindByUsername(ctx, query)
		return s.found(user, err, "lookup.username", 0)
	}

	id, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("❌ Noto'g'ri format! Telegram ID yoki @username kiriting.")
	}

	user, err := s.repo.FindByTelegramID(ctx, id)
	return s.found(user, err, "lookup.telegram_id", id)
}

func (s *Service) Block(ctx context.Context, userID int64, reason string) error {
	return s.write("block", userID, s.repo.SetBlocked(ctx, userID, true, reason))
}

func (s *Service) Unblock(ctx context.Context, userID int64) error {
	return s.write("unblock", userID, s.repo.SetBlocked(ctx, userID, false, ""))
}

func (s *Service) UnbanPremium(ctx context.Context, userID int64) error {
	return s.write("unban_premium", userID, s.repo.UnbanPremium(ctx, userID))
}

// SetLanguage stores the preferred language. Unsupported languages are rejected.
func (s *Service) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	if s.locales != nil && !s.locales.Supports(lang) {
		return apperrors.NewValidationError("❌ Bu til qo'llab-quvvatlanmaydi.")
	}
	return s.write("set_language", telegramID, s.repo.UpdateLanguage(ctx, telegramID, strings.ToLower(lang)))
}

// TranslatorFor returns the translator for the user's saved language, falling
// back to the default language when the user is unknown.
func (s *Service) TranslatorFor(ctx context.Context, telegramID int64) i18n.Translator {
	lang := i18n.DefaultLang
	if user, err := s.repo.FindByTelegramID(ctx, telegramID); err == nil {
		lang = user.LanguageCode
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logError("translator_for", telegramID, err)
	}
	return s.locales.Translator(lang)
}

// ListReachable returns every user that has not been blocked.
func (s *Service) ListReachable(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListReachable(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return users, nil
}

func (s *Service) ListPremiumBanned(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListPremiumBanned(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return users, nil
}

// ExpirePremiums revokes every premium subscription that has run out and
// returns the affected users.
func (s *Service) ExpirePremiums(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ExpirePremiums(ctx, s.now().UTC())
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return users, nil
}

// Page returns one page of users, newest first, with the total count.
func (s *Service) Page(ctx context.Context, page, size int) ([]domain.User, int, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}

	users, total, err := s.repo.List(ctx, size, page*size)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError(err)
	}
	return users, total, nil
}

func (s *Service) Statistics(ctx context.Context) (domain.UserStatistics, error) {
	stats, err := s.repo.Statistics(ctx, s.now().UTC())
	if err != nil {
		return stats, apperrors.NewDatabaseError(err)
	}
	return stats, nil
}

func (s *Service) found(user *domain.User, err error, operation string, telegramID int64) (*domain.User, error) {
	if err == nil {
		return user, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user", "❌ Foydalanuvchi topilmadi!")
	}

	s.logError(operation, telegramID, err)
	return nil, apperrors.NewDatabaseError(err)
}

func (s *Service) write(operation string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError("user", "❌ Foydalanuvchi topilmadi!")
	}

	s.logError(operation, id, err)
	return fmt.Errorf("%s: %w", operation, apperrors.NewDatabaseError(err))
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
