// Package settings exposes the bot-wide settings edited from the admin panel.
package settings

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/repository"
)

// Service reads settings through a short-lived in-process copy.
type Service struct {
	repo repository.SettingsRepository
	log  *slog.Logger
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	cached   *domain.Settings
	cachedAt time.Time
}

func NewService(repo repository.SettingsRepository, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, ttl: ttl, now: time.Now}
}

// Settings returns a copy of the current settings.
func (s *Service) Settings(ctx context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		copied := *s.cached
		return &copied, nil
	}

	loaded, err := s.repo.Get(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	s.cached = loaded
	s.cachedAt = s.now()
	copied := *loaded
	return &copied, nil
}

func (s *Service) UpdatePrices(ctx context.Context, prices domain.PremiumPrices) error {
	for _, plan := range prices.Plans() {
		if plan.Price <= 0 {
			return apperrors.NewValidationError("❌ Narx musbat son bo'lishi kerak!")
		}
	}
	return s.update(ctx, "prices", s.repo.UpdatePrices(ctx, prices))
}

func (s *Service) UpdateCard(ctx context.Context, card domain.CardInfo) error {
	digits := strings.ReplaceAll(card.Number, " ", "")
	if len(digits) != 16 || strings.Trim(digits, "0123456789") != "" {
		return apperrors.NewValidationError("❌ Karta raqami 16 ta raqamdan iborat bo'lishi kerak!")
	}
	if strings.TrimSpace(card.Holder) == "" {
		return apperrors.NewValidationError("❌ Karta egasini kiriting!")
	}
	return s.update(ctx, "card", s.repo.UpdateCard(ctx, card))
}

func (s *Service) UpdateContactMessage(ctx context.Context, text string) error {
	return s.UpdateText(ctx, repository.SettingContactMessage, text)
}

// UpdateText stores one of the free text settings.
func (s *Service) UpdateText(ctx context.Context, field repository.SettingsText, value string) error {
	value = strings.TrimSpace(value)
	if value == "" && field != repository.SettingAdminNotificationChat {
		return apperrors.NewValidationError("❌ Matn bo'sh bo'lmasligi kerak!")
	}
	return s.update(ctx, string(field), s.repo.UpdateText(ctx, field, value))
}

func (s *Service) update(_ context.Context, name string, err error) error {
	if err != nil {
		s.log.Error("failed to update settings", slog.String("setting", name), slog.Any("error", err))
		return apperrors.NewDatabaseError(err)
	}

	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	s.log.Info("settings updated", slog.String("setting", name))
	return nil
}
