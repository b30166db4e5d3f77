// Package admin manages admin panel accounts and their permissions.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/repository"
)

// Service resolves and manages admins. Lookups go through the cache first.
type Service struct {
	repo  repository.AdminRepository
	cache *Cache
	log   *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(repo repository.AdminRepository, cache *Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Bootstrap promotes the configured Telegram ids to super admins.
func (s *Service) Bootstrap(ctx context.Context, telegramIDs []int64) error {
	for _, id := range telegramIDs {
		if err := s.repo.EnsureSuperAdmin(ctx, id); err != nil {
			return apperrors.NewDatabaseError(err)
		}
		s.invalidate(ctx, id)
	}

	if len(telegramIDs) > 0 {
		s.log.Info("super admins ensured", slog.Int("count", len(telegramIDs)))
	}
	return nil
}

// AdminByTelegramID returns the admin or a not-found error.
func (s *Service) AdminByTelegramID(ctx context.Context, telegramID int64) (*domain.Admin, error) {
	if admin, ok, err := s.cache.Get(ctx, telegramID); err != nil {
		s.log.Warn("admin cache read failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	} else if ok {
		if admin == nil {
			return nil, notFound()
		}
		return admin, nil
	}

	admin, err := s.repo.FindByTelegramID(ctx, telegramID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.store(ctx, telegramID, nil)
		return nil, notFound()
	case err != nil:
		return nil, apperrors.NewDatabaseError(err)
	}

	s.store(ctx, telegramID, admin)
	return admin, nil
}

// Resolve returns the admin for telegramID or nil for regular users.
func (s *Service) Resolve(ctx context.Context, telegramID int64) (*domain.Admin, error) {
	admin, err := s.AdminByTelegramID(ctx, telegramID)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	return admin, err
}

// AddAdmin creates a new admin. Duplicates are reported as validation errors.
func (s *Service) AddAdmin(ctx context.Context, admin domain.Admin) (*domain.Admin, error) {
	if !admin.Role.Valid() {
		return nil, apperrors.NewValidationError("❌ Noto'g'ri rol tanlandi.")
	}

	if err := s.repo.Create(ctx, &admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError("❌ Bu foydalanuvchi allaqachon admin!")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	s.invalidate(ctx, admin.TelegramID)
	s.log.Info("admin added", slog.Int64("telegram_id", admin.TelegramID), slog.String("role", string(admin.Role)))
	return &admin, nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return admins, nil
}

// RemoveAdmin deletes an admin. Super admins cannot be removed from the panel.
func (s *Service) RemoveAdmin(ctx context.Context, telegramID int64) error {
	admin, err := s.AdminByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if admin.Role == domain.RoleSuperAdmin {
		return apperrors.NewValidationError("❌ Super adminni o'chirib bo'lmaydi!")
	}

	if err := s.repo.Delete(ctx, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound()
		}
		return apperrors.NewDatabaseError(err)
	}

	s.invalidate(ctx, telegramID)
	return nil
}

// Authorize returns an authorization error unless admin holds perm.
func Authorize(admin *domain.Admin, perm domain.Permission) error {
	if !admin.Can(perm) {
		return apperrors.NewAuthorizationError(string(perm))
	}
	return nil
}

func (s *Service) store(ctx context.Context, telegramID int64, admin *domain.Admin) {
	if err := s.cache.Set(ctx, telegramID, admin); err != nil {
		s.log.Warn("admin cache write failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context, telegramID int64) {
	if err := s.cache.Invalidate(ctx, telegramID); err != nil {
		s.log.Warn("admin cache invalidate failed", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
	}
}

func notFound() error {
	return apperrors.NewNotFoundError("admin", "❌ Admin topilmadi!")
}
