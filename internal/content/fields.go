package content

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/repository"
)

// FieldService manages content fields and their poster channels.
type FieldService struct {
	repo repository.FieldRepository
	log  *slog.Logger
}

func NewFieldService(repo repository.FieldRepository, log *slog.Logger) *FieldService {
	return &FieldService{repo: repo, log: log}
}

// ListFields returns active fields.
func (s *FieldService) ListFields(ctx context.Context) ([]domain.Field, error) {
	fields, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return fields, nil
}

func (s *FieldService) FieldByID(ctx context.Context, id int64) (*domain.Field, error) {
	field, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("field", "❌ Field topilmadi!")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return field, nil
}

// CreateField validates and stores a field. The channel id must be a
// negative chat id.
func (s *FieldService) CreateField(ctx context.Context, field domain.Field) (*domain.Field, error) {
	field.Name = strings.TrimSpace(field.Name)
	field.ChannelID = strings.TrimSpace(field.ChannelID)
	if field.Name == "" {
		return nil, apperrors.NewValidationError("❌ Field nomini kiriting!")
	}
	if !strings.HasPrefix(field.ChannelID, "-") {
		return nil, apperrors.NewValidationError("❌ Kanal ID '-' bilan boshlanishi kerak!")
	}

	if err := s.repo.Create(ctx, &field); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("field created", slog.Int64("field_id", field.ID), slog.String("name", field.Name))
	return &field, nil
}

// DeleteField hides the field. Existing content keeps its reference.
func (s *FieldService) DeleteField(ctx context.Context, id int64) error {
	err := s.repo.SetActive(ctx, id, false)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError("field", "❌ Field topilmadi!")
	}
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}
