// Package channel manages mandatory subscription channels and the database
// channels that keep video copies.
package channel

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

// Service implements channel management and the subscription gate store.
type Service struct {
	repo repository.ChannelRepository
	log  *slog.Logger
}

func NewService(repo repository.ChannelRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListActive returns active mandatory channels in display order.
func (s *Service) ListActive(ctx context.Context) ([]domain.MandatoryChannel, error) {
	channels, err := s.repo.ListActiveMandatory(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return channels, nil
}

// ListAll returns every mandatory channel including deactivated ones.
func (s *Service) ListAll(ctx context.Context) ([]domain.MandatoryChannel, error) {
	channels, err := s.repo.ListMandatory(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return channels, nil
}

// ListWithHistory returns channels that have recorded members.
func (s *Service) ListWithHistory(ctx context.Context) ([]domain.MandatoryChannel, error) {
	channels, err := s.repo.ListMandatoryWithHistory(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return channels, nil
}

// FindActiveByChatID returns nil when no active channel has chatID.
func (s *Service) FindActiveByChatID(ctx context.Context, chatID string) (*domain.MandatoryChannel, error) {
	ch, err := s.repo.FindActiveMandatoryByChatID(ctx, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return ch, nil
}

func (s *Service) MandatoryByLink(ctx context.Context, link string) (*domain.MandatoryChannel, error) {
	ch, err := s.repo.FindMandatoryByLink(ctx, strings.TrimSpace(link))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("channel", "❌ Bu link bilan kanal topilmadi!")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return ch, nil
}

func (s *Service) MandatoryByID(ctx context.Context, id int64) (*domain.MandatoryChannel, error) {
	ch, err := s.repo.FindMandatory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("channel", "❌ Kanal topilmadi!")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return ch, nil
}

// CreateMandatoryChannel validates and stores a mandatory channel at the end
// of the display order.
func (s *Service) CreateMandatoryChannel(ctx context.Context, ch domain.MandatoryChannel) (*domain.MandatoryChannel, error) {
	ch.ChannelID = strings.TrimSpace(ch.ChannelID)
	ch.ChannelLink = strings.TrimSpace(ch.ChannelLink)

	switch {
	case !ch.Type.Valid():
		return nil, apperrors.NewValidationError("❌ Noto'g'ri kanal turi!")
	case ch.ChannelID == "" || ch.ChannelLink == "":
		return nil, apperrors.NewValidationError("❌ Kanal ID va linki bo'lishi shart!")
	case ch.MemberLimit != nil && *ch.MemberLimit <= 0:
		return nil, apperrors.NewValidationError("❌ Limit musbat son bo'lishi kerak!")
	}

	if err := s.repo.CreateMandatory(ctx, &ch); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("mandatory channel created",
		slog.Int64("id", ch.ID),
		slog.String("type", string(ch.Type)),
		slog.String("channel_id", ch.ChannelID),
	)
	return &ch, nil
}

// Deactivate hides the channel from the gate. Member history is kept.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.write(s.repo.SetMandatoryActive(ctx, id, false))
}

// Move shifts the channel one position up (delta -1) or down (delta 1)
// among all mandatory channels.
func (s *Service) Move(ctx context.Context, id int64, delta int) error {
	channels, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	ids := make([]int64, len(channels))
	pos := -1
	for i, ch := range channels {
		ids[i] = ch.ID
		if ch.ID == id {
			pos = i
		}
	}
	if pos < 0 {
		return apperrors.NewNotFoundError("channel", "❌ Kanal topilmadi!")
	}

	target := pos + delta
	if target < 0 || target >= len(ids) {
		return nil
	}
	ids[pos], ids[target] = ids[target], ids[pos]

	return s.write(s.repo.Reorder(ctx, ids))
}

func (s *Service) RecordMember(ctx context.Context, channelID, userID int64) (bool, error) {
	first, err := s.repo.RecordMember(ctx, channelID, userID)
	if err != nil {
		return false, apperrors.NewDatabaseError(err)
	}
	return first, nil
}

// IncrementMembers bumps the counter; the channel deactivates itself once the
// limit is reached.
func (s *Service) IncrementMembers(ctx context.Context, channelID int64) (*domain.MandatoryChannel, error) {
	ch, err := s.repo.IncrementMembers(ctx, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("channel", "❌ Kanal topilmadi!")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	if !ch.IsActive {
		s.log.Info("mandatory channel reached its member limit",
			slog.Int64("id", ch.ID),
			slog.Int("members", ch.CurrentMembers),
		)
	}
	return ch, nil
}

func (s *Service) IncrementPendingRequests(ctx context.Context, channelID int64) error {
	return s.write(s.repo.AdjustPendingRequests(ctx, channelID, 1))
}

func (s *Service) DecrementPendingRequests(ctx context.Context, channelID int64) error {
	return s.write(s.repo.AdjustPendingRequests(ctx, channelID, -1))
}

func (s *Service) ActiveDatabaseChannels(ctx context.Context) ([]domain.DatabaseChannel, error) {
	channels, err := s.repo.ListActiveDatabase(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return channels, nil
}

func (s *Service) CreateDatabaseChannel(ctx context.Context, ch domain.DatabaseChannel) (*domain.DatabaseChannel, error) {
	if err := s.repo.CreateDatabase(ctx, &ch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError("❌ Bu kanal allaqachon qo'shilgan!")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	s.log.Info("database channel created", slog.Int64("id", ch.ID), slog.String("channel_id", ch.ChannelID))
	return &ch, nil
}

func (s *Service) DeleteDatabaseChannel(ctx context.Context, id int64) error {
	return s.write(s.repo.DeleteDatabase(ctx, id))
}

func (s *Service) write(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError("channel", "❌ Kanal topilmadi!")
	}
	return apperrors.NewDatabaseError(err)
}
