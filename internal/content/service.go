// Package content manages movies, serials and their episodes.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/repository"
)

// maxCodeDistance bounds the outward walk of NearestAvailableCodes.
const maxCodeDistance = 10000

// codeBatch is how many distances are checked per query.
const codeBatch = 25

// Service implements the content catalogue.
type Service struct {
	repo repository.ContentRepository
	log  *slog.Logger
}

func NewService(repo repository.ContentRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// IsCodeAvailable reports whether neither a movie nor a serial uses code.
func (s *Service) IsCodeAvailable(ctx context.Context, code int) (bool, error) {
	if code <= 0 {
		return false, nil
	}

	taken, err := s.repo.TakenCodes(ctx, []int{code})
	if err != nil {
		return false, apperrors.NewDatabaseError(err)
	}
	return !taken[code], nil
}

// NearestAvailableCodes walks outwards from code (code+1, code-1, code+2, ...)
// and returns up to limit free positive codes in that order.
func (s *Service) NearestAvailableCodes(ctx context.Context, code, limit int) ([]int, error) {
	if limit <= 0 {
		return nil, nil
	}

	free := make([]int, 0, limit)
	for from := 1; from <= maxCodeDistance && len(free) < limit; from += codeBatch {
		candidates := outwardCandidates(code, from, from+codeBatch)
		if len(candidates) == 0 {
			continue
		}

		taken, err := s.repo.TakenCodes(ctx, candidates)
		if err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}

		for _, candidate := range candidates {
			if !taken[candidate] {
				free = append(free, candidate)
				if len(free) == limit {
					break
				}
			}
		}
	}

	return free, nil
}

// outwardCandidates lists code+d and code-d for d in [from, to), skipping
// non-positive values.
func outwardCandidates(code, from, to int) []int {
	out := make([]int, 0, 2*(to-from))
	for d := from; d < to; d++ {
		out = append(out, code+d)
		if code-d > 0 {
			out = append(out, code-d)
		}
	}
	return out
}

func (s *Service) MovieByCode(ctx context.Context, code int) (*domain.Movie, error) {
	movie, err := s.repo.MovieByCode(ctx, code)
	if err != nil {
		return nil, s.lookupError(err, "movie", "❌ Bu kod bilan kino topilmadi!")
	}
	return movie, nil
}

func (s *Service) SerialByCode(ctx context.Context, code int) (*domain.Serial, error) {
	serial, err := s.repo.SerialByCode(ctx, code)
	if err != nil {
		return nil, s.lookupError(err, "serial", "❌ Bu kod bilan serial topilmadi!")
	}
	return serial, nil
}

// CreateMovie stores a new movie after re-checking its code against both catalogues.
func (s *Service) CreateMovie(ctx context.Context, in domain.NewMovie) (*domain.Movie, error) {
	if err := s.ensureCodeFree(ctx, in.Code); err != nil {
		return nil, err
	}

	movie := &domain.Movie{
		Code:             in.Code,
		Title:            strings.TrimSpace(in.Title),
		Genre:            strings.TrimSpace(in.Genre),
		Description:      in.Description,
		FieldID:          in.FieldID,
		PosterFileID:     in.PosterFileID,
		VideoFileID:      in.VideoFileID,
		ChannelMessageID: in.ChannelMessageID,
		VideoMessages:    in.VideoMessages,
	}
	if err := s.repo.CreateMovie(ctx, movie); err != nil {
		return nil, s.writeError(err, "create_movie", in.Code)
	}

	s.log.Info("movie created", slog.Int("code", movie.Code), slog.Int64("movie_id", movie.ID))
	return movie, nil
}

// CreateSerial stores a new serial with its first episodes.
func (s *Service) CreateSerial(ctx context.Context, in domain.NewSerial) (*domain.Serial, error) {
	if len(in.Episodes) == 0 {
		return nil, apperrors.NewValidationError("❌ Kamida bitta qism yuklang!")
	}
	if err := s.ensureCodeFree(ctx, in.Code); err != nil {
		return nil, err
	}

	serial := &domain.Serial{
		Code:             in.Code,
		Title:            strings.TrimSpace(in.Title),
		Genre:            strings.TrimSpace(in.Genre),
		Description:      in.Description,
		FieldID:          in.FieldID,
		PosterFileID:     in.PosterFileID,
		ChannelMessageID: in.ChannelMessageID,
	}
	if err := s.repo.CreateSerial(ctx, serial, in.Episodes); err != nil {
		return nil, s.writeError(err, "create_serial", in.Code)
	}

	s.log.Info("serial created",
		slog.Int("code", serial.Code),
		slog.Int64("serial_id", serial.ID),
		slog.Int("episodes", serial.TotalEpisodes),
	)
	return serial, nil
}

func (s *Service) AddEpisodes(ctx context.Context, kind domain.ContentKind, contentID int64, episodes []domain.NewEpisode) error {
	if len(episodes) == 0 {
		return apperrors.NewValidationError("❌ Kamida bitta qism yuklang!")
	}

	total, err := s.repo.AddEpisodes(ctx, kind, contentID, episodes)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewValidationError("❌ Bu raqamli qism allaqachon mavjud!")
		}
		return s.writeError(err, "add_episodes", int(contentID))
	}

	s.log.Info("episodes added",
		slog.String("kind", string(kind)),
		slog.Int64("content_id", contentID),
		slog.Int("added", len(episodes)),
		slog.Int("total", total),
	)
	return nil
}

func (s *Service) Episodes(ctx context.Context, kind domain.ContentKind, contentID int64) ([]domain.Episode, error) {
	episodes, err := s.repo.Episodes(ctx, kind, contentID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return episodes, nil
}

func (s *Service) Episode(ctx context.Context, kind domain.ContentKind, contentID int64, number int) (*domain.Episode, error) {
	ep, err := s.repo.Episode(ctx, kind, contentID, number)
	if err != nil {
		return nil, s.lookupError(err, "episode", "❌ Bu qism topilmadi!")
	}
	return ep, nil
}

func (s *Service) AttachVideo(ctx context.Context, movieID int64, videoFileID string, copies []domain.ChannelMessage) error {
	if err := s.repo.AttachVideo(ctx, movieID, videoFileID, copies); err != nil {
		return s.writeError(err, "attach_video", int(movieID))
	}
	return nil
}

func (s *Service) SetPosterMessage(ctx context.Context, kind domain.ContentKind, contentID int64, messageID int) error {
	if err := s.repo.SetPosterMessage(ctx, kind, contentID, messageID); err != nil {
		return s.writeError(err, "set_poster_message", int(contentID))
	}
	return nil
}

// Delete removes the content together with its episodes and watch history.
func (s *Service) Delete(ctx context.Context, kind domain.ContentKind, contentID int64) error {
	if err := s.repo.Delete(ctx, kind, contentID); err != nil {
		return s.writeError(err, "delete", int(contentID))
	}

	s.log.Info("content deleted", slog.String("kind", string(kind)), slog.Int64("content_id", contentID))
	return nil
}

// Entry is a catalogue hit. Exactly one of Movie and Serial is set.
type Entry struct {
	Kind   domain.ContentKind
	Movie  *domain.Movie
	Serial *domain.Serial
}

func (e Entry) ID() int64 {
	if e.Movie != nil {
		return e.Movie.ID
	}
	return e.Serial.ID
}

// Find resolves code for a user. An empty kind tries movies before serials.
func (s *Service) Find(ctx context.Context, kind domain.ContentKind, code int) (*Entry, error) {
	if kind == "" || kind == domain.ContentMovie {
		movie, err := s.MovieByCode(ctx, code)
		if err == nil {
			return &Entry{Kind: domain.ContentMovie, Movie: movie}, nil
		}
		if !apperrors.IsNotFound(err) || kind == domain.ContentMovie {
			return nil, err
		}
	}

	serial, err := s.SerialByCode(ctx, code)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFoundError("content", "❌ Bu kod bilan kino yoki serial topilmadi!")
		}
		return nil, err
	}
	return &Entry{Kind: domain.ContentSerial, Serial: serial}, nil
}

// RecordView stores a watch history entry. Failures are logged only.
func (s *Service) RecordView(ctx context.Context, userID int64, entry *Entry) {
	if entry == nil {
		return
	}
	if err := s.repo.RecordView(ctx, userID, entry.Kind, entry.ID()); err != nil {
		s.log.Warn("failed to record view",
			slog.Int64("user_id", userID),
			slog.String("kind", string(entry.Kind)),
			slog.Any("error", err),
		)
	}
}

// Counts returns the number of movies and serials.
func (s *Service) Counts(ctx context.Context) (int, int, error) {
	movies, serials, err := s.repo.Counts(ctx)
	if err != nil {
		return 0, 0, apperrors.NewDatabaseError(err)
	}
	return movies, serials, nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code int) error {
	available, err := s.IsCodeAvailable(ctx, code)
	if err != nil {
		return err
	}
	if !available {
		return apperrors.NewValidationError(fmt.Sprintf("❌ %d kodi band!", code))
	}
	return nil
}

func (s *Service) lookupError(err error, entity, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(entity, msg)
	}
	s.log.Error("content lookup failed", slog.String("entity", entity), slog.Any("error", err))
	return apperrors.NewDatabaseError(err)
}

func (s *Service) writeError(err error, operation string, ref int) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NewNotFoundError("content", "❌ Kontent topilmadi!")
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewValidationError(fmt.Sprintf("❌ %d kodi band!", ref))
	}

	s.log.Error("content operation failed", slog.String("operation", operation), slog.Int("ref", ref), slog.Any("error", err))
	return apperrors.NewDatabaseError(err)
}
