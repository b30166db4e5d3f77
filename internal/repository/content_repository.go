package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// ContentRepository persists movies, serials and their episodes.
type ContentRepository interface {
	// TakenCodes returns the subset of codes used by a movie or a serial.
	TakenCodes(ctx context.Context, codes []int) (map[int]bool, error)
	MovieByCode(ctx context.Context, code int) (*domain.Movie, error)
	SerialByCode(ctx context.Context, code int) (*domain.Serial, error)
	CreateMovie(ctx context.Context, movie *domain.Movie) error
	// CreateSerial inserts the serial together with its first episodes.
	CreateSerial(ctx context.Context, serial *domain.Serial, episodes []domain.NewEpisode) error
	// AddEpisodes appends episodes and refreshes the owner's episode counter.
	AddEpisodes(ctx context.Context, kind domain.ContentKind, contentID int64, episodes []domain.NewEpisode) (int, error)
	Episodes(ctx context.Context, kind domain.ContentKind, contentID int64) ([]domain.Episode, error)
	Episode(ctx context.Context, kind domain.ContentKind, contentID int64, number int) (*domain.Episode, error)
	AttachVideo(ctx context.Context, movieID int64, videoFileID string, copies []domain.ChannelMessage) error
	SetPosterMessage(ctx context.Context, kind domain.ContentKind, contentID int64, messageID int) error
	// Delete removes the content with its episodes and watch history.
	Delete(ctx context.Context, kind domain.ContentKind, contentID int64) error
	// RecordView stores a watch history entry and bumps the view counter.
	RecordView(ctx context.Context, userID int64, kind domain.ContentKind, contentID int64) error
	Counts(ctx context.Context) (movies, serials int, err error)
}

type contentRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewContentRepository(db *sql.DB, log *slog.Logger) ContentRepository {
	return &contentRepository{db: db, log: log}
}

func contentTable(kind domain.ContentKind) (string, error) {
	switch kind {
	case domain.ContentMovie:
		return "movies", nil
	case domain.ContentSerial:
		return "serials", nil
	default:
		return "", fmt.Errorf("unknown content kind %q", kind)
	}
}

func (r *contentRepository) TakenCodes(ctx context.Context, codes []int) (map[int]bool, error) {
	const query = `
		SELECT code FROM movies WHERE code = ANY($1)
		UNION
		SELECT code FROM serials WHERE code = ANY($1)
	`

	values := make([]int64, len(codes))
	for i, code := range codes {
		values[i] = int64(code)
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(values))
	if err != nil {
		r.log.Error("failed to check content codes", slog.Any("error", err))
		return nil, fmt.Errorf("select taken codes: %w", err)
	}
	defer rows.Close()

	taken := make(map[int]bool, len(codes))
	for rows.Next() {
		var code int
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		taken[code] = true
	}
	return taken, rows.Err()
}

func (r *contentRepository) MovieByCode(ctx context.Context, code int) (*domain.Movie, error) {
	const query = `
		SELECT m.id, m.code, m.title, m.genre, m.description, COALESCE(m.field_id, 0), COALESCE(f.name, ''),
			m.poster_file_id, m.video_file_id, m.channel_message_id, m.video_messages,
			m.total_episodes, m.views, m.created_at
		FROM movies m
		LEFT JOIN fields f ON f.id = m.field_id
		WHERE m.code = $1
	`

	var (
		movie       domain.Movie
		description sql.NullString
		messages    []byte
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&movie.ID,
		&movie.Code,
		&movie.Title,
		&movie.Genre,
		&description,
		&movie.FieldID,
		&movie.FieldName,
		&movie.PosterFileID,
		&movie.VideoFileID,
		&movie.ChannelMessageID,
		&messages,
		&movie.TotalEpisodes,
		&movie.Views,
		&movie.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch movie", slog.Int("code", code), slog.Any("error", err))
		return nil, fmt.Errorf("select movie: %w", err)
	}

	movie.Description = nullString(description)
	if movie.VideoMessages, err = decodeMessages(messages); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *contentRepository) SerialByCode(ctx context.Context, code int) (*domain.Serial, error) {
	const query = `
		SELECT s.id, s.code, s.title, s.genre, s.description, COALESCE(s.field_id, 0), COALESCE(f.name, ''),
			s.poster_file_id, s.channel_message_id, s.total_episodes, s.views, s.created_at
		FROM serials s
		LEFT JOIN fields f ON f.id = s.field_id
		WHERE s.code = $1
	`

	var (
		serial      domain.Serial
		description sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&serial.ID,
		&serial.Code,
		&serial.Title,
		&serial.Genre,
		&description,
		&serial.FieldID,
		&serial.FieldName,
		&serial.PosterFileID,
		&serial.ChannelMessageID,
		&serial.TotalEpisodes,
		&serial.Views,
		&serial.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch serial", slog.Int("code", code), slog.Any("error", err))
		return nil, fmt.Errorf("select serial: %w", err)
	}

	serial.Description = nullString(description)
	return &serial, nil
}

// CreateMovie inserts the movie. A code collision yields ErrDuplicate.
func (r *contentRepository) CreateMovie(ctx context.Context, movie *domain.Movie) error {
	const query = `
		INSERT INTO movies (code, title, genre, description, field_id, poster_file_id, video_file_id,
			channel_message_id, video_messages, total_episodes)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	messages, err := encodeMessages(movie.VideoMessages)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, query,
		movie.Code,
		movie.Title,
		movie.Genre,
		movie.Description,
		movie.FieldID,
		movie.PosterFileID,
		movie.VideoFileID,
		movie.ChannelMessageID,
		messages,
		movie.TotalEpisodes,
	).Scan(&movie.ID, &movie.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.log.Error("failed to create movie", slog.Int("code", movie.Code), slog.Any("error", err))
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

func (r *contentRepository) CreateSerial(ctx context.Context, serial *domain.Serial, episodes []domain.NewEpisode) error {
	const query = `
		INSERT INTO serials (code, title, genre, description, field_id, poster_file_id, channel_message_id, total_episodes)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7, $8)
		RETURNING id, created_at
	`

	return r.inTx(ctx, "create serial", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			serial.Code,
			serial.Title,
			serial.Genre,
			serial.Description,
			serial.FieldID,
			serial.PosterFileID,
			serial.ChannelMessageID,
			len(episodes),
		).Scan(&serial.ID, &serial.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert serial: %w", err)
		}

		if err := insertEpisodes(ctx, tx, domain.ContentSerial, serial.ID, episodes); err != nil {
			return err
		}
		serial.TotalEpisodes = len(episodes)
		return nil
	})
}

func (r *contentRepository) AddEpisodes(ctx context.Context, kind domain.ContentKind, contentID int64, episodes []domain.NewEpisode) (int, error) {
	table, err := contentTable(kind)
	if err != nil {
		return 0, err
	}

	var total int
	err = r.inTx(ctx, "add episodes", func(tx *sql.Tx) error {
		if err := insertEpisodes(ctx, tx, kind, contentID, episodes); err != nil {
			return err
		}

		query := `
			UPDATE ` + table + `
			SET total_episodes = (SELECT COUNT(*) FROM episodes WHERE content_kind = $2 AND content_id = $1)
			WHERE id = $1
			RETURNING total_episodes
		`
		if err := tx.QueryRowContext(ctx, query, contentID, string(kind)).Scan(&total); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("update episode total: %w", err)
		}
		return nil
	})
	return total, err
}

func insertEpisodes(ctx context.Context, tx *sql.Tx, kind domain.ContentKind, contentID int64, episodes []domain.NewEpisode) error {
	const query = `
		INSERT INTO episodes (content_kind, content_id, episode_number, video_file_id, video_messages)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, ep := range episodes {
		messages, err := encodeMessages(ep.VideoMessages)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, string(kind), contentID, ep.EpisodeNumber, ep.VideoFileID, messages); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert episode %d: %w", ep.EpisodeNumber, err)
		}
	}
	return nil
}

func scanEpisode(row rowScanner) (*domain.Episode, error) {
	var (
		ep       domain.Episode
		kind     string
		messages []byte
	)
	if err := row.Scan(&ep.ID, &kind, &ep.ContentID, &ep.EpisodeNumber, &ep.Title, &ep.VideoFileID, &messages, &ep.CreatedAt); err != nil {
		return nil, err
	}

	ep.ContentKind = domain.ContentKind(kind)
	var err error
	if ep.VideoMessages, err = decodeMessages(messages); err != nil {
		return nil, err
	}
	return &ep, nil
}

const episodeColumns = `id, content_kind, content_id, episode_number, title, video_file_id, video_messages, created_at`

func (r *contentRepository) Episodes(ctx context.Context, kind domain.ContentKind, contentID int64) ([]domain.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE content_kind = $1 AND content_id = $2 ORDER BY episode_number`

	rows, err := r.db.QueryContext(ctx, query, string(kind), contentID)
	if err != nil {
		r.log.Error("failed to list episodes", slog.Int64("content_id", contentID), slog.Any("error", err))
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []domain.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, *ep)
	}
	return episodes, rows.Err()
}

func (r *contentRepository) Episode(ctx context.Context, kind domain.ContentKind, contentID int64, number int) (*domain.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE content_kind = $1 AND content_id = $2 AND episode_number = $3`

	ep, err := scanEpisode(r.db.QueryRowContext(ctx, query, string(kind), contentID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.log.Error("failed to fetch episode", slog.Int64("content_id", contentID), slog.Int("number", number), slog.Any("error", err))
		return nil, fmt.Errorf("select episode: %w", err)
	}
	return ep, nil
}

func (r *contentRepository) AttachVideo(ctx context.Context, movieID int64, videoFileID string, copies []domain.ChannelMessage) error {
	messages, err := encodeMessages(copies)
	if err != nil {
		return err
	}

	return execAffecting(ctx, r.db, r.log, "attach movie video",
		`UPDATE movies SET video_file_id = $2, video_messages = $3 WHERE id = $1`, movieID, videoFileID, messages)
}

func (r *contentRepository) SetPosterMessage(ctx context.Context, kind domain.ContentKind, contentID int64, messageID int) error {
	table, err := contentTable(kind)
	if err != nil {
		return err
	}

	return execAffecting(ctx, r.db, r.log, "set poster message",
		`UPDATE `+table+` SET channel_message_id = $2 WHERE id = $1`, contentID, messageID)
}

func (r *contentRepository) Delete(ctx context.Context, kind domain.ContentKind, contentID int64) error {
	table, err := contentTable(kind)
	if err != nil {
		return err
	}

	return r.inTx(ctx, "delete content", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM episodes WHERE content_kind = $1 AND content_id = $2`, string(kind), contentID); err != nil {
			return fmt.Errorf("delete episodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM watch_history WHERE content_kind = $1 AND content_id = $2`, string(kind), contentID); err != nil {
			return fmt.Errorf("delete watch history: %w", err)
		}
		return execAffecting(ctx, tx, nil, "delete "+string(kind), `DELETE FROM `+table+` WHERE id = $1`, contentID)
	})
}

func (r *contentRepository) RecordView(ctx context.Context, userID int64, kind domain.ContentKind, contentID int64) error {
	table, err := contentTable(kind)
	if err != nil {
		return err
	}

	return r.inTx(ctx, "record view", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO watch_history (user_id, content_kind, content_id) VALUES ($1, $2, $3)`,
			userID, string(kind), contentID); err != nil {
			return fmt.Errorf("insert watch history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET views = views + 1 WHERE id = $1`, contentID); err != nil {
			return fmt.Errorf("bump views: %w", err)
		}
		return nil
	})
}

func (r *contentRepository) Counts(ctx context.Context) (int, int, error) {
	var movies, serials int
	err := r.db.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM movies), (SELECT COUNT(*) FROM serials)`).
		Scan(&movies, &serials)
	if err != nil {
		r.log.Error("failed to count content", slog.Any("error", err))
		return 0, 0, fmt.Errorf("count content: %w", err)
	}
	return movies, serials, nil
}

func (r *contentRepository) inTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, r.db, r.log, operation, fn)
}
