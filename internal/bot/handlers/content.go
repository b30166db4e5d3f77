package handlers

import (
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

const episodesPerRow = 5

// NewCodeHandler looks up content by a code typed by the user. Other text
// gets a hint on how to search.
func NewCodeHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		kind, code, ok := wizard.ParseContentCode(c.Text())
		if !ok {
			return d.reply(c, T(c, "content.ask_code", nil), keyboard.UserMenu(TranslatorFrom(c), premium(UserFrom(c))))
		}

		// A bare number may be a movie or a serial.
		if !strings.ContainsAny(c.Text(), "mMsS") {
			kind = ""
		}

		return d.gated(c, gatePayload(kind, code), func() error {
			return d.deliver(c, kind, code)
		})
	}
}

// NewSearchPromptHandler answers the search menu button.
func NewSearchPromptHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return d.reply(c, T(c, "content.ask_code", nil), nil)
	}
}

// deliver sends the content with code to the sender and records the view.
func (d Deps) deliver(c telebot.Context, kind domain.ContentKind, code int) error {
	ctx := Ctx(c)
	entry, err := d.Content.Find(ctx, kind, code)
	if apperrors.IsNotFound(err) {
		return d.reply(c, T(c, "content.not_found", map[string]any{"Code": code}), nil)
	}
	if err != nil {
		return err
	}

	switch entry.Kind {
	case domain.ContentSerial:
		err = d.sendSerial(c, entry.Serial)
	default:
		err = d.sendMovie(c, entry.Movie)
	}
	if err != nil {
		return err
	}

	if u := UserFrom(c); u != nil {
		d.Content.RecordView(ctx, u.ID, entry)
	}
	return nil
}

func (d Deps) sendMovie(c telebot.Context, movie *domain.Movie) error {
	caption := T(c, "content.movie_caption", map[string]any{
		"Title": movie.Title,
		"Genre": movie.Genre,
		"Code":  movie.Code,
	})
	if movie.Description != nil && *movie.Description != "" {
		caption += "\n\n" + *movie.Description
	}

	var markup *keyboard.Markup
	if movie.TotalEpisodes > 0 {
		episodes, err := d.Content.Episodes(Ctx(c), domain.ContentMovie, movie.ID)
		if err != nil {
			return err
		}
		markup = episodeMarkup(domain.ContentMovie, movie.ID, episodes)
	}

	if movie.VideoFileID == "" {
		if markup != nil && movie.PosterFileID != "" {
			_, err := d.Messenger.SendPhoto(Ctx(c), chatOf(c), movie.PosterFileID, caption, markup)
			return err
		}
		return d.reply(c, T(c, "content.no_video", nil), nil)
	}

	_, err := d.Messenger.SendVideo(Ctx(c), chatOf(c), movie.VideoFileID, caption, markup)
	return err
}

func (d Deps) sendSerial(c telebot.Context, serial *domain.Serial) error {
	episodes, err := d.Content.Episodes(Ctx(c), domain.ContentSerial, serial.ID)
	if err != nil {
		return err
	}

	caption := T(c, "content.serial_caption", map[string]any{
		"Title":    serial.Title,
		"Genre":    serial.Genre,
		"Code":     serial.Code,
		"Episodes": len(episodes),
	})
	if serial.Description != nil && *serial.Description != "" {
		caption += "\n\n" + *serial.Description
	}
	if len(episodes) > 0 {
		caption += "\n\n" + T(c, "content.choose_episode", nil)
	}

	markup := episodeMarkup(domain.ContentSerial, serial.ID, episodes)
	if serial.PosterFileID == "" {
		return d.reply(c, caption, markup)
	}
	_, err = d.Messenger.SendPhoto(Ctx(c), chatOf(c), serial.PosterFileID, caption, markup)
	return err
}

func episodeMarkup(kind domain.ContentKind, contentID int64, episodes []domain.Episode) *keyboard.Markup {
	if len(episodes) == 0 {
		return nil
	}

	buttons := make([]keyboard.InlineButton, 0, len(episodes))
	for _, ep := range episodes {
		buttons = append(buttons, keyboard.InlineButton{
			Text:   strconv.Itoa(ep.EpisodeNumber),
			Unique: keyboard.CbEpisode,
			Data:   EpisodePayload(kind, contentID, ep.EpisodeNumber),
		})
	}
	return keyboard.NewInlineKeyboard().AddGrid(episodesPerRow, buttons...).MustBuild()
}

// EpisodePayload encodes an episode button as "<m|s><contentID>:<number>".
func EpisodePayload(kind domain.ContentKind, contentID int64, number int) string {
	prefix := "m"
	if kind == domain.ContentSerial {
		prefix = "s"
	}
	return fmt.Sprintf("%s%d:%d", prefix, contentID, number)
}

// ParseEpisodePayload reverses EpisodePayload.
func ParseEpisodePayload(data string) (domain.ContentKind, int64, int, bool) {
	if len(data) < 4 {
		return "", 0, 0, false
	}

	var kind domain.ContentKind
	switch data[0] {
	case 'm':
		kind = domain.ContentMovie
	case 's':
		kind = domain.ContentSerial
	default:
		return "", 0, 0, false
	}

	idPart, numPart, ok := strings.Cut(data[1:], ":")
	if !ok {
		return "", 0, 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, 0, false
	}
	number, err := strconv.Atoi(numPart)
	if err != nil || number <= 0 {
		return "", 0, 0, false
	}
	return kind, id, number, true
}

// NewEpisodeHandler sends the episode behind a pressed episode button.
func NewEpisodeHandler(d Deps) CallbackHandler {
	return func(c telebot.Context) error {
		d.answer(c, "", false)

		_, data := callbackData(c)
		kind, contentID, number, ok := ParseEpisodePayload(data)
		if !ok {
			return nil
		}

		return d.gated(c, "", func() error {
			episode, err := d.Content.Episode(Ctx(c), kind, contentID, number)
			if apperrors.IsNotFound(err) {
				return d.reply(c, apperrors.UserMessage(err), nil)
			}
			if err != nil {
				return err
			}

			caption := T(c, "content.episode_caption", map[string]any{"Title": episode.Title, "Number": episode.EpisodeNumber})
			_, err = d.Messenger.SendVideo(Ctx(c), chatOf(c), episode.VideoFileID, caption, nil)
			return err
		})
	}
}
