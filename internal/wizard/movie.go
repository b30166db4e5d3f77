package wizard

import (
	"context"
	"fmt"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

type movieFlow struct{}

func (movieFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "🎬 Kino yuklash boshlandi!\n\n🔢 Kino kodini kiriting:", keyboard.Cancel())
}

func (movieFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.MovieWizard)
	in := fc.Input

	switch w.Step {
	case state.MovieStepCode:
		code, err := parseCode(in.Text)
		if err != nil {
			return Stay, err
		}
		if err := checkCodeFree(ctx, fc.Deps().Content, domain.ContentMovie, code); err != nil {
			return Stay, err
		}
		w.Code = code
		return fc.Next(ctx, int(state.MovieStepTitle), fmt.Sprintf("✅ Kod: %d\n\n📝 Kino nomini kiriting:", code), nil)

	case state.MovieStepTitle:
		title, err := requireText(in)
		if err != nil {
			return Stay, err
		}
		w.Title = title
		return fc.Next(ctx, int(state.MovieStepGenre), "🎭 Janrini kiriting:", nil)

	case state.MovieStepGenre:
		genre, err := requireText(in)
		if err != nil {
			return Stay, err
		}
		w.Genre = genre
		prompt, markup := descriptionPrompt()
		return fc.Next(ctx, int(state.MovieStepDescription), prompt, markup)

	case state.MovieStepDescription:
		if _, err := requireText(in); err != nil {
			return Stay, err
		}
		w.Description = description(in.Text)

		options, err := loadFieldOptions(ctx, fc.Deps().Fields)
		if err != nil {
			return Stay, err
		}
		if len(options) == 0 {
			return fc.Done(ctx, msgNoFields)
		}
		w.Fields = options
		return fc.Next(ctx, int(state.MovieStepField), fieldPrompt(options), nil)

	case state.MovieStepField:
		field, err := pickField(w.Fields, in.Text)
		if err != nil {
			return Stay, err
		}
		w.Field = field
		return fc.Next(ctx, int(state.MovieStepPhoto), "🖼 Kino posterini yuboring:", nil)

	case state.MovieStepPhoto:
		if in.PhotoID == "" {
			return Stay, apperrors.NewValidationError(msgPhotoRequired)
		}
		w.PosterFileID = in.PhotoID
		return fc.Next(ctx, int(state.MovieStepVideo), "📹 Kino videosini yuboring:", nil)

	case state.MovieStepVideo:
		if in.VideoID == "" {
			return Stay, apperrors.NewValidationError(msgVideoRequired)
		}
		return publishMovie(ctx, fc, w, in.VideoID)
	}

	return Stay, nil
}

// publishMovie stores the video in the database channels, posts the poster
// to the field channel and creates the movie.
func publishMovie(ctx context.Context, fc *FlowContext, w *state.MovieWizard, videoFileID string) (Outcome, error) {
	channels, ok, err := databaseChannels(ctx, fc)
	if err != nil {
		return Stay, err
	}
	if !ok {
		return fc.Done(ctx, msgNoDatabase)
	}

	caption := ContentCaption(domain.ContentMovie, w.Code, w.Title, w.Genre, w.Description, w.Field.Name, 0)
	copies, err := copyToDatabase(ctx, fc, channels, videoFileID, caption)
	if err != nil {
		return Stay, err
	}

	posterID, err := fc.Messenger().SendPhoto(ctx, Chat(w.Field.ChannelID), w.PosterFileID, caption,
		watchButton(fc.Messenger().BotUsername(), domain.ContentMovie, w.Code))
	if err != nil {
		return Stay, fmt.Errorf("post movie poster: %w", err)
	}

	movie, err := fc.Deps().Content.CreateMovie(ctx, domain.NewMovie{
		Code:             w.Code,
		Title:            w.Title,
		Genre:            w.Genre,
		Description:      w.Description,
		FieldID:          w.Field.ID,
		PosterFileID:     w.PosterFileID,
		VideoFileID:      videoFileID,
		ChannelMessageID: posterID,
		VideoMessages:    copies,
	})
	if err != nil {
		return Stay, err
	}

	return fc.Done(ctx, fmt.Sprintf("✅ Kino muvaffaqiyatli yuklandi!\n\n🎬 %s\n🔢 Kod: %d\n📁 Field: %s\n💾 Database kanallar: %d",
		movie.Title, movie.Code, w.Field.Name, len(copies)))
}

type attachVideoFlow struct{}

func (attachVideoFlow) Begin(ctx context.Context, fc *FlowContext) error {
	return fc.Reply(ctx, "📹 Kinoga video biriktirish\n\n🔢 Kino kodini kiriting:", keyboard.Cancel())
}

func (attachVideoFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.AttachVideoWizard)
	in := fc.Input

	switch w.Step {
	case state.AttachVideoStepCode:
		code, err := parseCode(in.Text)
		if err != nil {
			return Stay, err
		}
		movie, err := fc.Deps().Content.MovieByCode(ctx, code)
		if apperrors.IsNotFound(err) {
			return Stay, apperrors.NewNotFoundError("movie", "❌ Bu kod bilan kino topilmadi!\n\nBoshqa kod kiriting:")
		}
		if err != nil {
			return Stay, err
		}
		if movie.VideoFileID != "" {
			return Stay, apperrors.NewValidationError("❌ Bu kinoda allaqachon video bor!\n\nBoshqa kod kiriting:")
		}
		w.MovieID = movie.ID
		w.MovieCode = movie.Code
		w.MovieTitle = movie.Title
		return fc.Next(ctx, int(state.AttachVideoStepVideo), fmt.Sprintf("🎬 %s\n\n📹 Videoni yuboring:", movie.Title), nil)

	case state.AttachVideoStepVideo:
		if in.VideoID == "" {
			return Stay, apperrors.NewValidationError(msgVideoRequired)
		}
		channels, ok, err := databaseChannels(ctx, fc)
		if err != nil {
			return Stay, err
		}
		if !ok {
			return fc.Done(ctx, msgNoDatabase)
		}
		caption := fmt.Sprintf("🎬 %s\n🔢 Kod: %d", w.MovieTitle, w.MovieCode)
		copies, err := copyToDatabase(ctx, fc, channels, in.VideoID, caption)
		if err != nil {
			return Stay, err
		}
		if err := fc.Deps().Content.AttachVideo(ctx, w.MovieID, in.VideoID, copies); err != nil {
			return Stay, err
		}
		return fc.Done(ctx, fmt.Sprintf("✅ Video \"%s\" kinosiga biriktirildi!", w.MovieTitle))
	}

	return Stay, nil
}
