package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

const msgNeedEpisode = "❌ Kamida bitta qism yuklang!"

type serialFlow struct{}

func (serialFlow) Begin(ctx context.Context, fc *FlowContext) error {
	w := fc.Session.Wizard.(*state.SerialWizard)
	if w.Mode == state.SerialModeAddEpisodes {
		return fc.Reply(ctx, "➕ Qism qo'shish\n\n🔢 Kino yoki serial kodini kiriting:", keyboard.Cancel())
	}
	return fc.Reply(ctx, "📺 Yangi serial yaratish\n\n🔢 Serial kodini kiriting:", keyboard.Cancel())
}

func (serialFlow) Handle(ctx context.Context, fc *FlowContext) (Outcome, error) {
	w := fc.Session.Wizard.(*state.SerialWizard)
	in := fc.Input

	switch w.Step {
	case state.SerialStepCode:
		code, err := parseCode(in.Text)
		if err != nil {
			return Stay, err
		}
		if w.Mode == state.SerialModeAddEpisodes {
			return selectTarget(ctx, fc, w, code)
		}
		if err := checkCodeFree(ctx, fc.Deps().Content, domain.ContentSerial, code); err != nil {
			return Stay, err
		}
		w.Code = code
		return fc.Next(ctx, int(state.SerialStepTitle), fmt.Sprintf("✅ Kod: %d\n\n📝 Serial nomini kiriting:", code), nil)

	case state.SerialStepTitle:
		title, err := requireText(in)
		if err != nil {
			return Stay, err
		}
		w.Title = title
		return fc.Next(ctx, int(state.SerialStepGenre), "🎭 Janrini kiriting:", nil)

	case state.SerialStepGenre:
		genre, err := requireText(in)
		if err != nil {
			return Stay, err
		}
		w.Genre = genre
		prompt, markup := descriptionPrompt()
		return fc.Next(ctx, int(state.SerialStepDescription), prompt, markup)

	case state.SerialStepDescription:
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
		return fc.Next(ctx, int(state.SerialStepField), fieldPrompt(options), nil)

	case state.SerialStepField:
		field, err := pickField(w.Fields, in.Text)
		if err != nil {
			return Stay, err
		}
		w.Field = field
		return fc.Next(ctx, int(state.SerialStepPhoto), "🖼 Serial posterini yuboring:", nil)

	case state.SerialStepPhoto:
		if in.PhotoID == "" {
			return Stay, apperrors.NewValidationError(msgPhotoRequired)
		}
		w.PosterFileID = in.PhotoID
		return fc.Next(ctx, int(state.SerialStepUploadingEpisodes),
			fmt.Sprintf("📹 %d-qism videosini yuboring:", w.NextEpisodeNumber()), finishMarkup())

	case state.SerialStepUploadingEpisodes, state.SerialStepAddingEpisodes:
		if isFinish(in.Text) {
			if len(w.Episodes) == 0 {
				return Stay, apperrors.NewValidationError(msgNeedEpisode)
			}
			if w.Step == state.SerialStepAddingEpisodes {
				return saveEpisodes(ctx, fc, w)
			}
			return fc.Next(ctx, int(state.SerialStepPublish),
				fmt.Sprintf("📺 %s\n🎞 Qismlar: %d\n\n📢 Serialni field kanalga joylashtirasizmi?", w.Title, len(w.Episodes)),
				keyboard.WithCancel([]string{keyboard.BtnYes, keyboard.BtnNo}))
		}
		if in.VideoID == "" {
			return Stay, apperrors.NewValidationError("❌ Iltimos, video yuboring yoki \"" + keyboard.BtnFinish + "\" tugmasini bosing!")
		}
		number := w.NextEpisodeNumber()
		w.Episodes = append(w.Episodes, state.EpisodeDraft{Number: number, VideoFileID: in.VideoID})
		if err := fc.Reply(ctx, fmt.Sprintf("✅ %d-qism qabul qilindi!\n\n📹 %d-qism videosini yuboring yoki \"%s\" tugmasini bosing.",
			number, number+1, keyboard.BtnFinish), finishMarkup()); err != nil {
			return Stay, err
		}
		return Save, nil

	case state.SerialStepPublish:
		switch strings.TrimSpace(in.Text) {
		case keyboard.BtnYes:
			return publishSerial(ctx, fc, w, true)
		case keyboard.BtnNo:
			return publishSerial(ctx, fc, w, false)
		default:
			return Stay, apperrors.NewValidationError("❌ Iltimos, \"" + keyboard.BtnYes + "\" yoki \"" + keyboard.BtnNo + "\" tugmasini bosing!")
		}
	}

	return Stay, nil
}

func finishMarkup() *keyboard.Markup {
	return keyboard.WithCancel([]string{keyboard.BtnFinish})
}

func isFinish(text string) bool {
	return strings.TrimSpace(text) == keyboard.BtnFinish
}

// selectTarget resolves the existing content that receives new episodes.
func selectTarget(ctx context.Context, fc *FlowContext, w *state.SerialWizard, code int) (Outcome, error) {
	content := fc.Deps().Content

	var target *state.ContentRef
	serial, err := content.SerialByCode(ctx, code)
	switch {
	case err == nil:
		target = &state.ContentRef{Kind: domain.ContentSerial, ID: serial.ID, Code: serial.Code, Title: serial.Title, TotalEpisodes: serial.TotalEpisodes}
	case !apperrors.IsNotFound(err):
		return Stay, err
	default:
		movie, err := content.MovieByCode(ctx, code)
		if apperrors.IsNotFound(err) {
			return Stay, apperrors.NewNotFoundError("content", "❌ Bu kod bilan kino yoki serial topilmadi!\n\nBoshqa kod kiriting:")
		}
		if err != nil {
			return Stay, err
		}
		total := movie.TotalEpisodes
		if total == 0 && movie.VideoFileID != "" {
			total = 1
		}
		target = &state.ContentRef{Kind: domain.ContentMovie, ID: movie.ID, Code: movie.Code, Title: movie.Title, TotalEpisodes: total}
	}

	w.Code = code
	w.Target = target
	return fc.Next(ctx, int(state.SerialStepAddingEpisodes),
		fmt.Sprintf("📺 %s\n🎞 Mavjud qismlar: %d\n\n📹 %d-qism videosini yuboring:", target.Title, target.TotalEpisodes, w.NextEpisodeNumber()),
		finishMarkup())
}

// storeEpisodes copies every draft into the database channels.
func storeEpisodes(ctx context.Context, fc *FlowContext, channels []domain.DatabaseChannel, title string, payload string, drafts []state.EpisodeDraft) ([]domain.NewEpisode, error) {
	episodes := make([]domain.NewEpisode, 0, len(drafts))
	for _, draft := range drafts {
		caption := fmt.Sprintf("📺 %s\n🎞 %d-qism\n🔢 Kod: %s", title, draft.Number, payload)
		copies, err := copyToDatabase(ctx, fc, channels, draft.VideoFileID, caption)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, domain.NewEpisode{
			EpisodeNumber: draft.Number,
			VideoFileID:   draft.VideoFileID,
			VideoMessages: copies,
		})
	}
	return episodes, nil
}

func saveEpisodes(ctx context.Context, fc *FlowContext, w *state.SerialWizard) (Outcome, error) {
	channels, ok, err := databaseChannels(ctx, fc)
	if err != nil {
		return Stay, err
	}
	if !ok {
		return fc.Done(ctx, msgNoDatabase)
	}

	target := w.Target
	episodes, err := storeEpisodes(ctx, fc, channels, target.Title, ContentPayload(target.Kind, target.Code), w.Episodes)
	if err != nil {
		return Stay, err
	}
	if err := fc.Deps().Content.AddEpisodes(ctx, target.Kind, target.ID, episodes); err != nil {
		return Stay, err
	}

	return fc.Done(ctx, fmt.Sprintf("✅ %d ta qism qo'shildi!\n\n📺 %s\n🎞 Jami qismlar: %d",
		len(episodes), target.Title, target.TotalEpisodes+len(episodes)))
}

func publishSerial(ctx context.Context, fc *FlowContext, w *state.SerialWizard, toField bool) (Outcome, error) {
	channels, ok, err := databaseChannels(ctx, fc)
	if err != nil {
		return Stay, err
	}
	if !ok {
		return fc.Done(ctx, msgNoDatabase)
	}

	episodes, err := storeEpisodes(ctx, fc, channels, w.Title, ContentPayload(domain.ContentSerial, w.Code), w.Episodes)
	if err != nil {
		return Stay, err
	}

	serial, err := fc.Deps().Content.CreateSerial(ctx, domain.NewSerial{
		Code:         w.Code,
		Title:        w.Title,
		Genre:        w.Genre,
		Description:  w.Description,
		FieldID:      w.Field.ID,
		PosterFileID: w.PosterFileID,
		Episodes:     episodes,
	})
	if err != nil {
		return Stay, err
	}

	published := ""
	if toField {
		caption := ContentCaption(domain.ContentSerial, w.Code, w.Title, w.Genre, w.Description, w.Field.Name, len(episodes))
		posterID, err := fc.Messenger().SendPhoto(ctx, Chat(w.Field.ChannelID), w.PosterFileID, caption,
			watchButton(fc.Messenger().BotUsername(), domain.ContentSerial, w.Code))
		if err != nil {
			return Stay, fmt.Errorf("post serial poster: %w", err)
		}
		if err := fc.Deps().Content.SetPosterMessage(ctx, domain.ContentSerial, serial.ID, posterID); err != nil {
			return Stay, err
		}
		published = "\n📢 Field kanalga joylandi."
	}

	return fc.Done(ctx, fmt.Sprintf("✅ Serial muvaffaqiyatli yaratildi!\n\n📺 %s\n🔢 Kod: s%d\n🎞 Qismlar: %d%s",
		serial.Title, serial.Code, len(episodes), published))
}
