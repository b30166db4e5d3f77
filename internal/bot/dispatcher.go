package bot

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/handlers"
	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/wizard"
)

// Dispatcher hands updates of senders with an active wizard session to the
// wizard engine.
type Dispatcher struct {
	wizards *wizard.Dispatcher
	log     *slog.Logger
}

// NewDispatcher wraps the wizard engine.
func NewDispatcher(wizards *wizard.Dispatcher, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		wizards: wizards,
		log:     log,
	}
}

// Dispatch feeds a message to the sender's wizard and reports whether it
// consumed the update.
func (d *Dispatcher) Dispatch(c telebot.Context) (bool, error) {
	if d == nil || d.wizards == nil || c == nil || c.Sender() == nil {
		return false, nil
	}

	msg := c.Message()
	if msg == nil {
		return false, nil
	}

	return d.wizards.Handle(handlers.Ctx(c), InputFromMessage(c.Sender().ID, msg), handlers.AdminFrom(c), handlers.TranslatorFrom(c))
}

// DispatchCallback feeds an inline button press to the sender's wizard.
func (d *Dispatcher) DispatchCallback(c telebot.Context) (bool, error) {
	if d == nil || d.wizards == nil || c == nil || c.Sender() == nil {
		return false, nil
	}

	cb := c.Callback()
	if cb == nil {
		return false, nil
	}

	unique, data, err := keyboard.DecodeCallback(cb.Data)
	if err != nil {
		d.log.Debug("undecodable callback", slog.String("data", cb.Data), slog.Any("error", err))
		return false, nil
	}

	messageID := 0
	if cb.Message != nil {
		messageID = cb.Message.ID
	}

	return d.wizards.HandleCallback(handlers.Ctx(c), wizard.Callback{
		OwnerID:   c.Sender().ID,
		MessageID: messageID,
		Unique:    unique,
		Data:      data,
	}, handlers.AdminFrom(c), handlers.TranslatorFrom(c))
}

// InputFromMessage extracts the parts of msg the wizards consume. Photos
// resolve to their largest size.
func InputFromMessage(ownerID int64, msg *telebot.Message) wizard.Input {
	in := wizard.Input{
		OwnerID:   ownerID,
		MessageID: msg.ID,
		Text:      msg.Text,
		Caption:   msg.Caption,
	}
	if msg.Photo != nil {
		in.PhotoID = msg.Photo.FileID
	}
	if msg.Video != nil {
		in.VideoID = msg.Video.FileID
	}
	return in
}
