package handlers

import (
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

// reviewPayment starts the approve or reject flow for the pressed payment.
func (d Deps) reviewPayment(approve bool) CallbackHandler {
	return func(c telebot.Context) error {
		id, ok := callbackID(c)
		if !ok {
			d.answer(c, "", false)
			return nil
		}

		p, err := d.Payments.Payment(Ctx(c), id)
		if err != nil {
			d.answer(c, "", false)
			return err
		}
		if p.Status != domain.PaymentPending {
			d.answer(c, "⚠️ Bu to'lov allaqachon ko'rib chiqilgan.", true)
			return nil
		}

		d.answer(c, "", false)
		ref := state.PaymentRef{PaymentID: p.ID, UserID: p.UserTelegramID, Amount: p.Amount}
		if approve {
			return d.begin(c, &state.ApprovePaymentWizard{PaymentRef: ref})
		}
		return d.begin(c, &state.RejectPaymentWizard{PaymentRef: ref})
	}
}

func (d Deps) startBroadcast(c telebot.Context) error {
	_, data := callbackData(c)
	audience := state.Audience(data)
	if !audience.Valid() {
		d.answer(c, "", false)
		return apperrors.NewValidationError("unknown broadcast audience")
	}

	d.answer(c, "", false)
	return d.begin(c, &state.BroadcastWizard{Audience: audience})
}

func (d Deps) deleteField(c telebot.Context) error {
	id, ok := callbackID(c)
	if !ok {
		d.answer(c, "", false)
		return nil
	}
	if err := d.Fields.DeleteField(Ctx(c), id); err != nil {
		d.answer(c, "", false)
		return err
	}
	d.answer(c, "✅ Field o'chirildi", false)
	return d.removeCallbackMessage(c)
}

func (d Deps) deactivateMandatory(c telebot.Context) error {
	id, ok := callbackID(c)
	if !ok {
		d.answer(c, "", false)
		return nil
	}
	if err := d.Channels.Deactivate(Ctx(c), id); err != nil {
		d.answer(c, "", false)
		return err
	}
	d.answer(c, "✅ Kanal o'chirildi", false)
	return d.removeCallbackMessage(c)
}

func (d Deps) moveMandatory(c telebot.Context) error {
	_, data := callbackData(c)
	id, delta, ok := parseMovePayload(data)
	if !ok {
		d.answer(c, "", false)
		return nil
	}
	if err := d.Channels.Move(Ctx(c), id, delta); err != nil {
		d.answer(c, "", false)
		return err
	}
	d.answer(c, "✅ Tartib o'zgartirildi", false)
	return d.listMandatory(c)
}

func (d Deps) deleteDatabase(c telebot.Context) error {
	id, ok := callbackID(c)
	if !ok {
		d.answer(c, "", false)
		return nil
	}
	if err := d.Channels.DeleteDatabaseChannel(Ctx(c), id); err != nil {
		d.answer(c, "", false)
		return err
	}
	d.answer(c, "✅ Database kanal o'chirildi", false)
	return d.removeCallbackMessage(c)
}

func (d Deps) deleteAdmin(c telebot.Context) error {
	id, ok := callbackID(c)
	if !ok {
		d.answer(c, "", false)
		return nil
	}
	if id == SenderID(c) {
		d.answer(c, "⚠️ O'zingizni o'chira olmaysiz.", true)
		return nil
	}
	if err := d.Admins.RemoveAdmin(Ctx(c), id); err != nil {
		d.answer(c, "", false)
		return err
	}
	d.answer(c, "✅ Admin o'chirildi", false)
	return d.listAdmins(c)
}

// pageCallback renders the page named by the pressed pagination button.
func (d Deps) pageCallback(render func(page int) Handler) CallbackHandler {
	return func(c telebot.Context) error {
		d.answer(c, "", false)
		_, data := callbackData(c)
		page, err := strconv.Atoi(data)
		if err != nil {
			return nil
		}
		if err := c.Delete(); err != nil {
			d.logger().Debug("failed to delete page message", "error", err)
		}
		return render(page)(c)
	}
}

func (d Deps) removeCallbackMessage(c telebot.Context) error {
	if err := c.Delete(); err != nil {
		d.logger().Debug("failed to delete callback message", "error", err)
	}
	return nil
}
