package handlers

import (
	telebot "gopkg.in/telebot.v3"

	access "github.com/Proton-105/kino-bot/internal/admin"
	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/state"
)

// AdminButton binds an admin panel label to the permission it needs.
type AdminButton struct {
	Label   string
	Perm    domain.Permission
	Handler Handler
}

// RequirePermission rejects senders lacking perm with an authorization error.
func RequirePermission(perm domain.Permission, next Handler) Handler {
	return func(c telebot.Context) error {
		if err := access.Authorize(AdminFrom(c), perm); err != nil {
			if c.Callback() != nil {
				_ = c.Respond()
			}
			return err
		}
		return next(c)
	}
}

// NewAdminHandler opens the admin panel.
func NewAdminHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		admin := AdminFrom(c)
		if admin == nil {
			return NewBackHandler(d)(c)
		}
		return d.reply(c, "👨‍💼 Admin panel", keyboard.AdminMenu(admin))
	}
}

// begin starts w for the sender.
func (d Deps) begin(c telebot.Context, w state.Wizard) error {
	return d.Wizards.Begin(Ctx(c), SenderID(c), AdminFrom(c), TranslatorFrom(c), w)
}

func (d Deps) starter(factory func() state.Wizard) Handler {
	return func(c telebot.Context) error {
		return d.begin(c, factory())
	}
}

func (d Deps) submenu(text string, markup func() *keyboard.Markup) Handler {
	return func(c telebot.Context) error {
		return d.reply(c, text, markup())
	}
}

// AdminButtons lists every admin panel label with its handler.
func AdminButtons(d Deps) []AdminButton {
	return []AdminButton{
		{keyboard.BtnUploadMovie, domain.PermContent, d.starter(func() state.Wizard { return &state.MovieWizard{} })},
		{keyboard.BtnUploadSerial, domain.PermContent, d.submenu("📺 Serial yuklash", keyboard.SerialMenu)},
		{keyboard.BtnNewSerial, domain.PermContent, d.starter(func() state.Wizard {
			return &state.SerialWizard{Mode: state.SerialModeNew}
		})},
		{keyboard.BtnAddEpisodes, domain.PermContent, d.starter(func() state.Wizard {
			return &state.SerialWizard{Mode: state.SerialModeAddEpisodes}
		})},
		{keyboard.BtnAttachVideo, domain.PermContent, d.starter(func() state.Wizard { return &state.AttachVideoWizard{} })},
		{keyboard.BtnFields, domain.PermContent, d.submenu("📁 Fieldlar", keyboard.FieldsMenu)},
		{keyboard.BtnAddField, domain.PermContent, d.starter(func() state.Wizard { return &state.FieldWizard{} })},
		{keyboard.BtnListFields, domain.PermContent, d.listFields},

		{keyboard.BtnMandatory, domain.PermChannels, d.submenu("📢 Majburiy kanallar", keyboard.MandatoryMenu)},
		{keyboard.BtnAddMandatory, domain.PermChannels, d.starter(func() state.Wizard { return &state.MandatoryChannelWizard{} })},
		{keyboard.BtnAllChannels, domain.PermChannels, d.listMandatory},
		{keyboard.BtnChannelHistory, domain.PermChannels, d.channelHistoryPage(1)},
		{keyboard.BtnSearchByLink, domain.PermChannels, d.starter(func() state.Wizard { return &state.ChannelSearchWizard{} })},
		{keyboard.BtnDatabase, domain.PermChannels, d.listDatabase},
		{keyboard.BtnAddDatabase, domain.PermChannels, d.starter(func() state.Wizard { return &state.DatabaseChannelWizard{} })},

		{keyboard.BtnPayments, domain.PermPayments, d.submenu("💳 To'lovlar", keyboard.PaymentsMenu)},
		{keyboard.BtnNewPayments, domain.PermPayments, d.pendingPayments},
		{keyboard.BtnApproved, domain.PermPayments, d.paymentsByStatus(domain.PaymentApproved)},
		{keyboard.BtnRejected, domain.PermPayments, d.paymentsByStatus(domain.PaymentRejected)},
		{keyboard.BtnPaymentStats, domain.PermPayments, d.paymentStatistics},
		{keyboard.BtnPremiumBanned, domain.PermPayments, d.premiumBanned},
		{keyboard.BtnUnbanPremium, domain.PermPayments, d.starter(func() state.Wizard { return &state.UnbanPremiumWizard{} })},

		{keyboard.BtnUsers, domain.PermUsers, d.usersPage(1)},
		{keyboard.BtnBlockUser, domain.PermUsers, d.starter(func() state.Wizard { return &state.BlockUserWizard{} })},
		{keyboard.BtnUnblockUser, domain.PermUsers, d.starter(func() state.Wizard { return &state.UnblockUserWizard{} })},

		{keyboard.BtnStatistics, domain.PermStatistics, d.statistics},
		{keyboard.BtnBroadcast, domain.PermBroadcast, d.broadcastMenu},
		{keyboard.BtnAdmins, domain.PermAdmins, d.listAdmins},
		{keyboard.BtnSettings, domain.PermSettings, d.showSettings},
		{keyboard.BtnDeleteContent, domain.PermDeleteContent, d.starter(func() state.Wizard { return &state.DeleteContentWizard{} })},
	}
}

// AdminCallback binds an admin inline button to the permission it needs.
type AdminCallback struct {
	Unique  string
	Perm    domain.Permission
	Handler CallbackHandler
}

// AdminCallbacks lists the inline buttons of the admin panel.
func AdminCallbacks(d Deps) []AdminCallback {
	return []AdminCallback{
		{keyboard.CbApprovePayment, domain.PermPayments, d.reviewPayment(true)},
		{keyboard.CbRejectPayment, domain.PermPayments, d.reviewPayment(false)},
		{keyboard.CbBroadcastAudience, domain.PermBroadcast, d.startBroadcast},
		{keyboard.CbPremiere, domain.PermBroadcast, d.callbackStarter(func() state.Wizard { return &state.PremiereWizard{} })},
		{keyboard.CbDeleteField, domain.PermContent, d.deleteField},
		{keyboard.CbDeleteMandatory, domain.PermChannels, d.deactivateMandatory},
		{keyboard.CbMoveChannel, domain.PermChannels, d.moveMandatory},
		{keyboard.CbChannelsPage, domain.PermChannels, d.pageCallback(d.channelHistoryPage)},
		{keyboard.CbDeleteDatabase, domain.PermChannels, d.deleteDatabase},
		{keyboard.CbUsersPage, domain.PermUsers, d.pageCallback(d.usersPage)},
		{keyboard.CbAddAdmin, domain.PermAdmins, d.callbackStarter(func() state.Wizard { return &state.AdminWizard{} })},
		{keyboard.CbDeleteAdmin, domain.PermAdmins, d.deleteAdmin},
		{keyboard.CbEditPrices, domain.PermSettings, d.callbackStarter(func() state.Wizard { return &state.PricesWizard{} })},
		{keyboard.CbEditCard, domain.PermSettings, d.callbackStarter(func() state.Wizard { return &state.CardWizard{} })},
		{keyboard.CbEditContact, domain.PermSettings, d.callbackStarter(func() state.Wizard { return &state.ContactMessageWizard{} })},
	}
}

func (d Deps) callbackStarter(factory func() state.Wizard) CallbackHandler {
	return func(c telebot.Context) error {
		d.answer(c, "", false)
		return d.begin(c, factory())
	}
}
