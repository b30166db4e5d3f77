package keyboard

import (
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
)

type menuEntry struct {
	label string
	perm  domain.Permission
}

var adminMenu = [][]menuEntry{
	{{BtnUploadMovie, domain.PermContent}, {BtnUploadSerial, domain.PermContent}},
	{{BtnAttachVideo, domain.PermContent}, {BtnFields, domain.PermContent}},
	{{BtnMandatory, domain.PermChannels}, {BtnDatabase, domain.PermChannels}},
	{{BtnPayments, domain.PermPayments}, {BtnUsers, domain.PermUsers}},
	{{BtnStatistics, domain.PermStatistics}, {BtnBroadcast, domain.PermBroadcast}},
	{{BtnAdmins, domain.PermAdmins}, {BtnSettings, domain.PermSettings}},
	{{BtnDeleteContent, domain.PermDeleteContent}},
}

// AdminMenu builds the admin panel keeping only the entries admin may use.
func AdminMenu(admin *domain.Admin) *Markup {
	rows := make([][]string, 0, len(adminMenu))
	for _, entries := range adminMenu {
		row := make([]string, 0, len(entries))
		for _, entry := range entries {
			if admin.Can(entry.perm) {
				row = append(row, entry.label)
			}
		}
		rows = append(rows, row)
	}
	return ReplyRows(rows...)
}

// Cancel is the single cancel button shown during wizards.
func Cancel() *Markup {
	return ReplyRows([]string{BtnCancel})
}

// WithCancel appends the cancel button under rows.
func WithCancel(rows ...[]string) *Markup {
	return ReplyRows(append(rows, []string{BtnCancel})...)
}

// SerialMenu offers the two serial entry paths.
func SerialMenu() *Markup {
	return ReplyRows([]string{BtnNewSerial}, []string{BtnAddEpisodes}, []string{BtnBack})
}

func FieldsMenu() *Markup {
	return ReplyRows([]string{BtnAddField, BtnListFields}, []string{BtnBack})
}

func MandatoryMenu() *Markup {
	return ReplyRows(
		[]string{BtnAddMandatory, BtnAllChannels},
		[]string{BtnChannelHistory, BtnSearchByLink},
		[]string{BtnBack},
	)
}

func DatabaseMenu() *Markup {
	return ReplyRows([]string{BtnAddDatabase}, []string{BtnBack})
}

func PaymentsMenu() *Markup {
	return ReplyRows(
		[]string{BtnNewPayments},
		[]string{BtnApproved, BtnRejected},
		[]string{BtnPaymentStats, BtnPremiumBanned},
		[]string{BtnUnbanPremium},
		[]string{BtnBack},
	)
}

func UsersMenu() *Markup {
	return ReplyRows([]string{BtnBlockUser, BtnUnblockUser}, []string{BtnBack})
}

// UserMenu is the public main menu. The premium entry is hidden from
// premium users.
func UserMenu(t i18n.Translator, premium bool) *Markup {
	rows := [][]string{{translated(t, "menu.search", "🔍 Kino kodi bo'yicha qidirish")}}
	if !premium {
		rows = append(rows, []string{translated(t, "menu.premium", "💎 Premium sotib olish")})
	}
	rows = append(rows,
		[]string{translated(t, "menu.about", "ℹ️ Bot haqida"), translated(t, "menu.profile", "👤 Profil")},
		[]string{translated(t, "menu.contact", "📞 Aloqa"), translated(t, "menu.language", "🌐 Til")},
	)
	return ReplyRows(rows...)
}

// LanguageMenu lists the supported interface languages.
func LanguageMenu() *Markup {
	return NewInlineKeyboard().AddRow(
		InlineButton{Text: "🇺🇿 O'zbekcha", Unique: CbLanguage, Data: "uz"},
		InlineButton{Text: "🇷🇺 Русский", Unique: CbLanguage, Data: "ru"},
	).AddRow(
		InlineButton{Text: "🇬🇧 English", Unique: CbLanguage, Data: "en"},
	).MustBuild()
}

// ConfirmCancel builds a confirm button carrying id plus a cancel button.
func ConfirmCancel(confirmText, unique string, id int64) *Markup {
	return NewInlineKeyboard().AddRow(
		InlineButton{Text: confirmText, Unique: unique, Data: IDPayload(id)},
		InlineButton{Text: BtnCancel, Unique: CbCancelAction},
	).MustBuild()
}
