package bot

import telebot "gopkg.in/telebot.v3"

// Command constants for Telegram bot commands.
const (
	CommandStart   = "/start"
	CommandAdmin   = "/admin"
	CommandCancel  = "/cancel"
	CommandProfile = "/profile"
	CommandLang    = "/lang"
	CommandHelp    = "/help"
)

// Commands is the menu published with SetCommands.
var Commands = []telebot.Command{
	{Text: "start", Description: "Botni ishga tushirish"},
	{Text: "profile", Description: "Profil"},
	{Text: "lang", Description: "Tilni o'zgartirish"},
	{Text: "cancel", Description: "Amalni bekor qilish"},
	{Text: "help", Description: "Yordam"},
}
