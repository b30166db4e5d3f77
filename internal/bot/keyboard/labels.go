package keyboard

// Admin panel labels. Handlers match incoming text against them.
const (
	BtnCancel = "❌ Bekor qilish"
	BtnBack   = "🔙 Orqaga"
	BtnSkip   = "Next"
	BtnFinish = "✅ Tugatish"
	BtnYes    = "✅ Ha"
	BtnNo     = "❌ Yo'q"

	BtnUploadMovie    = "🎬 Kino yuklash"
	BtnUploadSerial   = "📺 Serial yuklash"
	BtnNewSerial      = "🆕 Yangi serial yaratish"
	BtnAddEpisodes    = "➕ Mavjud kino/serialga qism qo'shish"
	BtnAttachVideo    = "📹 Kinoga video biriktirish"
	BtnFields         = "📁 Fieldlar"
	BtnAddField       = "➕ Field qo'shish"
	BtnListFields     = "📋 Fieldlar ro'yxati"
	BtnMandatory      = "📢 Majburiy kanallar"
	BtnAddMandatory   = "➕ Majburiy kanal qo'shish"
	BtnChannelHistory = "📊 Tarixni ko'rish"
	BtnAllChannels    = "📋 Hammasini ko'rish"
	BtnSearchByLink   = "🔍 Link bo'yicha qidirish"
	BtnDatabase       = "💾 Database kanallar"
	BtnAddDatabase    = "➕ Database kanal qo'shish"
	BtnPayments       = "💳 To'lovlar"
	BtnNewPayments    = "📥 Yangi to'lovlar"
	BtnApproved       = "✅ Tasdiqlangan"
	BtnRejected       = "❌ Rad etilgan"
	BtnPaymentStats   = "📊 To'lov statistikasi"
	BtnPremiumBanned  = "🚫 Premium banned users"
	BtnUnbanPremium   = "♻️ Premium banni olib tashlash"
	BtnUsers          = "👥 Barcha foydalanuvchilar"
	BtnBlockUser      = "🚫 Foydalanuvchini bloklash"
	BtnUnblockUser    = "✅ Blokdan ochish"
	BtnStatistics     = "📊 Statistika"
	BtnBroadcast      = "📣 Reklama yuborish"
	BtnAdmins         = "👥 Adminlar"
	BtnSettings       = "⚙️ Sozlamalar"
	BtnDeleteContent  = "🗑️ Kontent o'chirish"

	BtnPublicChannel   = "🌐 Public kanal"
	BtnPrivateChannel  = "🔒 Private kanal"
	BtnExternalChannel = "🔗 Boshqa link"
	BtnUnlimited       = "♾️ Cheksiz"
	BtnLimited         = "🔢 Limitli"

	BtnRoleAdmin      = "👤 ADMIN"
	BtnRoleManager    = "👔 MANAGER"
	BtnRoleSuperAdmin = "⭐ SUPERADMIN"

	BtnDuration30  = "30 kun (1 oy)"
	BtnDuration90  = "90 kun (3 oy)"
	BtnDuration180 = "180 kun (6 oy)"
	BtnDuration365 = "365 kun (1 yil)"

	BtnReasonBadReceipt = "Noto'g'ri chek"
	BtnReasonNoMoney    = "Pul tushmagan"
	BtnReasonOther      = "Boshqa sabab"
)

// Callback uniques.
const (
	CbCheckSubscription = "chk_sub"
	CbBuyPremium        = "buy_prem"
	CbLanguage          = "lang"
	CbApprovePayment    = "pay_ok"
	CbRejectPayment     = "pay_no"
	CbConfirmBlock      = "blk_ok"
	CbConfirmUnblock    = "unblk_ok"
	CbConfirmUnban      = "unban_ok"
	CbConfirmDelete     = "del_ok"
	CbCancelAction      = "act_cancel"
	CbBroadcastAudience = "bcast"
	CbPremiereFieldSend = "prem_field"
	CbPremiereUsersSend = "prem_users"
	CbDeleteField       = "del_field"
	CbDeleteMandatory   = "del_mand"
	CbDeleteDatabase    = "del_db"
	CbDeleteAdmin       = "del_admin"
	CbAddAdmin          = "add_admin"
	CbEditPrices        = "edit_prices"
	CbEditCard          = "edit_card"
	CbEditContact       = "edit_contact"
	CbChannelsPage      = "ch_page"
	CbUsersPage         = "usr_page"
	CbEpisode           = "ep"
	CbMoveChannel       = "ch_mv"
	CbPremiere          = "premiere"
)
