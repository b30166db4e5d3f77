package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/broadcast"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/state"
)

const ownerID int64 = 42

var superAdmin = &domain.Admin{ID: 1, TelegramID: ownerID, Role: domain.RoleSuperAdmin}

type harness struct {
	d        *Dispatcher
	machine  *state.Machine
	msg      *fakeMessenger
	content  *fakeContent
	fields   *fakeFields
	channels *fakeChannels
	admins   *fakeAdmins
	settings *fakeSettings
	payments *fakePayments
	users    *fakeUsers
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := testLogger()
	h := &harness{
		machine: state.NewMachine(state.NewMemoryStorage(), log),
		msg:     newFakeMessenger(),
		content: newFakeContent(),
		fields: &fakeFields{fields: []domain.Field{
			{ID: 1, Name: "Action", ChannelID: "-100500", ChannelLink: "https://t.me/action", IsActive: true},
			{ID: 2, Name: "Drama", ChannelID: "-100501", ChannelLink: "https://t.me/drama", IsActive: true},
		}},
		channels: &fakeChannels{database: []domain.DatabaseChannel{
			{ID: 1, ChannelID: "-100900", IsActive: true},
			{ID: 2, ChannelID: "-100901", IsActive: true},
		}},
		admins:   &fakeAdmins{admins: []domain.Admin{*superAdmin}},
		settings: &fakeSettings{settings: domain.Settings{Card: domain.CardInfo{Number: "8600 0000 0000 0000", Holder: "Test"}}},
		payments: newFakePayments(),
		users:    &fakeUsers{},
	}

	runner := broadcast.NewRunner(broadcast.NewListSource(h.users), log, broadcast.Options{Pacer: broadcast.Fixed(0)})
	h.d = NewDispatcher(h.machine, h.msg, Deps{
		Content:     h.content,
		Fields:      h.fields,
		Channels:    h.channels,
		Admins:      h.admins,
		Settings:    h.settings,
		Payments:    h.payments,
		Users:       h.users,
		Broadcaster: runner,
	}, nil, log)

	return h
}

func (h *harness) begin(t *testing.T, w state.Wizard) {
	t.Helper()
	require.NoError(t, h.d.Begin(context.Background(), ownerID, superAdmin, fakeTranslator{}, w))
}

func (h *harness) input(t *testing.T, in Input) bool {
	t.Helper()
	if in.OwnerID == 0 {
		in.OwnerID = ownerID
	}
	handled, err := h.d.Handle(context.Background(), in, superAdmin, fakeTranslator{})
	require.NoError(t, err)
	return handled
}

func (h *harness) text(t *testing.T, texts ...string) {
	t.Helper()
	for _, text := range texts {
		require.True(t, h.input(t, Input{Text: text}), "input %q was not handled", text)
	}
}

func (h *harness) callback(t *testing.T, unique, data string) bool {
	t.Helper()
	handled, err := h.d.HandleCallback(context.Background(), Callback{OwnerID: ownerID, Unique: unique, Data: data}, superAdmin, fakeTranslator{})
	require.NoError(t, err)
	return handled
}

func (h *harness) session(t *testing.T) *state.Session {
	t.Helper()
	session, err := h.d.Active(context.Background(), ownerID)
	require.NoError(t, err)
	return session
}

func (h *harness) lastReply() string {
	return h.msg.last(UserChat(ownerID)).text
}

func TestHandle_NoSessionIsNotHandled(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.input(t, Input{Text: "hello"}))
	assert.Empty(t, h.msg.sent)
}

func TestHandle_CancelClearsSession(t *testing.T) {
	for _, text := range []string{keyboard.BtnCancel, "/cancel"} {
		t.Run(text, func(t *testing.T) {
			h := newHarness(t)
			h.begin(t, &state.MovieWizard{})
			h.text(t, "123")

			h.text(t, text)

			assert.Nil(t, h.session(t))
			assert.Equal(t, msgCancelled, h.lastReply())
		})
	}
}

func TestMovieFlow_CreatesMovie(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.MovieWizard{})

	h.text(t, "123", "Inception", "Sci-fi", "Next", "1")
	require.True(t, h.input(t, Input{PhotoID: "poster-1"}))
	require.True(t, h.input(t, Input{VideoID: "video-1"}))

	require.Len(t, h.content.newMovies, 1)
	movie := h.content.newMovies[0]
	assert.Equal(t, 123, movie.Code)
	assert.Equal(t, "Inception", movie.Title)
	assert.Nil(t, movie.Description)
	assert.Equal(t, int64(1), movie.FieldID)
	assert.Equal(t, "video-1", movie.VideoFileID)
	assert.Len(t, movie.VideoMessages, 2)
	assert.NotZero(t, movie.ChannelMessageID)

	posters := h.msg.to("-100500")
	require.Len(t, posters, 1)
	require.True(t, posters[0].markup.IsInline())
	assert.Equal(t, "https://t.me/kino_test_bot?start=123", posters[0].markup.Inline[0][0].URL)

	assert.Len(t, h.msg.to("-100900"), 1)
	assert.Len(t, h.msg.to("-100901"), 1)
	assert.Nil(t, h.session(t))
}

func TestMovieFlow_CodeValidation(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(c *fakeContent)
		input    string
		contains []string
	}{
		{
			name:     "not numeric",
			input:    "abc",
			contains: []string{"faqat raqamlardan"},
		},
		{
			name: "taken by movie",
			prepare: func(c *fakeContent) {
				c.movies[123] = &domain.Movie{ID: 1, Code: 123, Title: "Old"}
				c.movies[124] = &domain.Movie{ID: 2, Code: 124, Title: "Older"}
			},
			input:    "123",
			contains: []string{"123 kodi band", "125", "126", "129"},
		},
		{
			name: "taken by serial",
			prepare: func(c *fakeContent) {
				c.serials[77] = &domain.Serial{ID: 1, Code: 77, Title: "Breaking"}
			},
			input:    "77",
			contains: []string{"Breaking"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.prepare != nil {
				tt.prepare(h.content)
			}
			h.begin(t, &state.MovieWizard{})

			h.text(t, tt.input)

			for _, fragment := range tt.contains {
				assert.Contains(t, h.lastReply(), fragment)
			}
			session := h.session(t)
			require.NotNil(t, session)
			assert.Equal(t, int(state.MovieStepCode), session.Step())
		})
	}
}

func TestMovieFlow_DescriptionIsKept(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.MovieWizard{})

	h.text(t, "5", "Title", "Genre", "A long story")

	session := h.session(t)
	require.NotNil(t, session)
	w := session.Wizard.(*state.MovieWizard)
	require.NotNil(t, w.Description)
	assert.Equal(t, "A long story", *w.Description)
	assert.Len(t, w.Fields, 2)
	assert.Equal(t, int(state.MovieStepField), session.Step())
}

func TestMovieFlow_InvalidFieldIndex(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.MovieWizard{})

	h.text(t, "5", "Title", "Genre", "Next", "3")

	assert.Contains(t, h.lastReply(), "Noto'g'ri raqam")
	assert.Equal(t, int(state.MovieStepField), h.session(t).Step())
}

func TestMovieFlow_UnexpectedErrorClearsSession(t *testing.T) {
	h := newHarness(t)
	h.content.createErr = errors.New("connection refused")
	h.begin(t, &state.MovieWizard{})

	h.text(t, "9", "Title", "Genre", "Next", "1")
	h.input(t, Input{PhotoID: "poster"})
	h.input(t, Input{VideoID: "video"})

	assert.Nil(t, h.session(t))
	assert.Contains(t, h.lastReply(), "Xatolik yuz berdi")
}

func TestMovieFlow_NoDatabaseChannels(t *testing.T) {
	h := newHarness(t)
	h.channels.database = nil
	h.begin(t, &state.MovieWizard{})

	h.text(t, "9", "Title", "Genre", "Next", "1")
	h.input(t, Input{PhotoID: "poster"})
	h.input(t, Input{VideoID: "video"})

	assert.Empty(t, h.content.newMovies)
	assert.Nil(t, h.session(t))
	assert.Equal(t, msgNoDatabase, h.lastReply())
}

func TestAttachVideo_NotFoundKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.AttachVideoWizard{})

	h.text(t, "999")

	assert.Contains(t, h.lastReply(), "topilmadi")
	session := h.session(t)
	require.NotNil(t, session)
	assert.Equal(t, state.StateAttachingVideo, session.State())
}

func TestAttachVideo_Attaches(t *testing.T) {
	h := newHarness(t)
	h.content.movies[15] = &domain.Movie{ID: 150, Code: 15, Title: "Silent"}
	h.begin(t, &state.AttachVideoWizard{})

	h.text(t, "15")
	h.input(t, Input{VideoID: "video-15"})

	assert.Equal(t, "video-15", h.content.attached[150])
	assert.Nil(t, h.session(t))
}

func TestSerialFlow_CreatesSerialWithEpisodes(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.SerialWizard{})

	h.text(t, "55", "Dark", "Thriller", "Next", "2")
	h.input(t, Input{PhotoID: "poster"})

	h.text(t, keyboard.BtnFinish)
	assert.Equal(t, msgNeedEpisode, h.lastReply())
	assert.Equal(t, int(state.SerialStepUploadingEpisodes), h.session(t).Step())

	h.input(t, Input{VideoID: "ep-1"})
	h.input(t, Input{VideoID: "ep-2"})
	h.text(t, keyboard.BtnFinish)
	assert.Equal(t, int(state.SerialStepPublish), h.session(t).Step())

	h.text(t, keyboard.BtnNo)

	require.Len(t, h.content.newSerials, 1)
	serial := h.content.newSerials[0]
	require.Len(t, serial.Episodes, 2)
	assert.Equal(t, 1, serial.Episodes[0].EpisodeNumber)
	assert.Equal(t, 2, serial.Episodes[1].EpisodeNumber)
	assert.Len(t, serial.Episodes[0].VideoMessages, 2)
	assert.Empty(t, h.msg.to("-100501"))
	assert.Nil(t, h.session(t))
}

func TestSerialFlow_PublishesPoster(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.SerialWizard{})

	h.text(t, "56", "Dark", "Thriller", "Next", "2")
	h.input(t, Input{PhotoID: "poster"})
	h.input(t, Input{VideoID: "ep-1"})
	h.text(t, keyboard.BtnFinish, keyboard.BtnYes)

	posters := h.msg.to("-100501")
	require.Len(t, posters, 1)
	assert.Equal(t, "https://t.me/kino_test_bot?start=s56", posters[0].markup.Inline[0][0].URL)
	assert.Len(t, h.content.posters, 1)
}

func TestSerialFlow_AddEpisodesContinuesNumbering(t *testing.T) {
	h := newHarness(t)
	h.content.serials[10] = &domain.Serial{ID: 7, Code: 10, Title: "Long", TotalEpisodes: 3}
	h.begin(t, &state.SerialWizard{Mode: state.SerialModeAddEpisodes})

	h.text(t, "10")
	h.input(t, Input{VideoID: "ep-4"})
	h.input(t, Input{VideoID: "ep-5"})
	h.text(t, keyboard.BtnFinish)

	require.Len(t, h.content.added, 2)
	assert.Equal(t, 4, h.content.added[0].EpisodeNumber)
	assert.Equal(t, 5, h.content.added[1].EpisodeNumber)
	assert.Nil(t, h.session(t))
}

func TestMandatoryChannelFlow_Private(t *testing.T) {
	h := newHarness(t)
	h.msg.chats["-100777"] = ChatInfo{ID: "-100777", Title: "Secret"}
	h.msg.statuses["-100777"] = "administrator"
	h.begin(t, &state.MandatoryChannelWizard{})

	h.text(t, keyboard.BtnPrivateChannel, "https://t.me/+abcdef")
	assert.True(t, h.session(t).Wizard.(*state.MandatoryChannelWizard).AwaitingPrivateID)

	h.text(t, "-100777", keyboard.BtnLimited, "50")

	require.Len(t, h.channels.mandatory, 1)
	ch := h.channels.mandatory[0]
	assert.Equal(t, domain.ChannelPrivate, ch.Type)
	assert.Equal(t, "-100777", ch.ChannelID)
	assert.Equal(t, "https://t.me/+abcdef", ch.ChannelLink)
	assert.Equal(t, "Secret", ch.ChannelName)
	require.NotNil(t, ch.MemberLimit)
	assert.Equal(t, 50, *ch.MemberLimit)
	assert.Nil(t, h.session(t))
}

func TestMandatoryChannelFlow_PublicRequiresBotAdmin(t *testing.T) {
	h := newHarness(t)
	h.msg.chats["@movies"] = ChatInfo{ID: "-100321", Title: "Movies", Username: "movies"}
	h.msg.statuses["@movies"] = "member"
	h.begin(t, &state.MandatoryChannelWizard{})

	h.text(t, keyboard.BtnPublicChannel, "https://t.me/movies")

	assert.Equal(t, msgBotNotAdmin, h.lastReply())
	assert.Equal(t, int(state.MandatoryChannelStepLink), h.session(t).Step())

	h.msg.statuses["@movies"] = "administrator"
	h.text(t, "https://t.me/movies", keyboard.BtnUnlimited)

	require.Len(t, h.channels.mandatory, 1)
	assert.Equal(t, "-100321", h.channels.mandatory[0].ChannelID)
	assert.Nil(t, h.channels.mandatory[0].MemberLimit)
}

func TestMandatoryChannelFlow_External(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.MandatoryChannelWizard{})

	h.text(t, keyboard.BtnExternalChannel, "Instagram", "https://instagram.com/page")

	require.Len(t, h.channels.mandatory, 1)
	ch := h.channels.mandatory[0]
	assert.Equal(t, domain.ChannelExternal, ch.Type)
	assert.Equal(t, "https://instagram.com/page", ch.ChannelID)
	assert.Equal(t, "Instagram", ch.ChannelName)
}

func TestChannelSearch(t *testing.T) {
	h := newHarness(t)
	h.channels.mandatory = []domain.MandatoryChannel{{ID: 1, ChannelName: "News", ChannelLink: "https://t.me/news", Type: domain.ChannelPublic, IsActive: true}}
	h.begin(t, &state.ChannelSearchWizard{})

	h.text(t, "https://t.me/unknown")
	assert.NotNil(t, h.session(t))

	h.text(t, "https://t.me/news")
	assert.Contains(t, h.lastReply(), "News")
	assert.Nil(t, h.session(t))
}

func TestPricesFlow(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.PricesWizard{})

	h.text(t, "abc")
	assert.Equal(t, int(state.PricesStepMonthly), h.session(t).Step())

	h.text(t, "25000", "65 000", "120000", "200000")

	assert.Equal(t, domain.PremiumPrices{Monthly: 25000, Quarterly: 65000, HalfYear: 120000, Yearly: 200000}, h.settings.settings.Prices)
	assert.Nil(t, h.session(t))
}

func TestCardFlow(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.CardWizard{})

	h.text(t, "8600123412341234", "Ali Valiyev")

	assert.Equal(t, domain.CardInfo{Number: "8600 1234 1234 1234", Holder: "Ali Valiyev"}, h.settings.settings.Card)
}

func TestAdminFlow(t *testing.T) {
	h := newHarness(t)
	h.begin(t, &state.AdminWizard{})

	h.text(t, "42")
	assert.Contains(t, h.lastReply(), "allaqachon admin")

	h.text(t, "777", keyboard.BtnRoleManager)

	require.Len(t, h.admins.admins, 2)
	added := h.admins.admins[1]
	assert.Equal(t, int64(777), added.TelegramID)
	assert.Equal(t, domain.RoleManager, added.Role)
	require.NotNil(t, added.CreatedBy)
	assert.Equal(t, ownerID, *added.CreatedBy)
}

func TestRejectPayment_CustomReasonAndBan(t *testing.T) {
	h := newHarness(t)
	h.payments.payments[5] = &domain.Payment{ID: 5, UserTelegramID: 900, Amount: 25000, Status: domain.PaymentPending}
	h.payments.banCounts[900] = 1
	h.begin(t, &state.RejectPaymentWizard{PaymentRef: state.PaymentRef{PaymentID: 5, UserID: 900, Amount: 25000}})

	h.text(t, keyboard.BtnReasonOther)
	assert.True(t, h.session(t).Wizard.(*state.RejectPaymentWizard).AwaitingCustomReason)

	h.text(t, "Soxta chek")

	assert.Equal(t, "Soxta chek", h.payments.payments[5].RejectionReason)
	notices := h.msg.to(UserChat(900))
	require.Len(t, notices, 2)
	assert.Contains(t, notices[0].text, "premium.rejected")
	assert.Equal(t, "premium.banned_notice", notices[1].text)
	assert.Nil(t, h.session(t))
}

func TestRejectPayment_PresetReason(t *testing.T) {
	h := newHarness(t)
	h.payments.payments[6] = &domain.Payment{ID: 6, UserTelegramID: 901, Status: domain.PaymentPending}
	h.begin(t, &state.RejectPaymentWizard{PaymentRef: state.PaymentRef{PaymentID: 6}})

	h.text(t, keyboard.BtnReasonNoMoney)

	assert.Equal(t, ReasonNoMoney, h.payments.payments[6].RejectionReason)
	assert.Len(t, h.msg.to(UserChat(901)), 1)
}

func TestApprovePayment(t *testing.T) {
	h := newHarness(t)
	h.payments.payments[7] = &domain.Payment{ID: 7, UserTelegramID: 902, Status: domain.PaymentPending}
	h.begin(t, &state.ApprovePaymentWizard{PaymentRef: state.PaymentRef{PaymentID: 7}})

	h.text(t, keyboard.BtnDuration90)

	assert.Equal(t, domain.PaymentApproved, h.payments.payments[7].Status)
	assert.Equal(t, 90, h.payments.payments[7].DurationDays)
	assert.Len(t, h.msg.to(UserChat(902)), 1)
	assert.Nil(t, h.session(t))
}

func TestApprovePayment_AlreadyProcessed(t *testing.T) {
	h := newHarness(t)
	h.payments.payments[8] = &domain.Payment{ID: 8, UserTelegramID: 903, Status: domain.PaymentRejected}
	h.begin(t, &state.ApprovePaymentWizard{PaymentRef: state.PaymentRef{PaymentID: 8}})

	h.text(t, "45")

	assert.Nil(t, h.session(t))
	assert.Contains(t, h.lastReply(), "hozirgi holatda")
	assert.Empty(t, h.msg.to(UserChat(903)))
}

func TestReceiptFlow(t *testing.T) {
	h := newHarness(t)
	const buyer int64 = 700
	ctx := context.Background()
	require.NoError(t, h.d.Begin(ctx, buyer, nil, fakeTranslator{}, &state.ReceiptWizard{Months: 1, DurationDays: 30, Amount: 25000}))
	assert.Contains(t, h.msg.last(UserChat(buyer)).text, "premium.payment_details")

	handled, err := h.d.Handle(ctx, Input{OwnerID: buyer, Text: "paid"}, nil, fakeTranslator{})
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, "premium.receipt_expected", h.msg.last(UserChat(buyer)).text)

	handled, err = h.d.Handle(ctx, Input{OwnerID: buyer, PhotoID: "receipt"}, nil, fakeTranslator{})
	require.NoError(t, err)
	require.True(t, handled)

	require.Len(t, h.payments.submitted, 1)
	assert.Equal(t, int64(25000), h.payments.submitted[0].Amount)
	review := h.msg.last(UserChat(ownerID))
	assert.Equal(t, "photo", review.kind)
	assert.Equal(t, "receipt", review.fileID)
	assert.Equal(t, keyboard.CbApprovePayment+":1", review.markup.Inline[0][0].Data)

	session, err := h.d.Active(ctx, buyer)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestBlockUserFlow(t *testing.T) {
	h := newHarness(t)
	h.users.users = []domain.User{{ID: 3, TelegramID: 300, Username: "bob", FirstName: "Bob"}}
	h.begin(t, &state.BlockUserWizard{})

	h.text(t, "bob!")
	assert.Contains(t, h.lastReply(), "Noto'g'ri format")

	h.text(t, "@nobody")
	assert.Contains(t, h.lastReply(), "topilmadi")

	h.text(t, "@bob")
	assert.Equal(t, int(state.ModerationStepConfirm), h.session(t).Step())

	assert.True(t, h.callback(t, keyboard.CbConfirmBlock, "3"))
	assert.Equal(t, []int64{3}, h.users.blocked)
	assert.Nil(t, h.session(t))
}

func TestUnbanPremiumRequiresBan(t *testing.T) {
	h := newHarness(t)
	h.users.users = []domain.User{{ID: 4, TelegramID: 400}}
	h.begin(t, &state.UnbanPremiumWizard{})

	h.text(t, "400")

	assert.Contains(t, h.lastReply(), "chetlatilmagan")
	assert.Equal(t, int(state.ModerationStepLookup), h.session(t).Step())
}

func TestDeleteContent(t *testing.T) {
	t.Run("not found ends the wizard", func(t *testing.T) {
		h := newHarness(t)
		h.begin(t, &state.DeleteContentWizard{})

		h.text(t, "m5")

		assert.Contains(t, h.lastReply(), "topilmadi")
		assert.Nil(t, h.session(t))
	})

	t.Run("bad format keeps the wizard", func(t *testing.T) {
		h := newHarness(t)
		h.begin(t, &state.DeleteContentWizard{})

		h.text(t, "x5")

		assert.NotNil(t, h.session(t))
	})

	t.Run("confirmed delete", func(t *testing.T) {
		h := newHarness(t)
		h.content.serials[5] = &domain.Serial{ID: 55, Code: 5, Title: "Gone"}
		h.begin(t, &state.DeleteContentWizard{})

		h.text(t, "S5")
		confirm := h.msg.last(UserChat(ownerID)).markup
		require.True(t, confirm.IsInline())
		_, data, err := keyboard.DecodeCallback(confirm.Inline[0][0].Data)
		require.NoError(t, err)

		assert.True(t, h.callback(t, keyboard.CbConfirmDelete, data))
		assert.Equal(t, []int64{55}, h.content.deleted)
		assert.Nil(t, h.session(t))
	})
}

func TestBroadcastFlow(t *testing.T) {
	h := newHarness(t)
	h.users.users = []domain.User{
		{ID: 1, TelegramID: 1001},
		{ID: 2, TelegramID: 1002},
		{ID: 3, TelegramID: 1003, IsBlocked: true},
	}
	h.begin(t, &state.BroadcastWizard{Audience: state.AudienceAll})

	h.input(t, Input{Text: "Yangi kino!", MessageID: 9})

	assert.Len(t, h.msg.to(UserChat(1001)), 1)
	assert.Len(t, h.msg.to(UserChat(1002)), 1)
	assert.Empty(t, h.msg.to(UserChat(1003)))
	assert.Contains(t, h.lastReply(), "Yuborildi: 2")
	assert.Nil(t, h.session(t))
}

func TestBroadcastFlow_UnknownAudienceAborts(t *testing.T) {
	h := newHarness(t)

	h.begin(t, &state.BroadcastWizard{Audience: "VIP"})

	assert.Nil(t, h.session(t))
	assert.Contains(t, h.lastReply(), "Xatolik")
}

func TestPremiereFlow(t *testing.T) {
	h := newHarness(t)
	h.content.movies[100] = &domain.Movie{ID: 10, Code: 100, Title: "Premiere", PosterFileID: "poster-100", FieldID: 1}
	h.users.users = []domain.User{{ID: 1, TelegramID: 1001}}
	h.begin(t, &state.PremiereWizard{})

	h.text(t, "100")
	assert.Equal(t, int(state.PremiereStepConfirm), h.session(t).Step())

	assert.True(t, h.callback(t, keyboard.CbPremiereFieldSend, ""))

	assert.Len(t, h.msg.to("-100500"), 1)
	delivered := h.msg.to(UserChat(1001))
	require.Len(t, delivered, 1)
	assert.Equal(t, "poster-100", delivered[0].fileID)
	assert.True(t, strings.HasPrefix(delivered[0].text, "🎉"))
	assert.Nil(t, h.session(t))
}

func TestCallback_WithoutSessionIsNotHandled(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.callback(t, keyboard.CbConfirmBlock, "3"))
}

func TestParseContentCode(t *testing.T) {
	tests := []struct {
		input string
		kind  domain.ContentKind
		code  int
		ok    bool
	}{
		{"123", domain.ContentMovie, 123, true},
		{"m12", domain.ContentMovie, 12, true},
		{"S200", domain.ContentSerial, 200, true},
		{"s0", "", 0, false},
		{"x1", "", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, code, ok := ParseContentCode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.code, code)
		})
	}
}
