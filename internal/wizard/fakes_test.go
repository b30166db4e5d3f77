package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
)

type sentMessage struct {
	kind   string
	to     Chat
	from   Chat
	text   string
	fileID string
	markup *keyboard.Markup
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edits    []string
	chats    map[Chat]ChatInfo
	statuses map[Chat]string
	failTo   map[Chat]error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		chats:    make(map[Chat]ChatInfo),
		statuses: make(map[Chat]string),
		failTo:   make(map[Chat]error),
	}
}

func (m *fakeMessenger) record(msg sentMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failTo[msg.to]; err != nil {
		return 0, err
	}
	m.nextID++
	m.sent = append(m.sent, msg)
	return m.nextID, nil
}

func (m *fakeMessenger) Send(_ context.Context, to Chat, text string, markup *keyboard.Markup) (int, error) {
	return m.record(sentMessage{kind: "text", to: to, text: text, markup: markup})
}

func (m *fakeMessenger) SendPhoto(_ context.Context, to Chat, fileID, caption string, markup *keyboard.Markup) (int, error) {
	return m.record(sentMessage{kind: "photo", to: to, fileID: fileID, text: caption, markup: markup})
}

func (m *fakeMessenger) SendVideo(_ context.Context, to Chat, fileID, caption string, markup *keyboard.Markup) (int, error) {
	return m.record(sentMessage{kind: "video", to: to, fileID: fileID, text: caption, markup: markup})
}

func (m *fakeMessenger) Copy(_ context.Context, to, from Chat, _ int, markup *keyboard.Markup) (int, error) {
	return m.record(sentMessage{kind: "copy", to: to, from: from, markup: markup})
}

func (m *fakeMessenger) Edit(_ context.Context, _ Chat, _ int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, text)
	return nil
}

func (m *fakeMessenger) ChatInfo(_ context.Context, chat Chat) (ChatInfo, error) {
	info, ok := m.chats[chat]
	if !ok {
		return ChatInfo{}, errors.New("chat not found")
	}
	return info, nil
}

func (m *fakeMessenger) BotStatus(_ context.Context, chat Chat) (string, error) {
	status, ok := m.statuses[chat]
	if !ok {
		return "", errors.New("chat not found")
	}
	return status, nil
}

func (m *fakeMessenger) BotUsername() string { return "kino_test_bot" }

func (m *fakeMessenger) to(chat Chat) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []sentMessage
	for _, msg := range m.sent {
		if msg.to == chat {
			out = append(out, msg)
		}
	}
	return out
}

func (m *fakeMessenger) last(chat Chat) sentMessage {
	msgs := m.to(chat)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

type fakeContent struct {
	movies     map[int]*domain.Movie
	serials    map[int]*domain.Serial
	newMovies  []domain.NewMovie
	newSerials []domain.NewSerial
	added      []domain.NewEpisode
	attached   map[int64]string
	posters    map[int64]int
	deleted    []int64
	nextID     int64
	createErr  error
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		movies:   make(map[int]*domain.Movie),
		serials:  make(map[int]*domain.Serial),
		attached: make(map[int64]string),
		posters:  make(map[int64]int),
		nextID:   100,
	}
}

func (c *fakeContent) taken(code int) bool {
	_, movie := c.movies[code]
	_, serial := c.serials[code]
	return movie || serial
}

func (c *fakeContent) IsCodeAvailable(_ context.Context, code int) (bool, error) {
	return !c.taken(code), nil
}

func (c *fakeContent) NearestAvailableCodes(_ context.Context, code, limit int) ([]int, error) {
	var out []int
	for candidate := code + 1; len(out) < limit; candidate++ {
		if !c.taken(candidate) {
			out = append(out, candidate)
		}
	}
	return out, nil
}

func (c *fakeContent) MovieByCode(_ context.Context, code int) (*domain.Movie, error) {
	movie, ok := c.movies[code]
	if !ok {
		return nil, apperrors.NewNotFoundError("movie", "not found")
	}
	return movie, nil
}

func (c *fakeContent) SerialByCode(_ context.Context, code int) (*domain.Serial, error) {
	serial, ok := c.serials[code]
	if !ok {
		return nil, apperrors.NewNotFoundError("serial", "not found")
	}
	return serial, nil
}

func (c *fakeContent) CreateMovie(_ context.Context, movie domain.NewMovie) (*domain.Movie, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.newMovies = append(c.newMovies, movie)
	c.nextID++
	created := &domain.Movie{ID: c.nextID, Code: movie.Code, Title: movie.Title, Genre: movie.Genre, VideoFileID: movie.VideoFileID}
	c.movies[movie.Code] = created
	return created, nil
}

func (c *fakeContent) CreateSerial(_ context.Context, serial domain.NewSerial) (*domain.Serial, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.newSerials = append(c.newSerials, serial)
	c.nextID++
	created := &domain.Serial{ID: c.nextID, Code: serial.Code, Title: serial.Title, TotalEpisodes: len(serial.Episodes)}
	c.serials[serial.Code] = created
	return created, nil
}

func (c *fakeContent) AddEpisodes(_ context.Context, _ domain.ContentKind, _ int64, episodes []domain.NewEpisode) error {
	c.added = append(c.added, episodes...)
	return nil
}

func (c *fakeContent) AttachVideo(_ context.Context, movieID int64, videoFileID string, _ []domain.ChannelMessage) error {
	c.attached[movieID] = videoFileID
	return nil
}

func (c *fakeContent) SetPosterMessage(_ context.Context, _ domain.ContentKind, contentID int64, messageID int) error {
	c.posters[contentID] = messageID
	return nil
}

func (c *fakeContent) Delete(_ context.Context, _ domain.ContentKind, contentID int64) error {
	c.deleted = append(c.deleted, contentID)
	return nil
}

type fakeFields struct {
	fields []domain.Field
	added  []domain.Field
}

func (f *fakeFields) ListFields(context.Context) ([]domain.Field, error) { return f.fields, nil }

func (f *fakeFields) FieldByID(_ context.Context, id int64) (*domain.Field, error) {
	for i := range f.fields {
		if f.fields[i].ID == id {
			return &f.fields[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError("field", "not found")
}

func (f *fakeFields) CreateField(_ context.Context, field domain.Field) (*domain.Field, error) {
	field.ID = int64(len(f.fields) + 1)
	f.added = append(f.added, field)
	return &field, nil
}

type fakeChannels struct {
	database  []domain.DatabaseChannel
	createdDB []domain.DatabaseChannel
	mandatory []domain.MandatoryChannel
}

func (c *fakeChannels) ActiveDatabaseChannels(context.Context) ([]domain.DatabaseChannel, error) {
	return c.database, nil
}

func (c *fakeChannels) CreateDatabaseChannel(_ context.Context, ch domain.DatabaseChannel) (*domain.DatabaseChannel, error) {
	c.createdDB = append(c.createdDB, ch)
	return &ch, nil
}

func (c *fakeChannels) CreateMandatoryChannel(_ context.Context, ch domain.MandatoryChannel) (*domain.MandatoryChannel, error) {
	ch.ID = int64(len(c.mandatory) + 1)
	c.mandatory = append(c.mandatory, ch)
	return &ch, nil
}

func (c *fakeChannels) MandatoryByLink(_ context.Context, link string) (*domain.MandatoryChannel, error) {
	for i := range c.mandatory {
		if c.mandatory[i].ChannelLink == link {
			return &c.mandatory[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError("channel", "not found")
}

type fakeAdmins struct {
	admins []domain.Admin
}

func (a *fakeAdmins) AdminByTelegramID(_ context.Context, id int64) (*domain.Admin, error) {
	for i := range a.admins {
		if a.admins[i].TelegramID == id {
			return &a.admins[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError("admin", "not found")
}

func (a *fakeAdmins) AddAdmin(_ context.Context, admin domain.Admin) (*domain.Admin, error) {
	admin.ID = int64(len(a.admins) + 1)
	a.admins = append(a.admins, admin)
	return &admin, nil
}

func (a *fakeAdmins) ListAdmins(context.Context) ([]domain.Admin, error) { return a.admins, nil }

type fakeSettings struct {
	settings domain.Settings
}

func (s *fakeSettings) Settings(context.Context) (*domain.Settings, error) {
	copied := s.settings
	return &copied, nil
}

func (s *fakeSettings) UpdatePrices(_ context.Context, prices domain.PremiumPrices) error {
	s.settings.Prices = prices
	return nil
}

func (s *fakeSettings) UpdateCard(_ context.Context, card domain.CardInfo) error {
	s.settings.Card = card
	return nil
}

func (s *fakeSettings) UpdateContactMessage(_ context.Context, text string) error {
	s.settings.ContactMessage = text
	return nil
}

type fakePayments struct {
	payments  map[int64]*domain.Payment
	banCounts map[int64]int
	submitted []domain.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{payments: make(map[int64]*domain.Payment), banCounts: make(map[int64]int)}
}

func (p *fakePayments) Submit(_ context.Context, userID, amount int64, days int, receipt string) (*domain.Payment, error) {
	payment := domain.Payment{
		ID:             int64(len(p.submitted) + 1),
		UserTelegramID: userID,
		Amount:         amount,
		DurationDays:   days,
		ReceiptFileID:  receipt,
		Status:         domain.PaymentPending,
	}
	p.submitted = append(p.submitted, payment)
	return &payment, nil
}

func (p *fakePayments) Approve(_ context.Context, paymentID, adminID int64, days int) (*domain.Payment, error) {
	payment, ok := p.payments[paymentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("payment", "not found")
	}
	if payment.Status != domain.PaymentPending {
		return nil, apperrors.NewStateError("payment already processed")
	}
	payment.Status = domain.PaymentApproved
	payment.DurationDays = days
	payment.ProcessedBy = &adminID
	return payment, nil
}

func (p *fakePayments) Reject(_ context.Context, paymentID, adminID int64, reason string) (*domain.RejectionOutcome, error) {
	payment, ok := p.payments[paymentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("payment", "not found")
	}
	payment.Status = domain.PaymentRejected
	payment.RejectionReason = reason
	payment.ProcessedBy = &adminID
	p.banCounts[payment.UserTelegramID]++
	count := p.banCounts[payment.UserTelegramID]
	return &domain.RejectionOutcome{Payment: payment, BanCount: count, Banned: count >= 2}, nil
}

type fakeUsers struct {
	users    []domain.User
	blocked  []int64
	unbanned []int64
}

func (u *fakeUsers) ListReachable(context.Context) ([]domain.User, error) { return u.users, nil }

func (u *fakeUsers) Lookup(_ context.Context, query string) (*domain.User, error) {
	for i := range u.users {
		user := &u.users[i]
		if "@"+user.Username == query || fmt.Sprint(user.TelegramID) == query {
			return user, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user", "not found")
}

func (u *fakeUsers) Block(_ context.Context, userID int64, _ string) error {
	u.blocked = append(u.blocked, userID)
	return nil
}

func (u *fakeUsers) Unblock(context.Context, int64) error { return nil }

func (u *fakeUsers) UnbanPremium(_ context.Context, userID int64) error {
	u.unbanned = append(u.unbanned, userID)
	return nil
}

type fakeTranslator struct{}

func (fakeTranslator) T(key string) string { return key }

func (fakeTranslator) TData(key string, data map[string]any) string {
	return fmt.Sprintf("%s %v", key, data)
}

func (fakeTranslator) Lang() string { return "uz" }

var _ i18n.Translator = fakeTranslator{}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
