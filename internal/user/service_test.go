package user

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
)

type fakeRepo struct {
	users   map[int64]*domain.User
	nextID  int64
	findErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (r *fakeRepo) add(u domain.User) *domain.User {
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = &u
	return &u
}

func (r *fakeRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) FindByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	username = strings.TrimPrefix(username, "@")
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) Create(_ context.Context, user *domain.User) error {
	created := r.add(*user)
	user.ID = created.ID
	return nil
}

func (r *fakeRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdateLanguage(_ context.Context, telegramID int64, lang string) error {
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			u.LanguageCode = lang
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeRepo) SetBlocked(_ context.Context, id int64, blocked bool, reason string) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsBlocked = blocked
	u.BlockReason = reason
	return nil
}

func (r *fakeRepo) GrantPremium(context.Context, int64, time.Time) error { return nil }

func (r *fakeRepo) RecordRejection(context.Context, int64, int) (int, bool, error) {
	return 0, false, nil
}

func (r *fakeRepo) UnbanPremium(_ context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsPremiumBanned = false
	u.PremiumBanCount = 0
	return nil
}

func (r *fakeRepo) ExpirePremiums(context.Context, time.Time) ([]domain.User, error) { return nil, nil }

func (r *fakeRepo) ListReachable(context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if !u.IsBlocked {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPremiumBanned(context.Context) ([]domain.User, error) { return nil, nil }

func (r *fakeRepo) List(_ context.Context, limit, offset int) ([]domain.User, int, error) {
	return nil, len(r.users), nil
}

func (r *fakeRepo) Statistics(context.Context, time.Time) (domain.UserStatistics, error) {
	return domain.UserStatistics{TotalUsers: len(r.users)}, nil
}

func newTestService(t *testing.T, repo *fakeRepo) *Service {
	t.Helper()

	locales, err := i18n.Load("", "uz")
	require.NoError(t, err)

	return NewService(repo, locales, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOrCreate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, &telebot.User{ID: 77, FirstName: "Ali", LanguageCode: "ru-RU", IsPremium: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ru", created.LanguageCode)
	assert.True(t, created.HasTelegramPremium)

	again, err := svc.GetOrCreate(ctx, &telebot.User{ID: 77, FirstName: "Vali", Username: "vali"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Vali", repo.users[created.ID].FirstName)
	assert.False(t, repo.users[created.ID].HasTelegramPremium)
	assert.Len(t, repo.users, 1)

	_, err = svc.GetOrCreate(ctx, nil)
	assert.Error(t, err)
}

func TestGetOrCreateUnsupportedLanguage(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	created, err := svc.GetOrCreate(context.Background(), &telebot.User{ID: 5, LanguageCode: "de"})
	require.NoError(t, err)
	assert.Equal(t, "uz", created.LanguageCode)
}

func TestGetOrCreateDatabaseFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestService(t, repo)

	_, err := svc.GetOrCreate(context.Background(), &telebot.User{ID: 5})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabase))
}

func TestLookup(t *testing.T) {
	repo := newFakeRepo()
	repo.add(domain.User{TelegramID: 1001, Username: "Kinoman"})
	svc := newTestService(t, repo)
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		found    bool
		errCheck func(error) bool
	}{
		{name: "telegram id", query: "1001", found: true},
		{name: "username case insensitive", query: "@kinoman", found: true},
		{name: "unknown id", query: "999", errCheck: apperrors.IsNotFound},
		{name: "unknown username", query: "@nobody", errCheck: apperrors.IsNotFound},
		{name: "garbage", query: "abc", errCheck: apperrors.IsValidation},
		{name: "empty", query: "  ", errCheck: apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Lookup(ctx, tt.query)
			if tt.found {
				require.NoError(t, err)
				assert.Equal(t, int64(1001), user.TelegramID)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.errCheck(err), "unexpected error: %v", err)
		})
	}
}

func TestModeration(t *testing.T) {
	repo := newFakeRepo()
	u := repo.add(domain.User{TelegramID: 1, IsPremiumBanned: true, PremiumBanCount: 2})
	svc := newTestService(t, repo)
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, u.ID, "spam"))
	assert.True(t, repo.users[u.ID].IsBlocked)
	assert.Equal(t, "spam", repo.users[u.ID].BlockReason)

	reachable, err := svc.ListReachable(ctx)
	require.NoError(t, err)
	assert.Empty(t, reachable)

	require.NoError(t, svc.Unblock(ctx, u.ID))
	assert.False(t, repo.users[u.ID].IsBlocked)

	require.NoError(t, svc.UnbanPremium(ctx, u.ID))
	assert.False(t, repo.users[u.ID].IsPremiumBanned)
	assert.Zero(t, repo.users[u.ID].PremiumBanCount)

	assert.True(t, apperrors.IsNotFound(svc.Block(ctx, 404, "x")))
}

func TestLanguageAndTranslator(t *testing.T) {
	repo := newFakeRepo()
	repo.add(domain.User{TelegramID: 9, LanguageCode: "uz"})
	svc := newTestService(t, repo)
	ctx := context.Background()

	assert.True(t, apperrors.IsValidation(svc.SetLanguage(ctx, 9, "de")))
	require.NoError(t, svc.SetLanguage(ctx, 9, "en"))
	assert.Equal(t, "en", svc.TranslatorFor(ctx, 9).Lang())
	assert.Equal(t, "uz", svc.TranslatorFor(ctx, 12345).Lang())
}
