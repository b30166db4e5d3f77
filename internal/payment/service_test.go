package payment

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/repository"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type fakePayments struct {
	payments map[int64]*domain.Payment
}

func (p *fakePayments) Create(_ context.Context, payment *domain.Payment) error {
	payment.ID = int64(len(p.payments) + 1)
	payment.Status = domain.PaymentPending
	copied := *payment
	p.payments[payment.ID] = &copied
	return nil
}

func (p *fakePayments) FindByID(_ context.Context, id int64) (*domain.Payment, error) {
	if payment, ok := p.payments[id]; ok {
		copied := *payment
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (p *fakePayments) Resolve(_ context.Context, id int64, status domain.PaymentStatus, by int64, days int, reason string) (*domain.Payment, error) {
	payment, ok := p.payments[id]
	if !ok || payment.Status != domain.PaymentPending {
		return nil, sql.ErrNoRows
	}
	payment.Status = status
	payment.ProcessedBy = &by
	payment.RejectionReason = reason
	if days > 0 {
		payment.DurationDays = days
	}
	copied := *payment
	return &copied, nil
}

func (p *fakePayments) ListPending(context.Context, int) ([]domain.Payment, error) { return nil, nil }

func (p *fakePayments) ListByUser(context.Context, int64, int) ([]domain.Payment, error) {
	return nil, nil
}

func (p *fakePayments) ListByStatus(_ context.Context, status domain.PaymentStatus, _ int) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, payment := range p.payments {
		if payment.Status == status {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (p *fakePayments) Statistics(context.Context) (domain.PaymentStatistics, error) {
	return domain.PaymentStatistics{TotalPayments: len(p.payments)}, nil
}

type fakeUsers struct {
	repository.UserRepository
	users map[int64]*domain.User
}

func (u *fakeUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if user, ok := u.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (u *fakeUsers) FindByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	for _, user := range u.users {
		if user.TelegramID == telegramID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (u *fakeUsers) GrantPremium(_ context.Context, id int64, until time.Time) error {
	u.users[id].IsPremium = true
	u.users[id].PremiumExpiresAt = &until
	return nil
}

func (u *fakeUsers) RecordRejection(_ context.Context, id int64, banAt int) (int, bool, error) {
	user := u.users[id]
	user.PremiumBanCount++
	if user.PremiumBanCount >= banAt {
		user.IsPremiumBanned = true
	}
	return user.PremiumBanCount, user.IsPremiumBanned, nil
}

func (u *fakeUsers) ExpirePremiums(_ context.Context, now time.Time) ([]domain.User, error) {
	var expired []domain.User
	for _, user := range u.users {
		if user.IsPremium && user.PremiumExpiresAt != nil && !user.PremiumExpiresAt.After(now) {
			user.IsPremium = false
			expired = append(expired, *user)
		}
	}
	return expired, nil
}

func newTestService() (*Service, *fakePayments, *fakeUsers) {
	payments := &fakePayments{payments: make(map[int64]*domain.Payment)}
	users := &fakeUsers{users: map[int64]*domain.User{
		1: {ID: 1, TelegramID: 1001, FirstName: "Ali"},
		2: {ID: 2, TelegramID: 1002, IsPremiumBanned: true},
	}}
	svc := NewService(payments, users, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc, payments, users
}

func TestSubmit(t *testing.T) {
	svc, payments, _ := newTestService()
	ctx := context.Background()

	payment, err := svc.Submit(ctx, 1001, 25000, 30, "receipt")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, payment.Status)
	assert.Equal(t, int64(1), payment.UserID)
	assert.Len(t, payments.payments, 1)

	_, err = svc.Submit(ctx, 1002, 25000, 30, "receipt")
	assert.True(t, apperrors.IsValidation(err), "banned users cannot submit")

	_, err = svc.Submit(ctx, 9999, 25000, 30, "receipt")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Submit(ctx, 1001, 0, 30, "receipt")
	assert.True(t, apperrors.IsValidation(err))
}

func TestApproveExtendsActivePremium(t *testing.T) {
	svc, _, users := newTestService()
	ctx := context.Background()

	expires := testNow.Add(10 * 24 * time.Hour)
	users.users[1].IsPremium = true
	users.users[1].PremiumExpiresAt = &expires

	payment, err := svc.Submit(ctx, 1001, 25000, 30, "receipt")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, payment.ID, 42, 90)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentApproved, approved.Status)
	assert.Equal(t, 90, approved.DurationDays)
	assert.Equal(t, testNow.Add(100*24*time.Hour), *users.users[1].PremiumExpiresAt)

	_, err = svc.Approve(ctx, payment.ID, 42, 30)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeState), "second approval must fail")

	_, err = svc.Approve(ctx, 404, 42, 30)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Approve(ctx, payment.ID, 42, 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPremiumUntil(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(48 * time.Hour)

	tests := []struct {
		name string
		user domain.User
		want time.Time
	}{
		{name: "no premium", user: domain.User{}, want: testNow.Add(30 * 24 * time.Hour)},
		{name: "expired", user: domain.User{IsPremium: true, PremiumExpiresAt: &past}, want: testNow.Add(30 * 24 * time.Hour)},
		{name: "active", user: domain.User{IsPremium: true, PremiumExpiresAt: &future}, want: future.Add(30 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PremiumUntil(&tt.user, testNow, 30))
		})
	}
}

func TestRejectBansOnSecondRejection(t *testing.T) {
	svc, _, users := newTestService()
	ctx := context.Background()

	first, err := svc.Submit(ctx, 1001, 25000, 30, "r1")
	require.NoError(t, err)
	outcome, err := svc.Reject(ctx, first.ID, 42, "Chek noto'g'ri")
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.BanCount)
	assert.False(t, outcome.Banned)
	assert.Equal(t, "Chek noto'g'ri", outcome.Payment.RejectionReason)

	second, err := svc.Submit(ctx, 1001, 25000, 30, "r2")
	require.NoError(t, err)
	outcome, err = svc.Reject(ctx, second.ID, 42, "Pul tushmagan")
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.BanCount)
	assert.True(t, outcome.Banned)
	assert.True(t, users.users[1].IsPremiumBanned)

	_, err = svc.Reject(ctx, second.ID, 42, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestExpirePremiums(t *testing.T) {
	svc, _, users := newTestService()
	past := testNow.Add(-time.Minute)
	users.users[1].IsPremium = true
	users.users[1].PremiumExpiresAt = &past

	expired, err := svc.ExpirePremiums(context.Background())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1001), expired[0].TelegramID)
	assert.False(t, users.users[1].IsPremium)
}
