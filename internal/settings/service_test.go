package settings

import (
	"context"
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

type fakeRepo struct {
	settings domain.Settings
	loads    int
}

func (r *fakeRepo) Get(context.Context) (*domain.Settings, error) {
	r.loads++
	copied := r.settings
	return &copied, nil
}

func (r *fakeRepo) UpdatePrices(_ context.Context, prices domain.PremiumPrices) error {
	r.settings.Prices = prices
	return nil
}

func (r *fakeRepo) UpdateCard(_ context.Context, card domain.CardInfo) error {
	r.settings.Card = card
	return nil
}

func (r *fakeRepo) UpdateText(_ context.Context, field repository.SettingsText, value string) error {
	switch field {
	case repository.SettingContactMessage:
		r.settings.ContactMessage = value
	case repository.SettingAboutBot:
		r.settings.AboutBot = value
	}
	return nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := &fakeRepo{settings: domain.Settings{Prices: domain.PremiumPrices{Monthly: 25000, Quarterly: 65000, HalfYear: 120000, Yearly: 200000}}}
	return NewService(repo, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestSettingsAreCachedUntilUpdate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Settings(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.loads)

	require.NoError(t, svc.UpdateContactMessage(ctx, "Admin: @support"))
	current, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Admin: @support", current.ContactMessage)
	assert.Equal(t, 2, repo.loads)
}

func TestSettingsCacheExpires(t *testing.T) {
	svc, repo := newTestService()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Settings(context.Background())
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = svc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
}

func TestUpdateValidation(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		ok   bool
	}{
		{name: "prices", run: func() error {
			return svc.UpdatePrices(ctx, domain.PremiumPrices{Monthly: 30000, Quarterly: 80000, HalfYear: 150000, Yearly: 250000})
		}, ok: true},
		{name: "zero price", run: func() error {
			return svc.UpdatePrices(ctx, domain.PremiumPrices{Monthly: 30000})
		}},
		{name: "card", run: func() error {
			return svc.UpdateCard(ctx, domain.CardInfo{Number: "8600 1234 5678 9012", Holder: "ALI VALIYEV"})
		}, ok: true},
		{name: "short card", run: func() error {
			return svc.UpdateCard(ctx, domain.CardInfo{Number: "8600 1234", Holder: "ALI"})
		}},
		{name: "card without holder", run: func() error {
			return svc.UpdateCard(ctx, domain.CardInfo{Number: "8600123456789012"})
		}},
		{name: "empty about", run: func() error {
			return svc.UpdateText(ctx, repository.SettingAboutBot, "  ")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	assert.Equal(t, int64(30000), repo.settings.Prices.Monthly)
	assert.Equal(t, "ALI VALIYEV", repo.settings.Card.Holder)
}
