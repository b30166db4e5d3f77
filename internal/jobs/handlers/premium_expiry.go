package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/jobs"
	"github.com/Proton-105/kino-bot/internal/wizard"
	"github.com/Proton-105/kino-bot/pkg/metrics"
)

// PremiumExpirer revokes ended premium subscriptions.
type PremiumExpirer interface {
	ExpirePremiums(ctx context.Context) ([]domain.User, error)
}

type PremiumExpiryHandler struct {
	users   PremiumExpirer
	msg     wizard.Messenger
	locales *i18n.Manager
	log     *slog.Logger
}

func NewPremiumExpiryHandler(users PremiumExpirer, msg wizard.Messenger, locales *i18n.Manager, log *slog.Logger) *PremiumExpiryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PremiumExpiryHandler{users: users, msg: msg, locales: locales, log: log}
}

func (h *PremiumExpiryHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload := jobs.PremiumExpiryPayload{Notify: true}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			h.log.ErrorContext(ctx, "premium expiry: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
			return err
		}
	}

	expired, err := h.users.ExpirePremiums(ctx)
	if err != nil {
		return err
	}
	metrics.RecordPremiumExpired(len(expired))
	if len(expired) == 0 {
		return nil
	}

	h.log.InfoContext(ctx, "premium subscriptions expired", slog.Int("count", len(expired)))
	if !payload.Notify || h.msg == nil {
		return nil
	}

	for _, u := range expired {
		text := h.locales.Translator(u.LanguageCode).T("premium.expired")
		if _, err := h.msg.Send(ctx, wizard.UserChat(u.TelegramID), text, nil); err != nil {
			h.log.WarnContext(ctx, "premium expiry: notify failed", slog.Int64("telegram_id", u.TelegramID), slog.Any("error", err))
		}
	}
	return nil
}
