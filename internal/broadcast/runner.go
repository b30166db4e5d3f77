// Package broadcast delivers one admin message to a resolved set of users.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/state"
)

// DefaultProgressEvery is how many successful sends separate two progress reports.
const DefaultProgressEvery = 50

// AudienceSource lists the users of an audience.
type AudienceSource interface {
	Recipients(ctx context.Context, audience state.Audience) ([]domain.User, error)
}

// SendFunc delivers the broadcast to one recipient.
type SendFunc func(ctx context.Context, recipient domain.User) error

// ProgressFunc observes the running counters.
type ProgressFunc func(ctx context.Context, progress Progress)

// Progress is a snapshot of a running broadcast.
type Progress struct {
	Sent   int
	Failed int
	Total  int
}

// Report is the final outcome of a broadcast.
type Report struct {
	ID       string
	Audience state.Audience
	Sent     int
	Failed   int
	Total    int
	Duration time.Duration
}

// Options tunes a Runner.
type Options struct {
	Pacer         PacerFactory
	ProgressEvery int
	MaxAttempts   int
}

// Runner sends broadcasts sequentially, isolating per-recipient failures.
type Runner struct {
	users         AudienceSource
	log           *slog.Logger
	pacer         PacerFactory
	progressEvery int
	retry         apperrors.RetryPolicy
	recorder      func(sent bool)
}

func NewRunner(users AudienceSource, log *slog.Logger, opts Options) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if opts.Pacer == nil {
		opts.Pacer = Fixed(DefaultDelay)
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &Runner{
		users:         users,
		log:           log,
		pacer:         opts.Pacer,
		progressEvery: opts.ProgressEvery,
		retry:         apperrors.TelegramDelivery(opts.MaxAttempts),
		recorder: func(bool) {},
	}
}

// OnDelivery registers a hook called after every recipient.
func (r *Runner) OnDelivery(fn func(sent bool)) {
	if fn == nil {
		fn = func(bool) {}
	}
	r.recorder = fn
}

// Run resolves the audience once and delivers send to every recipient. A
// failing recipient is counted and skipped. Run only fails when the audience
// cannot be resolved or ctx is cancelled; the partial report is returned
// either way.
func (r *Runner) Run(ctx context.Context, audience state.Audience, send SendFunc, progress ProgressFunc) (Report, error) {
	report := Report{ID: uuid.NewString(), Audience: audience}
	started := time.Now()
	log := r.log.With(slog.String("broadcast_id", report.ID), slog.String("audience", string(audience)))

	if !audience.Valid() {
		return report, fmt.Errorf("unknown broadcast audience %q", audience)
	}

	recipients, err := r.users.Recipients(ctx, audience)
	if err != nil {
		return report, fmt.Errorf("resolve broadcast audience: %w", err)
	}
	report.Total = len(recipients)
	log.Info("broadcast started", slog.Int("total", report.Total))

	pacer := r.pacer()
	for _, recipient := range recipients {
		if err := pacer.Wait(ctx); err != nil {
			report.Duration = time.Since(started)
			log.Warn("broadcast interrupted", slog.Int("sent", report.Sent), slog.Int("failed", report.Failed), slog.Any("error", err))
			return report, err
		}

		recipient := recipient
		err := apperrors.Retry(ctx, r.retry, func() error {
			return send(ctx, recipient)
		})
		if err != nil {
			report.Failed++
			r.recorder(false)
			log.Debug("broadcast delivery failed", slog.Int64("telegram_id", recipient.TelegramID), slog.Any("error", err))
			continue
		}

		report.Sent++
		r.recorder(true)
		if progress != nil && report.Sent%r.progressEvery == 0 {
			progress(ctx, Progress{Sent: report.Sent, Failed: report.Failed, Total: report.Total})
		}
	}

	report.Duration = time.Since(started)
	log.Info("broadcast finished",
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}
