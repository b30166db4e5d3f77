// Package subscription enforces mandatory channel membership before a user
// may use the bot.
package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// Telegram chat member statuses.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

// Membership is the answer of a chat member lookup.
type Membership struct {
	Status   string
	IsMember bool
}

// Subscribed reports whether the membership counts as joined.
func (m Membership) Subscribed() bool {
	switch m.Status {
	case StatusCreator, StatusAdministrator, StatusMember:
		return true
	case StatusRestricted:
		return m.IsMember
	default:
		return false
	}
}

// MembershipChecker queries live chat membership.
type MembershipChecker interface {
	ChatMember(ctx context.Context, chatID string, userID int64) (Membership, error)
}

// ChannelStore is the persistence the gate needs for mandatory channels.
type ChannelStore interface {
	// ListActive returns active channels ordered by their display order.
	ListActive(ctx context.Context) ([]domain.MandatoryChannel, error)
	// FindActiveByChatID returns the active channel with the Telegram chat id or nil.
	FindActiveByChatID(ctx context.Context, chatID string) (*domain.MandatoryChannel, error)
	// RecordMember stores that userID joined the channel and reports whether
	// this is the first confirmation for the pair.
	RecordMember(ctx context.Context, channelID, userID int64) (bool, error)
	// IncrementMembers bumps current_members and deactivates the channel when
	// the member limit is reached.
	IncrementMembers(ctx context.Context, channelID int64) (*domain.MandatoryChannel, error)
	IncrementPendingRequests(ctx context.Context, channelID int64) error
	DecrementPendingRequests(ctx context.Context, channelID int64) error
}

// Result is the outcome of a subscription check.
type Result struct {
	CanAccess bool
	// Unsubscribed lists Telegram channels the user still has to join.
	Unsubscribed []domain.MandatoryChannel
	// Recommended lists External channels. They never block access.
	Recommended []domain.MandatoryChannel
}

// Missing returns the channels to show the user, Telegram channels first.
func (r Result) Missing() []domain.MandatoryChannel {
	missing := make([]domain.MandatoryChannel, 0, len(r.Unsubscribed)+len(r.Recommended))
	missing = append(missing, r.Unsubscribed...)
	return append(missing, r.Recommended...)
}

type verdict int

const (
	unsubscribed verdict = iota
	confirmed
	provisional
)

// Gate checks users against the active mandatory channels.
type Gate struct {
	channels ChannelStore
	checker  MembershipChecker
	cache    RequestCache
	log      *slog.Logger
	now      func() time.Time
	recorder func(passed bool)
}

// NewGate creates a Gate.
func NewGate(channels ChannelStore, checker MembershipChecker, cache RequestCache, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}

	return &Gate{
		channels: channels,
		checker:  checker,
		cache:    cache,
		log:      log,
		now:      time.Now,
		recorder: func(bool) {},
	}
}

// OnCheck registers a hook called with the outcome of every check.
func (g *Gate) OnCheck(fn func(passed bool)) {
	if fn == nil {
		fn = func(bool) {}
	}
	g.recorder = fn
}

// Check evaluates userID against every active mandatory channel. Only a
// failure to list the channels is returned as an error; membership lookup
// failures count as not subscribed.
func (g *Gate) Check(ctx context.Context, userID int64) (Result, error) {
	channels, err := g.channels.ListActive(ctx)
	if err != nil {
		return Result{}, err
	}

	now := g.now()
	result := Result{}
	var joined []domain.MandatoryChannel

	for _, ch := range channels {
		if ch.IsExternal() {
			result.Recommended = append(result.Recommended, ch)
			continue
		}

		switch g.verify(ctx, ch, userID, now) {
		case confirmed:
			joined = append(joined, ch)
		case provisional:
		default:
			result.Unsubscribed = append(result.Unsubscribed, ch)
		}
	}

	result.CanAccess = len(result.Unsubscribed) == 0
	g.recorder(result.CanAccess)

	if result.CanAccess {
		for _, ch := range joined {
			g.settle(ctx, ch, userID, now)
		}
	}

	return result, nil
}

func (g *Gate) verify(ctx context.Context, ch domain.MandatoryChannel, userID int64, now time.Time) verdict {
	membership, err := g.checker.ChatMember(ctx, ch.ChannelID, userID)
	if err != nil {
		g.log.Debug("membership lookup failed",
			slog.Int64("user_id", userID),
			slog.String("chat_id", ch.ChannelID),
			slog.Any("error", err),
		)
		return unsubscribed
	}

	if membership.Subscribed() {
		return confirmed
	}

	if ch.Type != domain.ChannelPrivate {
		return unsubscribed
	}

	pending, err := g.cache.Has(ctx, userID, ch.ChannelID, now)
	if err != nil {
		g.log.Warn("join request lookup failed", slog.Int64("user_id", userID), slog.String("chat_id", ch.ChannelID), slog.Any("error", err))
		return unsubscribed
	}
	if pending {
		return provisional
	}

	return unsubscribed
}

// settle applies the counters for a channel the user is confirmed to have joined.
func (g *Gate) settle(ctx context.Context, ch domain.MandatoryChannel, userID int64, now time.Time) {
	log := g.log.With(slog.Int64("user_id", userID), slog.Int64("channel_id", ch.ID))

	fresh, err := g.channels.RecordMember(ctx, ch.ID, userID)
	if err != nil {
		log.Error("failed to record channel member", slog.Any("error", err))
	} else if fresh {
		updated, err := g.channels.IncrementMembers(ctx, ch.ID)
		if err != nil {
			log.Error("failed to increment channel members", slog.Any("error", err))
		} else if updated != nil && !updated.IsActive {
			log.Info("mandatory channel reached member limit and was deactivated", slog.Int("members", updated.CurrentMembers))
		}
	}

	if ch.Type != domain.ChannelPrivate {
		return
	}

	pending, err := g.cache.Has(ctx, userID, ch.ChannelID, now)
	if err != nil || !pending {
		return
	}

	removed, err := g.cache.Remove(ctx, userID, ch.ChannelID)
	if err != nil {
		log.Error("failed to remove join request", slog.Any("error", err))
		return
	}
	if !removed {
		return
	}

	if err := g.channels.DecrementPendingRequests(ctx, ch.ID); err != nil {
		log.Error("failed to decrement pending requests", slog.Any("error", err))
	}
}

// HandleJoinRequest records a chat join request. Repeats within the dedupe
// window are ignored; otherwise the matching channel's pending counter grows.
func (g *Gate) HandleJoinRequest(ctx context.Context, userID int64, chatID string) error {
	fresh, err := g.cache.Add(ctx, userID, chatID, g.now())
	if err != nil {
		return err
	}
	if !fresh {
		g.log.Debug("duplicate join request ignored", slog.Int64("user_id", userID), slog.String("chat_id", chatID))
		return nil
	}

	ch, err := g.channels.FindActiveByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	if ch == nil {
		return nil
	}

	return g.channels.IncrementPendingRequests(ctx, ch.ID)
}

// PruneRequests drops stale join requests.
func (g *Gate) PruneRequests(ctx context.Context) (int, error) {
	return g.cache.Prune(ctx, g.now())
}
