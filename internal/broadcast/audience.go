package broadcast

import (
	"context"
	"time"

	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/state"
)

// UserLister returns every user that may receive messages.
type UserLister interface {
	ListReachable(ctx context.Context) ([]domain.User, error)
}

// ListSource resolves audiences by filtering the full user list.
type ListSource struct {
	users UserLister
	now   func() time.Time
}

func NewListSource(users UserLister) *ListSource {
	return &ListSource{users: users, now: time.Now}
}

func (s *ListSource) Recipients(ctx context.Context, audience state.Audience) ([]domain.User, error) {
	users, err := s.users.ListReachable(ctx)
	if err != nil {
		return nil, err
	}

	return Select(users, audience, s.now()), nil
}

// Select keeps the users that belong to audience. Blocked users are never selected.
func Select(users []domain.User, audience state.Audience, now time.Time) []domain.User {
	selected := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.IsBlocked {
			continue
		}

		premium := u.HasActivePremium(now)
		switch audience {
		case state.AudienceAll:
		case state.AudiencePremium:
			if !premium {
				continue
			}
		case state.AudienceFree:
			if premium {
				continue
			}
		case state.AudienceTelegramPremium:
			if !u.HasTelegramPremium {
				continue
			}
		default:
			continue
		}

		selected = append(selected, u)
	}

	return selected
}
