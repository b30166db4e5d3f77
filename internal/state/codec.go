package state

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the stored form of a Session. Data is decoded into the wizard
// registered for State.
type envelope struct {
	OwnerID   int64           `json:"owner_id"`
	State     State           `json:"state"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func encodeSession(s *Session) ([]byte, error) {
	if s == nil || s.Wizard == nil {
		return nil, fmt.Errorf("encode session: empty wizard")
	}

	data, err := json.Marshal(s.Wizard)
	if err != nil {
		return nil, fmt.Errorf("encode wizard %s: %w", s.State(), err)
	}

	return json.Marshal(envelope{
		OwnerID:   s.OwnerID,
		State:     s.State(),
		Data:      data,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	})
}

func decodeSession(raw []byte) (*Session, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	wizard, err := NewWizard(env.State)
	if err != nil {
		return nil, err
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, wizard); err != nil {
			return nil, fmt.Errorf("decode wizard %s: %w", env.State, err)
		}
	}

	return &Session{
		OwnerID:   env.OwnerID,
		Wizard:    wizard,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
	}, nil
}
