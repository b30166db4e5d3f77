// Package state keeps the per-owner wizard sessions that drive multi-step
// admin and user flows.
package state

import (
	"context"
	"sync"
)

// Storage defines the persistence contract for sessions.
type Storage interface {
	// GetSession returns the stored session or ErrSessionNotFound.
	GetSession(ctx context.Context, ownerID int64) (*Session, error)
	// SetSession creates or replaces the session of s.OwnerID.
	SetSession(ctx context.Context, s *Session) error
	// ClearSession removes the session of ownerID; absent sessions are not an error.
	ClearSession(ctx context.Context, ownerID int64) error
	// GetAllSessions returns every stored session.
	GetAllSessions(ctx context.Context) ([]*Session, error)
}

// MemoryStorage keeps sessions in process memory. Sessions are stored encoded
// so callers never share wizard data with the store.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[int64][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[int64][]byte)}
}

func (s *MemoryStorage) GetSession(_ context.Context, ownerID int64) (*Session, error) {
	s.mu.RLock()
	raw, ok := s.sessions[ownerID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	return decodeSession(raw)
}

func (s *MemoryStorage) SetSession(_ context.Context, session *Session) error {
	raw, err := encodeSession(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[session.OwnerID] = raw
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) ClearSession(_ context.Context, ownerID int64) error {
	s.mu.Lock()
	delete(s.sessions, ownerID)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) GetAllSessions(_ context.Context) ([]*Session, error) {
	s.mu.RLock()
	raws := make([][]byte, 0, len(s.sessions))
	for _, raw := range s.sessions {
		raws = append(raws, raw)
	}
	s.mu.RUnlock()

	result := make([]*Session, 0, len(raws))
	for _, raw := range raws {
		session, err := decodeSession(raw)
		if err != nil {
			continue
		}
		result = append(result, session)
	}

	return result, nil
}
