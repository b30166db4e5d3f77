package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern  = "session:%d"
	sessionScanPattern = "session:[0-9]*"
	sessionScanBatch   = 100
)

// RedisStorage persists sessions in Redis. Keys expire after ttl of
// inactivity; a zero ttl keeps them until cleared.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// GetSession returns the stored session or ErrSessionNotFound when absent.
func (s *RedisStorage) GetSession(ctx context.Context, ownerID int64) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get session from redis", "owner_id", ownerID, "error", err)
		return nil, err
	}

	session, err := decodeSession(data)
	if err != nil {
		s.log.Error("failed to decode session", "owner_id", ownerID, "error", err)
		return nil, err
	}

	return session, nil
}

// SetSession saves the session, refreshing its TTL.
func (s *RedisStorage) SetSession(ctx context.Context, session *Session) error {
	data, err := encodeSession(session)
	if err != nil {
		s.log.Error("failed to encode session", "owner_id", session.OwnerID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, sessionKey(session.OwnerID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "owner_id", session.OwnerID, "error", err)
		return err
	}

	return nil
}

// ClearSession removes the stored session for the given owner.
func (s *RedisStorage) ClearSession(ctx context.Context, ownerID int64) error {
	if err := s.client.Del(ctx, sessionKey(ownerID)).Err(); err != nil {
		s.log.Error("failed to clear session", "owner_id", ownerID, "error", err)
		return err
	}

	return nil
}

// GetAllSessions retrieves every stored session by scanning Redis keys.
func (s *RedisStorage) GetAllSessions(ctx context.Context) ([]*Session, error) {
	var (
		cursor uint64
		result []*Session
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, sessionScanPattern, sessionScanBatch).Result()
		if err != nil {
			s.log.Error("failed to scan sessions", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch session", "key", key, "error", err)
				return nil, err
			}

			session, err := decodeSession(data)
			if err != nil {
				s.log.Warn("skipping undecodable session", "key", key, "error", err)
				continue
			}

			result = append(result, session)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func sessionKey(ownerID int64) string {
	return fmt.Sprintf(sessionKeyPattern, ownerID)
}
