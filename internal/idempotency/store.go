package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status of a claimed key.
type Status string

const (
	StatusNone       Status = ""
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
)

// Store persists update claims.
type Store interface {
	// Claim marks key as processing for lease unless it is already known.
	Claim(ctx context.Context, key string, lease time.Duration) (bool, error)
	Status(ctx context.Context, key string) (Status, error)
	// Complete marks key as done for retention.
	Complete(ctx context.Context, key string, retention time.Duration) error
	Release(ctx context.Context, key string) error
}

const redisKeyPrefix = "idempotency:"

// RedisStore shares claims between replicas. Every key carries a TTL.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Claim(ctx context.Context, key string, lease time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+key, string(StatusProcessing), lease).Result()
	if err != nil {
		s.log.Error("failed to claim update", slog.String("key", key), slog.Any("error", err))
		return false, err
	}
	return ok, nil
}

func (s *RedisStore) Status(ctx context.Context, key string) (Status, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return StatusNone, nil
	}
	if err != nil {
		return StatusNone, err
	}
	return Status(value), nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, retention time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+key, string(StatusDone), retention).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

type memoryEntry struct {
	status    Status
	expiresAt time.Time
}

const memoryPruneEvery = time.Minute

// MemoryStore keeps claims of a single replica. Expired entries are dropped
// by Claim at most once per minute.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	now        func() time.Time
	lastPruned time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Claim(_ context.Context, key string, lease time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPruned) >= memoryPruneEvery {
		for k, e := range s.entries {
			if !now.Before(e.expiresAt) {
				delete(s.entries, k)
			}
		}
		s.lastPruned = now
	}

	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = memoryEntry{status: StatusProcessing, expiresAt: now.Add(lease)}
	return true, nil
}

func (s *MemoryStore) Status(_ context.Context, key string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return StatusNone, nil
	}
	return e.status, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{status: StatusDone, expiresAt: s.now().Add(retention)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
