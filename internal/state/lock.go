package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPattern   = "session:lock:%d"
	lockPollInterval = 25 * time.Millisecond
)

// ErrSessionLocked indicates that the owner lock could not be acquired in time.
var ErrSessionLocked = errors.New("session is locked, try again later")

// Locker serialises the handling of updates that belong to one owner.
type Locker interface {
	// Acquire blocks until the owner lock is held or ctx is done. The returned
	// function releases the lock.
	Acquire(ctx context.Context, ownerID int64) (func(), error)
}

// MemoryLocker is a per-owner mutex for single-process deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[int64]*ownerLock
}

type ownerLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[int64]*ownerLock)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, ownerID int64) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &ownerLock{ch: make(chan struct{}, 1)}
		l.locks[ownerID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(ownerID, lock, false)
		return nil, fmt.Errorf("%w: %v", ErrSessionLocked, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(ownerID, lock, true) })
	}, nil
}

func (l *MemoryLocker) release(ownerID int64, lock *ownerLock, held bool) {
	if held {
		<-lock.ch
	}

	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, ownerID)
	}
	l.mu.Unlock()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds owner locks in Redis so several bot replicas can share
// sessions. The lock expires after ttl if its holder dies.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, ownerID int64) (func(), error) {
	key := fmt.Sprintf(lockKeyPattern, ownerID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrSessionLocked, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}
