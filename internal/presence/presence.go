package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Tracker counts live connections per user so that multi-tab users only
// produce online/offline transitions on their first and last connection.
type Tracker interface {
	// Connected registers one connection; reports whether the user just
	// came online (0 -> 1 transition).
	Connected(ctx context.Context, userID int) (bool, error)
	// Disconnected drops one connection; reports whether the user just
	// went offline (1 -> 0 transition).
	Disconnected(ctx context.Context, userID int) (bool, error)
	// Refresh extends the liveness of the user's presence record for
	// long-lived connections.
	Refresh(ctx context.Context, userID int) error
	IsOnline(ctx context.Context, userID int) (bool, error)
}

const connKeyTTL = 12 * time.Hour

// RedisTracker stores connection counts in Redis so presence survives across
// service instances.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects and pings the Redis server.
func NewRedisTracker(addr, password string, db int) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisTracker{client: client}, nil
}

func connKey(userID int) string {
	return fmt.Sprintf("presence:conn:%d", userID)
}

func (t *RedisTracker) Connected(ctx context.Context, userID int) (bool, error) {
	count, err := t.client.Incr(ctx, connKey(userID)).Result()
	if err != nil {
		return false, err
	}
	t.client.Expire(ctx, connKey(userID), connKeyTTL)
	return count == 1, nil
}

func (t *RedisTracker) Disconnected(ctx context.Context, userID int) (bool, error) {
	count, err := t.client.Decr(ctx, connKey(userID)).Result()
	if err != nil {
		return false, err
	}
	if count <= 0 {
		t.client.Del(ctx, connKey(userID))
	}
	// A negative count means the key expired earlier; the user already
	// reads offline, so no transition fires.
	return count == 0, nil
}

// Refresh re-arms the TTL so connections outliving it keep reading online.
func (t *RedisTracker) Refresh(ctx context.Context, userID int) error {
	return t.client.Expire(ctx, connKey(userID), connKeyTTL).Err()
}

func (t *RedisTracker) IsOnline(ctx context.Context, userID int) (bool, error) {
	count, err := t.client.Get(ctx, connKey(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close releases the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

// LocalTracker is the single-instance fallback used when Redis is not
// configured, and in tests.
type LocalTracker struct {
	mu     sync.Mutex
	counts map[int]int
}

// NewLocalTracker builds an empty in-memory tracker.
func NewLocalTracker() *LocalTracker {
	return &LocalTracker{counts: make(map[int]int)}
}

func (t *LocalTracker) Connected(ctx context.Context, userID int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[userID]++
	return t.counts[userID] == 1, nil
}

func (t *LocalTracker) Disconnected(ctx context.Context, userID int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.counts[userID]
	t.counts[userID]--
	if t.counts[userID] <= 0 {
		delete(t.counts, userID)
	}
	return was == 1, nil
}

func (t *LocalTracker) Refresh(ctx context.Context, userID int) error {
	return nil
}

func (t *LocalTracker) IsOnline(ctx context.Context, userID int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[userID] > 0, nil
}
