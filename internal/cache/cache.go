// Package cache provides the distributed backing store for state that must
// survive a single edge process restart or be shared across replicas of the
// same zone: replay-guard nonces and cross-zone coordination events. It
// wraps go-redis v9, grounded on the Hub-and-Spoke fabric's RedisClient/
// RedisPubSubClient split (internal/fabric/redis_store.go,
// redis_event_bus.go), and falls back to an in-memory store when Redis is
// unreachable rather than failing startup.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the minimal key/value surface the replay guard and ticket
// manager need. Any backend (Redis, in-memory) can satisfy it.
type Store interface {
	// SetNX sets key to value with ttl only if key does not already exist.
	// Returns true if the key was set (i.e. this call "won").
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Del(ctx context.Context, key string) error
	Close() error
}

// PubSub is the minimal publish/subscribe surface the cross-zone event
// distributor needs.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func([]byte)) (unsubscribe func(), err error)
}

// RedisStore implements Store and PubSub over go-redis v9.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to addr/db and pings it before returning, so
// callers can decide whether to fall back to NewMemoryStore on error.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed (%s): %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.rdb.Publish(ctx, channel, payload).Err()
}

func (s *RedisStore) Subscribe(ctx context.Context, channel string, handler func([]byte)) (func(), error) {
	sub := s.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	ch := sub.Channel()
	go func() {
		for msg := range ch {
			handler([]byte(msg.Payload))
		}
	}()
	return func() { sub.Close() }, nil
}

// entry is one in-memory record with an expiry.
type entry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is an in-process Store used when no Redis address is
// configured, or as a fallback after a failed NewRedisStore dial. It does
// not implement PubSub: cross-process distribution is unavailable without
// Redis, and callers needing it should check for that case explicitly.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (s *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
	if _, exists := s.entries[key]; exists {
		return false, nil
	}
	s.entries[key] = entry{value: value, expires: time.Now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// evictLocked drops key if it has expired. Caller must hold s.mu.
func (s *MemoryStore) evictLocked(key string) {
	if e, ok := s.entries[key]; ok && time.Now().After(e.expires) {
		delete(s.entries, key)
	}
}
