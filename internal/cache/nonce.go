package cache

import (
	"context"
	"fmt"
	"time"
)

// NonceGuard rejects a (senderID, nonce) pair it has already seen within
// ttl, backed by Store.SetNX so the guard survives a process restart and
// is shared across replicas of the same zone when Store is a RedisStore.
// This complements internal/security's in-memory SequenceTracker: the
// tracker catches out-of-order/replayed sequence numbers within one
// process's lifetime, NonceGuard catches replay across restarts.
type NonceGuard struct {
	store Store
	ttl   time.Duration
}

func NewNonceGuard(store Store, ttl time.Duration) *NonceGuard {
	return &NonceGuard{store: store, ttl: ttl}
}

// Check records (senderID, nonce) and returns true if this is the first
// time it has been seen within ttl, false if it is a replay.
func (g *NonceGuard) Check(ctx context.Context, senderID, nonce uint64) (bool, error) {
	key := fmt.Sprintf("nonce:%d:%d", senderID, nonce)
	return g.store.SetNX(ctx, key, []byte{1}, g.ttl)
}
