package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetNXOnlySucceedsOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.SetNX(ctx, "k", []byte("v1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.SetNX(ctx, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), val)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.SetNX(ctx, "k", []byte("v"), time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should not be returned")

	again, err := s.SetNX(ctx, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "expired key should be re-settable")
}

func TestMemoryStoreDel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.SetNX(ctx, "k", []byte("v"), time.Minute)

	require.NoError(t, s.Del(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonceGuardRejectsReplayedNonce(t *testing.T) {
	guard := NewNonceGuard(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	first, err := guard.Check(ctx, 42, 1001)
	require.NoError(t, err)
	assert.True(t, first, "first use of a nonce should be accepted")

	second, err := guard.Check(ctx, 42, 1001)
	require.NoError(t, err)
	assert.False(t, second, "replayed nonce must be rejected")
}

func TestNonceGuardScopesByBothSenderAndNonce(t *testing.T) {
	guard := NewNonceGuard(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	ok1, err := guard.Check(ctx, 1, 100)
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := guard.Check(ctx, 2, 100)
	require.NoError(t, err)
	assert.True(t, ok2, "same nonce from a different sender must be accepted independently")
}

func TestEventBusDeliversLocally(t *testing.T) {
	bus := NewEventBus(nil, "")
	ctx := context.Background()

	received := make(chan ZoneEvent, 1)
	require.NoError(t, bus.Subscribe(ctx, EventHandoffAccepted, func(evt ZoneEvent) {
		received <- evt
	}))

	evt := ZoneEvent{Type: EventHandoffAccepted, ZoneID: 5, Payload: []byte(`{"ok":true}`)}
	require.NoError(t, bus.Publish(ctx, evt))

	select {
	case got := <-received:
		assert.Equal(t, uint32(5), got.ZoneID)
	default:
		t.Fatal("expected local subscriber to receive the event synchronously")
	}
}

func TestEventBusOnlyDeliversMatchingType(t *testing.T) {
	bus := NewEventBus(nil, "")
	ctx := context.Background()

	var got int
	require.NoError(t, bus.Subscribe(ctx, EventEdgeDegraded, func(ZoneEvent) { got++ }))

	require.NoError(t, bus.Publish(ctx, ZoneEvent{Type: EventHandoffAccepted, ZoneID: 1}))
	assert.Equal(t, 0, got, "subscriber to a different event type should not be invoked")

	require.NoError(t, bus.Publish(ctx, ZoneEvent{Type: EventEdgeDegraded, ZoneID: 1}))
	assert.Equal(t, 1, got)
}
