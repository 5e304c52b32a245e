package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ZoneEventType tags what kind of cross-zone coordination event is being
// distributed.
type ZoneEventType string

const (
	EventHandoffRequested ZoneEventType = "handoff.requested"
	EventHandoffAccepted  ZoneEventType = "handoff.accepted"
	EventRollbackIssued   ZoneEventType = "rollback.issued"
	EventEdgeDegraded     ZoneEventType = "edge.degraded"
)

// ZoneEvent is one coordination event distributed across a zone's edge
// process replicas (or, with in-memory fallback, within one process).
type ZoneEvent struct {
	Type    ZoneEventType   `json:"type"`
	ZoneID  uint32          `json:"zone_id"`
	Payload json.RawMessage `json:"payload"`
}

// EventBus fans ZoneEvents out to local subscribers and, when backed by a
// PubSub implementation, to every other replica watching the same
// channel prefix, grounded on internal/fabric's RedisEventBus (publish to
// Redis, also fan out locally for zero-latency same-process delivery).
type EventBus struct {
	mu      sync.RWMutex
	pubsub  PubSub // nil when running without Redis; local-only delivery
	prefix  string
	subs    map[ZoneEventType][]func(ZoneEvent)
	unsubFn []func()
}

// NewEventBus builds a bus. pubsub may be nil, in which case events are
// delivered only to local subscribers in the same process.
func NewEventBus(pubsub PubSub, channelPrefix string) *EventBus {
	if channelPrefix == "" {
		channelPrefix = "edge:events:"
	}
	return &EventBus{
		pubsub: pubsub,
		prefix: channelPrefix,
		subs:   make(map[ZoneEventType][]func(ZoneEvent)),
	}
}

// Subscribe registers handler for events of the given type. If the bus is
// Redis-backed, this also subscribes to the corresponding Redis channel so
// events published by other replicas reach handler too.
func (b *EventBus) Subscribe(ctx context.Context, eventType ZoneEventType, handler func(ZoneEvent)) error {
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], handler)
	b.mu.Unlock()

	if b.pubsub == nil {
		return nil
	}
	channel := b.prefix + string(eventType)
	unsub, err := b.pubsub.Subscribe(ctx, channel, func(raw []byte) {
		var evt ZoneEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		handler(evt)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	b.mu.Lock()
	b.unsubFn = append(b.unsubFn, unsub)
	b.mu.Unlock()
	return nil
}

// Publish delivers evt to local subscribers immediately, then (if
// Redis-backed) publishes it so other replicas receive it too. Remote
// publish failures are swallowed after local delivery: a degraded Redis
// link should not stop a single process from coordinating with itself.
func (b *EventBus) Publish(ctx context.Context, evt ZoneEvent) error {
	b.mu.RLock()
	handlers := append([]func(ZoneEvent){}, b.subs[evt.Type]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(evt)
	}

	if b.pubsub == nil {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal zone event: %w", err)
	}
	channel := b.prefix + string(evt.Type)
	return b.pubsub.Publish(ctx, channel, data)
}

// Close unsubscribes every Redis-backed subscription registered via
// Subscribe.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, unsub := range b.unsubFn {
		unsub()
	}
	b.unsubFn = nil
}
