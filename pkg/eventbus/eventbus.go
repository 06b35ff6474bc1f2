// Package eventbus implements tenant-scoped publish/subscribe for
// progress events with bounded per-subscriber queues that drop the
// oldest entry on overflow (spec.md §4.9). The locking idiom — snapshot
// subscriber pointers under a read lock, then act without holding it —
// follows the teacher's pkg/events/manager.go ConnectionManager.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

// Heartbeat is the sentinel event value delivered when a subscriber's
// poll times out with nothing published.
var Heartbeat = evalmodel.ProgressEvent{Status: "idle", Message: "heartbeat"}

type subscriber struct {
	id      string
	tenant  string
	queue   chan evalmodel.ProgressEvent
	mu      sync.Mutex
	overflowed bool
}

// Bus is a process-wide, tenant-scoped event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*subscriber // tenant -> subscriber id -> subscriber
	capacity    int
	heartbeat   time.Duration
}

// New constructs a Bus with the given per-subscriber queue capacity and
// idle heartbeat interval.
func New(capacity int, heartbeat time.Duration) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Bus{
		subscribers: map[string]map[string]*subscriber{},
		capacity:    capacity,
		heartbeat:   heartbeat,
	}
}

// Subscription is a handle returned by Subscribe; callers must call
// Close when done to reclaim the subscriber's queue.
type Subscription struct {
	bus    *Bus
	tenant string
	sub    *subscriber
}

// Subscribe registers a new subscriber for tenant and returns a handle
// to poll it.
func (b *Bus) Subscribe(tenant string) *Subscription {
	sub := &subscriber{
		id:     uuid.NewString(),
		tenant: tenant,
		queue:  make(chan evalmodel.ProgressEvent, b.capacity),
	}

	b.mu.Lock()
	if b.subscribers[tenant] == nil {
		b.subscribers[tenant] = map[string]*subscriber{}
	}
	b.subscribers[tenant][sub.id] = sub
	b.mu.Unlock()

	return &Subscription{bus: b, tenant: tenant, sub: sub}
}

// Close unregisters the subscription, reclaiming its queue.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if m, ok := s.bus.subscribers[s.tenant]; ok {
		delete(m, s.sub.id)
		if len(m) == 0 {
			delete(s.bus.subscribers, s.tenant)
		}
	}
}

// Poll blocks until an event is published, the heartbeat interval
// elapses (returning Heartbeat), or ctx is cancelled.
func (s *Subscription) Poll(ctx context.Context) (evalmodel.ProgressEvent, error) {
	timer := time.NewTimer(s.bus.heartbeat)
	defer timer.Stop()
	select {
	case ev := <-s.sub.queue:
		return ev, nil
	case <-timer.C:
		return Heartbeat, nil
	case <-ctx.Done():
		return evalmodel.ProgressEvent{}, ctx.Err()
	}
}

// Publish enqueues ev on every active subscriber for tenant. On a full
// subscriber queue, the oldest entry is dropped to make room — publish
// never blocks.
func (b *Bus) Publish(tenant string, ev evalmodel.ProgressEvent) {
	b.mu.RLock()
	m := b.subscribers[tenant]
	subs := make([]*subscriber, 0, len(m))
	for _, s := range m {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		enqueue(s, ev)
	}
}

func enqueue(s *subscriber, ev evalmodel.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.queue <- ev:
		return
	default:
	}
	// Queue full: drop oldest, then enqueue the new event.
	select {
	case <-s.queue:
		s.overflowed = true
	default:
	}
	select {
	case s.queue <- ev:
	default:
	}
}

// SubscriberCount reports the number of active subscribers for tenant,
// used only for diagnostics/tests.
func (b *Bus) SubscriberCount(tenant string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[tenant])
}
