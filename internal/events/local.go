package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LocalBus is an in-process Bus for single-instance runs without Redis.
type LocalBus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*localSubscription]struct{}
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[uuid.UUID]map[*localSubscription]struct{})}
}

func (b *LocalBus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[ev.TenantID] {
		select {
		case sub.out <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, tenantID uuid.UUID) (Subscription, error) {
	sub := &localSubscription{
		bus:      b,
		tenantID: tenantID,
		out:      make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	if b.subs[tenantID] == nil {
		b.subs[tenantID] = make(map[*localSubscription]struct{})
	}
	b.subs[tenantID][sub] = struct{}{}
	b.mu.Unlock()

	return sub, nil
}

type localSubscription struct {
	bus      *LocalBus
	tenantID uuid.UUID
	out      chan Event
	once     sync.Once
}

func (s *localSubscription) C() <-chan Event { return s.out }

// Close unregisters under the bus write lock, so no Publish can be
// sending on out while it is closed.
func (s *localSubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.tenantID], s)
		if len(s.bus.subs[s.tenantID]) == 0 {
			delete(s.bus.subs, s.tenantID)
		}
		s.bus.mu.Unlock()
		close(s.out)
	})
	return nil
}
