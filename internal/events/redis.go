package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus fans events out through Redis pub/sub, so every API instance
// behind a load balancer sees every change.
type RedisBus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

var _ Bus = (*RedisBus)(nil)

func NewRedisBus(rdb *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, Channel(ev.TenantID), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning,
// so an event published right after Subscribe is not missed.
func (b *RedisBus) Subscribe(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, Channel(tenantID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := &redisSubscription{
		ps:   ps,
		out:  make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}
	go sub.pump(tenantID, b.logger)
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan Event
	done chan struct{}
	once sync.Once
}

func (s *redisSubscription) C() <-chan Event { return s.out }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) pump(tenantID uuid.UUID, logger *zap.Logger) {
	defer close(s.out)

	msgs := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("dropping undecodable note event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			// The channel is already per tenant. This guards against a
			// publisher that put an event on the wrong channel.
			if ev.TenantID != tenantID {
				continue
			}
			select {
			case s.out <- ev:
			default:
				logger.Warn("note event subscriber is lagging, dropping event",
					zap.String("tenant_id", tenantID.String()),
					zap.String("type", ev.Type),
				)
			}
		}
	}
}
