package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	OrderExchange = "order_exchange"

	OrderPlacedKey = "order.placed"
	OrderStatusKey = "order.status"

	// OrderChannel is the redis pub/sub channel carrying every order event.
	OrderChannel = "order-events"
)

// OrderEvent is what dashboards and downstream services receive when an
// order is placed or changes status.
type OrderEvent struct {
	Key         string    `json:"key"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id,omitempty"`
	GuestUserID string    `json:"guest_user_id,omitempty"`
	Status      string    `json:"order_status"`
	TotalPrice  float64   `json:"total_price"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Emit publishes ev and logs failures. Events are best effort: a broker
// outage never fails the request that produced them.
func Emit(ctx context.Context, p Publisher, log *zap.Logger, ev OrderEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("publish order event failed",
			zap.String("key", ev.Key), zap.String("order_id", ev.OrderID), zap.Error(err))
		return
	}
	log.Debug("order event published", zap.String("key", ev.Key), zap.String("order_id", ev.OrderID))
}

// Fanout publishes to every publisher and returns the first error.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev OrderEvent) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, channel: OrderChannel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Listen feeds every event on the order channel to fn until ctx is done.
func Listen(ctx context.Context, client *redis.Client, log *zap.Logger, fn func(OrderEvent)) {
	sub := client.Subscribe(ctx, OrderChannel)
	defer sub.Close()

	log.Info("listening for order events", zap.String("channel", OrderChannel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("bad order event payload", zap.Error(err))
				continue
			}
			fn(ev)
		}
	}
}
