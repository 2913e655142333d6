package broadcast

import (
	"context"
	"log/slog"

	"github.com/Umar7799/task4safety/internal/observability"
	"github.com/Umar7799/task4safety/internal/redisclient"
)

// Broadcaster is what mutating handlers talk to. With Redis configured the
// event takes a round trip through pub/sub so every API instance (this one
// included) hears it; without Redis it goes straight to the local hub.
type Broadcaster struct {
	hub     *Hub
	redis   *redisclient.Client
	channel string
	metrics *observability.Prom
	log     *slog.Logger
}

func NewBroadcaster(hub *Hub, redis *redisclient.Client, channel string, metrics *observability.Prom, log *slog.Logger) *Broadcaster {
	if channel == "" {
		channel = "userdir:" + EventRosterChanged
	}

	return &Broadcaster{
		hub:     hub,
		redis:   redis,
		channel: channel,
		metrics: metrics,
		log:     log,
	}
}

// RosterChanged publishes the change signal. Failures are logged and
// swallowed: delivery is best-effort and must never fail the mutation
// that triggered it.
func (b *Broadcaster) RosterChanged(ctx context.Context, action string) {
	if b.metrics != nil {
		b.metrics.RosterEventsTotal.WithLabelValues(action).Inc()
	}

	if b.redis == nil {
		b.hub.Publish(EventRosterChanged)
		return
	}

	err := b.redis.Raw().Publish(ctx, b.channel, EventRosterChanged).Err()

	if err != nil {
		b.log.Warn("broadcast publish failed, falling back to local hub", "err", err)
		b.hub.Publish(EventRosterChanged)
	}
}

// Run pumps Redis pub/sub messages into the local hub. Only needed when
// Redis is configured; returns when ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	if b.redis == nil {
		return
	}

	sub := b.redis.Raw().Subscribe(ctx, b.channel)

	defer func() {
		_ = sub.Close()
	}()

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			b.hub.Publish(msg.Payload)
		}
	}
}
