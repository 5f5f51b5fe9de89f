package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultChannel is used when REDIS_CHANNEL is not set.
const DefaultChannel = "kanban:events"

// RedisPublisher publishes events to a Redis pub/sub channel so every
// instance's Relay can forward them to its own clients.
type RedisPublisher struct {
	rc      *redis.Client
	channel string
}

func NewRedisPublisher(rc *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rc: rc, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rc.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Relay subscribes to channel and hands every event to sink until ctx is
// done or the subscription closes. Messages that do not decode are logged
// and skipped.
func Relay(ctx context.Context, rc *redis.Client, channel string, sink Publisher) {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := rc.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				log.WithField("channel", channel).Error("event subscription closed")
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.WithError(err).Warn("unable to parse board event")
				continue
			}
			if err := sink.Publish(ctx, ev); err != nil {
				log.WithError(err).WithField("type", ev.Type).Warn("relay board event")
			}
		}
	}
}
