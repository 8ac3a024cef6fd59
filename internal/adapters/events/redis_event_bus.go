package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	redisclient "github.com/spoileralert/backend/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub so that
// every API instance sharing the Redis server sees moderation events. One
// Redis subscription per channel is shared by all local subscribers.
type RedisEventBus struct {
	client *redisclient.Client
	subs   *fanout

	mu      sync.Mutex
	pubsubs map[string]*redis.PubSub
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:  client,
		subs:    newFanout(),
		pubsubs: make(map[string]*redis.PubSub),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ModerationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("type", string(event.Type)).Msg("published moderation event")
	return nil
}

// Subscribe subscribes to events on a channel. The first local subscriber
// opens the Redis subscription and the last one to leave closes it.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ModerationEvent, error) {
	ch, first := b.subs.add(channel)
	if first {
		if err := b.listen(ctx, channel); err != nil {
			b.subs.remove(channel, ch)
			return nil, err
		}
	}

	log.Info().Str("channel", channel).Int("subscribers", b.subs.count(channel)).Msg("subscribed to channel")

	go func() {
		<-ctx.Done()
		if b.subs.remove(channel, ch) {
			if err := b.stopListening(channel); err != nil {
				log.Error().Err(err).Str("channel", channel).Msg("failed to close subscription")
			}
		}
	}()

	return ch, nil
}

func (b *RedisEventBus) listen(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pubsubs[channel]; ok {
		return nil
	}

	pubsub := b.client.Client().Subscribe(b.ctx, channel)
	// Receive waits for the subscription confirmation so a dead server
	// surfaces here rather than as a silent stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b.pubsubs[channel] = pubsub
	go b.relay(channel, pubsub)
	return nil
}

// relay runs until the subscription is closed
func (b *RedisEventBus) relay(channel string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		var event entities.ModerationEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping undecodable event")
			continue
		}
		b.subs.deliver(channel, &event)
	}
}

func (b *RedisEventBus) stopListening(channel string) error {
	b.mu.Lock()
	pubsub, ok := b.pubsubs[channel]
	delete(b.pubsubs, channel)
	b.mu.Unlock()

	if !ok {
		return nil
	}
	if err := pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe closes every local subscription on channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.subs.drop(channel)
	return b.stopListening(channel)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.subs.shutdown()

	b.mu.Lock()
	channels := make([]string, 0, len(b.pubsubs))
	for channel := range b.pubsubs {
		channels = append(channels, channel)
	}
	b.mu.Unlock()

	var errs []error
	for _, channel := range channels {
		if err := b.stopListening(channel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
