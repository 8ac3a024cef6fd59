package events

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
)

// MemoryEventBus delivers events to subscribers in the same process
type MemoryEventBus struct {
	subs *fanout
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subs: newFanout()}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers event to current subscribers without blocking
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.ModerationEvent) error {
	b.subs.deliver(channel, event)
	return nil
}

// Subscribe returns a channel receiving events until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ModerationEvent, error) {
	ch, _ := b.subs.add(channel)
	go func() {
		<-ctx.Done()
		b.subs.remove(channel, ch)
	}()
	return ch, nil
}

// Unsubscribe closes every subscription on channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.subs.drop(channel)
	return nil
}

// Close closes all subscriptions
func (b *MemoryEventBus) Close() error {
	b.subs.shutdown()
	return nil
}
