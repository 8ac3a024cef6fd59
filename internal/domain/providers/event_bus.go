package providers

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to moderation events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ModerationEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ModerationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelModeration carries every moderation event
const EventChannelModeration = "moderation:events"
