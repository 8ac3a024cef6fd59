package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
)

const subscriberBuffer = 100

// fanout tracks local subscriber channels per bus channel. Both bus
// implementations deliver through it.
type fanout struct {
	mu     sync.RWMutex
	subs   map[string]map[chan *entities.ModerationEvent]struct{}
	closed bool
}

func newFanout() *fanout {
	return &fanout{subs: make(map[string]map[chan *entities.ModerationEvent]struct{})}
}

// add registers a new subscriber. first reports whether it is the only one on
// channel. After shutdown the returned channel is already closed.
func (f *fanout) add(channel string) (ch chan *entities.ModerationEvent, first bool) {
	ch = make(chan *entities.ModerationEvent, subscriberBuffer)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		close(ch)
		return ch, false
	}
	if f.subs[channel] == nil {
		f.subs[channel] = make(map[chan *entities.ModerationEvent]struct{})
	}
	f.subs[channel][ch] = struct{}{}
	return ch, len(f.subs[channel]) == 1
}

// remove closes ch and reports whether channel has no subscribers left
func (f *fanout) remove(channel string, ch chan *entities.ModerationEvent) (last bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[channel][ch]; !ok {
		return false
	}
	delete(f.subs[channel], ch)
	close(ch)
	if len(f.subs[channel]) == 0 {
		delete(f.subs, channel)
		return true
	}
	return false
}

// deliver never blocks; a full subscriber misses the event
func (f *fanout) deliver(channel string, event *entities.ModerationEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subs[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
}

func (f *fanout) count(channel string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[channel])
}

func (f *fanout) drop(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropLocked(channel)
}

func (f *fanout) dropLocked(channel string) {
	for ch := range f.subs[channel] {
		close(ch)
	}
	delete(f.subs, channel)
}

// shutdown closes every subscriber and rejects new ones
func (f *fanout) shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for channel := range f.subs {
		f.dropLocked(channel)
	}
	f.closed = true
}
