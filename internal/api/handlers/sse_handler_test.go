package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/events"
	"github.com/spoileralert/backend/internal/api/handlers"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
)

// stream runs the handler until publish has run and the request is cancelled,
// then returns the recorded response
func stream(t *testing.T, handler *handlers.SSEHandler, target string, publish func()) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamModerationEvents(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return handler.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	publish()
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}
	return w
}

func flaggedEvent(eventType entities.ModerationEventType, banned bool) *entities.ModerationEvent {
	review := &entities.Review{ID: 42, MovieID: 3, UserID: 7}
	user := &entities.User{ID: 7, Penalties: 3, IsBanned: banned}
	return entities.NewModerationEvent(eventType, review, user)
}

func TestSSEHandler_StreamModerationEvents(t *testing.T) {
	t.Run("forwards published events", func(t *testing.T) {
		bus := events.NewMemoryEventBus()
		handler := handlers.NewSSEHandler(bus)

		w := stream(t, handler, "/admin/events", func() {
			require.NoError(t, bus.Publish(context.Background(), providers.EventChannelModeration, flaggedEvent(entities.EventReviewFlagged, true)))
		})

		assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
		body := w.Body.String()
		assert.True(t, strings.HasPrefix(body, "event: connected\n"))
		assert.Contains(t, body, "event: review.flagged\n")
		assert.Contains(t, body, `"reviewId":42`)
		assert.Equal(t, 0, handler.ClientCount())
	})

	t.Run("filters by type", func(t *testing.T) {
		bus := events.NewMemoryEventBus()
		handler := handlers.NewSSEHandler(bus)

		w := stream(t, handler, "/admin/events?type=user.banned", func() {
			ctx := context.Background()
			require.NoError(t, bus.Publish(ctx, providers.EventChannelModeration, flaggedEvent(entities.EventReviewFlagged, true)))
			require.NoError(t, bus.Publish(ctx, providers.EventChannelModeration, flaggedEvent(entities.EventUserBanned, true)))
		})

		body := w.Body.String()
		assert.NotContains(t, body, "event: review.flagged")
		assert.Contains(t, body, "event: user.banned\n")
	})

	t.Run("heartbeat on an idle stream", func(t *testing.T) {
		bus := events.NewMemoryEventBus()
		handler := handlers.NewSSEHandler(bus).WithHeartbeat(20 * time.Millisecond)

		w := stream(t, handler, "/admin/events", func() {})

		assert.Contains(t, w.Body.String(), "event: heartbeat\n")
	})

	t.Run("unknown type", func(t *testing.T) {
		handler := handlers.NewSSEHandler(events.NewMemoryEventBus())

		w := httptest.NewRecorder()
		handler.StreamModerationEvents(w, httptest.NewRequest(http.MethodGet, "/admin/events?type=everything", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
