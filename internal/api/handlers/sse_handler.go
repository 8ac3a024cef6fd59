package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams moderation events to admin dashboards as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration

	mu      sync.Mutex
	clients int
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{eventBus: eventBus, heartbeat: defaultHeartbeat}
}

// WithHeartbeat sets how often an idle stream sends a heartbeat event
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	h.heartbeat = interval
	return h
}

// StreamModerationEvents handles GET /admin/events. An optional type query
// parameter (review.flagged or user.banned) filters the stream.
func (h *SSEHandler) StreamModerationEvents(w http.ResponseWriter, r *http.Request) {
	filter := entities.ModerationEventType(r.URL.Query().Get("type"))
	if filter != "" && filter != entities.EventReviewFlagged && filter != entities.EventUserBanned {
		respondWithError(w, r, apperrors.NewValidationError("type must be one of: review.flagged, user.banned"))
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("write deadline not adjustable")
	}

	eventChan, err := h.eventBus.Subscribe(r.Context(), providers.EventChannelModeration)
	if err != nil {
		respondWithError(w, r, apperrors.NewInternalError("failed to subscribe to moderation events", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.track(1)
	defer h.track(-1)

	h.sendEvent(w, "connected", map[string]any{"timestamp": time.Now()})
	if err := rc.Flush(); err != nil {
		log.Warn().Err(err).Msg("streaming not supported")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("moderation stream client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]any{"timestamp": time.Now()})
			rc.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if filter != "" && event.Type != filter {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			rc.Flush()
		}
	}
}

func (h *SSEHandler) track(delta int) {
	h.mu.Lock()
	h.clients += delta
	n := h.clients
	h.mu.Unlock()
	log.Debug().Int("clients", n).Msg("moderation stream clients")
}

// ClientCount returns the number of connected streams
func (h *SSEHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
