package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
)

// CacheInvalidationService drops cached HTTP responses when moderation events
// arrive. With the Redis event bus this keeps every instance's view of
// flagged reviews consistent.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for moderation events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelModeration)
	if err != nil {
		return fmt.Errorf("failed to subscribe to moderation events: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Str("channel", providers.EventChannelModeration).Msg("cache invalidation service started")
	return nil
}

// Stop stops the listener and waits for it to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ModerationEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.ModerationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch event.Type {
	case entities.EventReviewFlagged, entities.EventUserBanned:
		if err := s.InvalidateReviewCaches(ctx); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Msg("failed to invalidate review caches")
			return
		}
		log.Debug().
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Int("review_id", event.ReviewID).
			Msg("invalidated review caches")
	default:
		log.Debug().Str("type", string(event.Type)).Msg("ignoring moderation event")
	}
}

// InvalidateReviewCaches drops every cached review listing
func (s *CacheInvalidationService) InvalidateReviewCaches(ctx context.Context) error {
	return s.deleteGroups(ctx, providers.CacheGroupReviews)
}

// InvalidateCatalogCaches drops cached movie and review listings
func (s *CacheInvalidationService) InvalidateCatalogCaches(ctx context.Context) error {
	return s.deleteGroups(ctx, providers.CacheGroupMovies, providers.CacheGroupReviews)
}

func (s *CacheInvalidationService) deleteGroups(ctx context.Context, groups ...string) error {
	for _, group := range groups {
		pattern := providers.HTTPCacheGroupPattern(group)
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
