package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// ModerationService flags inappropriate reviews and penalises their authors.
//
// A flag is a two-collection transaction: the review is written first, then
// the author. Flags are serialised process-wide so two admins flagging reviews
// by the same author cannot lose a penalty.
type ModerationService struct {
	reviews  repositories.ReviewRepository
	users    repositories.UserRepository
	eventBus providers.EventBus
	metrics  *observability.Metrics

	mu sync.Mutex
}

// NewModerationService creates a new moderation service. eventBus and metrics
// may be nil.
func NewModerationService(
	reviews repositories.ReviewRepository,
	users repositories.UserRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *ModerationService {
	return &ModerationService{
		reviews:  reviews,
		users:    users,
		eventBus: eventBus,
		metrics:  metrics,
	}
}

// FlagReview marks a review as inappropriate and charges its author one
// penalty. Flagging an already flagged review charges nothing and reports the
// author's current state.
func (s *ModerationService) FlagReview(ctx context.Context, reviewID int, actor *entities.CurrentUser) (*entities.FlagResult, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can flag reviews")
	}

	ctx, span := observability.StartSpan(ctx, "ModerationService.FlagReview")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Int("review.id", reviewID),
		attribute.Int("actor.id", actor.ID),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.flag(ctx, reviewID, actor)
	observability.RecordError(span, err)
	return result, err
}

func (s *ModerationService) flag(ctx context.Context, reviewID int, actor *entities.CurrentUser) (*entities.FlagResult, error) {
	logger := observability.LoggerFromContext(ctx)

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	authorID := review.UserID

	// The author must exist before anything is written.
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wasAlreadyFlagged, pending := false, false
	flagged, err := s.reviews.Update(ctx, reviewID, func(r *entities.Review) error {
		if r.Flagged {
			wasAlreadyFlagged = true
			pending = r.FlaggedAt != ""
			return repositories.ErrNoChange
		}
		r.Flagged = true
		r.FlaggedAt = time.Now().UTC().Format(time.RFC3339)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reviews flagged outside this service carry no flaggedAt and were never
	// charged here.
	if wasAlreadyFlagged && !pending {
		return s.alreadyFlagged(ctx, reviewID, authorID, actor)
	}

	// The review is flagged on disk; the penalty must follow even if the
	// caller goes away. PenalizeFor makes a retry after a partial failure
	// charge the missing penalty exactly once.
	var charged, newlyBanned bool
	author, err := s.users.Update(context.WithoutCancel(ctx), authorID, func(u *entities.User) error {
		charged, newlyBanned = u.PenalizeFor(reviewID, entities.PenaltyThreshold)
		if !charged {
			return repositories.ErrNoChange
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int("review_id", reviewID).Int("user_id", authorID).Msg("review flagged but penalty not persisted")
		return nil, apperrors.NewPartialModerationError(reviewID, authorID, err)
	}
	if !charged {
		logger.Info().Int("review_id", reviewID).Int("actor_id", actor.ID).Msg("review already flagged, no penalty charged")
		return flagResult(reviewID, author, true), nil
	}

	observability.RecordFlag(ctx, s.metrics, newlyBanned)
	logger.Info().
		Int("review_id", reviewID).
		Int("user_id", authorID).
		Int("actor_id", actor.ID).
		Int("penalties", author.Penalties).
		Bool("banned", author.IsBanned).
		Bool("completed_retry", wasAlreadyFlagged).
		Msg("review flagged")

	s.publish(context.WithoutCancel(ctx), entities.NewModerationEvent(entities.EventReviewFlagged, flagged, author))
	if newlyBanned {
		s.publish(context.WithoutCancel(ctx), entities.NewModerationEvent(entities.EventUserBanned, flagged, author))
	}

	return flagResult(reviewID, author, false), nil
}

func (s *ModerationService) alreadyFlagged(ctx context.Context, reviewID, authorID int, actor *entities.CurrentUser) (*entities.FlagResult, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	observability.LoggerFromContext(ctx).Info().
		Int("review_id", reviewID).
		Int("actor_id", actor.ID).
		Msg("review already flagged, no penalty charged")
	return flagResult(reviewID, author, true), nil
}

func (s *ModerationService) publish(ctx context.Context, event *entities.ModerationEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelModeration, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Msg("failed to publish moderation event")
	}
}

func flagResult(reviewID int, author *entities.User, wasAlreadyFlagged bool) *entities.FlagResult {
	return &entities.FlagResult{
		ReviewID:          reviewID,
		AuthorID:          author.ID,
		Penalties:         author.Penalties,
		IsBanned:          author.IsBanned,
		WasAlreadyFlagged: wasAlreadyFlagged,
	}
}

// GetFlaggedReviews returns one page of flagged reviews. page and pageSize
// are clamped into range; an unknown sort key is a validation error.
func (s *ModerationService) GetFlaggedReviews(ctx context.Context, actor *entities.CurrentUser, page, pageSize int, sortBy string) (*entities.PagedFlagged, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can view flagged reviews")
	}

	order, ok := entities.ParseFlaggedSort(sortBy)
	if !ok {
		return nil, apperrors.NewValidationError("sortBy must be one of: newest, mostFlagged")
	}
	page, pageSize = clampPage(page, pageSize)

	ctx, span := observability.StartSpan(ctx, "ModerationService.GetFlaggedReviews")
	defer span.End()

	reviews, err := s.reviews.List(ctx, repositories.ReviewFilter{FlaggedOnly: true})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	sortFlagged(reviews, order)

	total := len(reviews)
	result := &entities.PagedFlagged{
		Page:         page,
		PageSize:     pageSize,
		TotalFlagged: total,
		PageCount:    (total + pageSize - 1) / pageSize,
		Reviews:      []*entities.FlaggedReview{},
	}

	start := (page - 1) * pageSize
	if start >= total {
		return result, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	for _, r := range reviews[start:end] {
		result.Reviews = append(result.Reviews, &entities.FlaggedReview{Review: *r})
	}
	return result, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > entities.MaxFlaggedPageSize {
		pageSize = entities.MaxFlaggedPageSize
	}
	return page, pageSize
}

// sortFlagged orders reviews deterministically; id desc breaks every tie
func sortFlagged(reviews []*entities.Review, order entities.FlaggedSort) {
	newer := func(a, b *entities.Review) (bool, bool) {
		ta, tb := a.PostedAt(), b.PostedAt()
		if !ta.Equal(tb) {
			return ta.After(tb), true
		}
		return false, false
	}

	sort.SliceStable(reviews, func(i, j int) bool {
		a, b := reviews[i], reviews[j]
		if order == entities.SortMostFlagged {
			if ca, cb := a.EffectiveFlagCount(), b.EffectiveFlagCount(); ca != cb {
				return ca > cb
			}
		}
		if less, decided := newer(a, b); decided {
			return less
		}
		return a.ID > b.ID
	})
}
