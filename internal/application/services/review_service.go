package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// ReviewService handles posting, editing and finding reviews
type ReviewService struct {
	repo   repositories.ReviewRepository
	movies repositories.MovieRepository
	now    func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(repo repositories.ReviewRepository, movies repositories.MovieRepository) *ReviewService {
	return &ReviewService{repo: repo, movies: movies, now: time.Now}
}

// List returns every review
func (s *ReviewService) List(ctx context.Context) ([]*entities.Review, error) {
	return s.repo.List(ctx, repositories.ReviewFilter{})
}

// Get returns one review
func (s *ReviewService) Get(ctx context.Context, id int) (*entities.Review, error) {
	return s.repo.GetByID(ctx, id)
}

// Search treats an all-digit query as a movie id and anything else as a
// case-insensitive movie title fragment
func (s *ReviewService) Search(ctx context.Context, query string) ([]*entities.Review, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*entities.Review{}, nil
	}

	if movieID, err := strconv.Atoi(q); err == nil && isDigits(q) {
		return s.repo.List(ctx, repositories.ReviewFilter{MovieID: movieID})
	}

	movies, err := s.movies.List(ctx)
	if err != nil {
		return nil, err
	}
	matching := make(map[int]struct{})
	for _, m := range movies {
		if strings.Contains(strings.ToLower(m.Title), q) {
			matching[m.ID] = struct{}{}
		}
	}
	if len(matching) == 0 {
		return []*entities.Review{}, nil
	}

	all, err := s.repo.List(ctx, repositories.ReviewFilter{})
	if err != nil {
		return nil, err
	}
	out := []*entities.Review{}
	for _, r := range all {
		if _, ok := matching[r.MovieID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Create posts a review by actor
func (s *ReviewService) Create(ctx context.Context, actor *entities.CurrentUser, in *entities.ReviewCreate) (*entities.Review, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("invalid authentication credentials")
	}

	review := &entities.Review{
		MovieID:     in.MovieID,
		UserID:      actor.ID,
		ReviewTitle: strings.TrimSpace(in.ReviewTitle),
		ReviewBody:  strings.TrimSpace(in.ReviewBody),
		Rating:      in.Rating,
		DatePosted:  entities.Today(s.now()),
	}
	if err := validateReview(review); err != nil {
		return nil, err
	}
	if _, err := s.movies.GetByID(ctx, in.MovieID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}
	log.Info().Int("review_id", review.ID).Int("movie_id", review.MovieID).Int("user_id", actor.ID).Msg("review posted")
	return review, nil
}

// Update edits a review. Only its author may do so.
func (s *ReviewService) Update(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.ReviewUpdate) (*entities.Review, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("invalid authentication credentials")
	}

	return s.repo.Update(ctx, id, func(r *entities.Review) error {
		if r.UserID != actor.ID {
			return apperrors.NewForbiddenError("only the author can edit a review")
		}
		if in.ReviewTitle != nil {
			r.ReviewTitle = strings.TrimSpace(*in.ReviewTitle)
		}
		if in.ReviewBody != nil {
			r.ReviewBody = strings.TrimSpace(*in.ReviewBody)
		}
		if in.Rating != nil {
			r.Rating = *in.Rating
		}
		return validateReview(r)
	})
}

// Delete removes a review. Its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, actor *entities.CurrentUser, id int) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("invalid authentication credentials")
	}

	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID && !actor.IsAdmin() {
		return apperrors.NewForbiddenError("only the author or an admin can delete a review")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int("review_id", id).Int("actor_id", actor.ID).Msg("review deleted")
	return nil
}

func validateReview(r *entities.Review) error {
	if err := validateText("reviewTitle", r.ReviewTitle, maxReviewTitle); err != nil {
		return err
	}
	if err := validateText("reviewBody", r.ReviewBody, maxReviewBody); err != nil {
		return err
	}
	if !entities.ValidRating(r.Rating) {
		return apperrors.NewValidationError("rating must be between 1 and 10")
	}
	return nil
}
