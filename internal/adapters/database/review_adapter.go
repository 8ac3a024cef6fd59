package database

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// ReviewAdapter implements ReviewRepository over the reviews collection
type ReviewAdapter struct {
	store *jsonstore.Gateway
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(store *jsonstore.Gateway) repositories.ReviewRepository {
	return &ReviewAdapter{store: store}
}

// Create assigns the next id and stores a new review
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	return jsonstore.Update(ctx, a.store, jsonstore.Reviews, func(reviews []entities.Review) ([]entities.Review, bool, error) {
		id, err := assignID(ctx, a.store, jsonstore.Reviews, reviews, func(r *entities.Review) int { return r.ID })
		if err != nil {
			return nil, false, err
		}
		review.ID = id
		return append(reviews, *review), true, nil
	})
}

// GetByID retrieves a review by ID
func (a *ReviewAdapter) GetByID(ctx context.Context, id int) (*entities.Review, error) {
	reviews, err := jsonstore.Load[entities.Review](ctx, a.store, jsonstore.Reviews)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(reviews, func(r *entities.Review) bool { return r.ID == id }); idx >= 0 {
		return &reviews[idx], nil
	}
	return nil, apperrors.NewReviewNotFoundError(id)
}

// List returns reviews matching filter in stored order
func (a *ReviewAdapter) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	reviews, err := jsonstore.Load[entities.Review](ctx, a.store, jsonstore.Reviews)
	if err != nil {
		return nil, err
	}

	out := []*entities.Review{}
	for i := range reviews {
		if filter.Matches(&reviews[i]) {
			out = append(out, &reviews[i])
		}
	}
	return out, nil
}

// Update applies fn to a freshly read review and saves the result
func (a *ReviewAdapter) Update(ctx context.Context, id int, fn func(*entities.Review) error) (*entities.Review, error) {
	return updateOne(ctx, a.store, jsonstore.Reviews,
		func(r *entities.Review) bool { return r.ID == id },
		func() error { return apperrors.NewReviewNotFoundError(id) },
		fn,
		func(reviews []entities.Review, idx int, updated *entities.Review) error {
			current := reviews[idx]
			if updated.ID != current.ID || updated.UserID != current.UserID {
				return apperrors.NewConflictError("review id and author cannot change")
			}
			if current.Flagged && !updated.Flagged {
				return apperrors.NewConflictError("a flagged review cannot be unflagged")
			}
			return nil
		},
	)
}

// Delete deletes a review
func (a *ReviewAdapter) Delete(ctx context.Context, id int) error {
	return deleteOne(ctx, a.store, jsonstore.Reviews,
		func(r *entities.Review) bool { return r.ID == id },
		func() error { return apperrors.NewReviewNotFoundError(id) },
	)
}
