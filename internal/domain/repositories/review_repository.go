package repositories

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// ReviewFilter narrows a review listing. Zero values match everything.
type ReviewFilter struct {
	MovieID     int
	UserID      int
	FlaggedOnly bool
}

// Matches reports whether review passes the filter
func (f ReviewFilter) Matches(review *entities.Review) bool {
	if f.MovieID != 0 && review.MovieID != f.MovieID {
		return false
	}
	if f.UserID != 0 && review.UserID != f.UserID {
		return false
	}
	if f.FlaggedOnly && !review.Flagged {
		return false
	}
	return true
}

// ReviewRepository defines the interface for review operations
type ReviewRepository interface {
	// Create assigns the next id and stores a new review
	Create(ctx context.Context, review *entities.Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id int) (*entities.Review, error)

	// List returns reviews matching filter in stored order
	List(ctx context.Context, filter ReviewFilter) ([]*entities.Review, error)

	// Update applies fn to a freshly read review and saves the result
	Update(ctx context.Context, id int, fn func(*entities.Review) error) (*entities.Review, error)

	// Delete deletes a review
	Delete(ctx context.Context, id int) error
}
