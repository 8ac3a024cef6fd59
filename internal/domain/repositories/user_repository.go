package repositories

import (
	"context"
	"errors"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// ErrNoChange may be returned from an Update mutation to skip the write
var ErrNoChange = errors.New("no change")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create assigns the next id and stores a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int) (*entities.User, error)

	// GetByUsername retrieves a user by username, ignoring case
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// GetByIDs retrieves the users that exist among ids
	GetByIDs(ctx context.Context, ids []int) ([]*entities.User, error)

	// List returns every user
	List(ctx context.Context) ([]*entities.User, error)

	// Update applies fn to a freshly read user and saves the result
	Update(ctx context.Context, id int, fn func(*entities.User) error) (*entities.User, error)

	// Delete deletes a user
	Delete(ctx context.Context, id int) error
}
