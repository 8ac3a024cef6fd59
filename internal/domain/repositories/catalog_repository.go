package repositories

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// MovieRepository defines the interface for catalog operations
type MovieRepository interface {
	Create(ctx context.Context, movie *entities.Movie) error
	GetByID(ctx context.Context, id int) (*entities.Movie, error)
	GetByIDs(ctx context.Context, ids []int) ([]*entities.Movie, error)
	List(ctx context.Context) ([]*entities.Movie, error)
	Update(ctx context.Context, id int, fn func(*entities.Movie) error) (*entities.Movie, error)
	Delete(ctx context.Context, id int) error
}

// MovieSearchRepository finds movies by free text
type MovieSearchRepository interface {
	// Index adds or replaces a movie in the index
	Index(ctx context.Context, movie *entities.Movie) error

	// Delete removes a movie from the index
	Delete(ctx context.Context, id int) error

	// Search returns the ids of movies matching query, best match first
	Search(ctx context.Context, query string, limit int) ([]int, error)
}

// ReplyRepository defines the interface for review replies
type ReplyRepository interface {
	Create(ctx context.Context, reply *entities.Reply) error
	ListByReview(ctx context.Context, reviewID int) ([]*entities.Reply, error)
}

// LikeRepository defines the interface for review likes
type LikeRepository interface {
	// Add stores a like; a repeated like is a conflict
	Add(ctx context.Context, like entities.LikedReview) error
	Remove(ctx context.Context, like entities.LikedReview) error
	ListByUser(ctx context.Context, userID int) ([]entities.LikedReview, error)
}

// FavoriteRepository defines the interface for favorite movies
type FavoriteRepository interface {
	// Add stores a favorite; a repeated favorite is a conflict
	Add(ctx context.Context, fav entities.Favorite) error
	Remove(ctx context.Context, fav entities.Favorite) error
	ListByUser(ctx context.Context, userID int) ([]entities.Favorite, error)
}
