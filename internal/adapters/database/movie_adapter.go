package database

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// MovieAdapter implements MovieRepository over the movies collection
type MovieAdapter struct {
	store *jsonstore.Gateway
}

// NewMovieAdapter creates a new movie adapter
func NewMovieAdapter(store *jsonstore.Gateway) repositories.MovieRepository {
	return &MovieAdapter{store: store}
}

func (a *MovieAdapter) load(ctx context.Context) ([]entities.Movie, error) {
	return jsonstore.Load[entities.Movie](ctx, a.store, jsonstore.Movies)
}

// Create assigns the next id and stores a new movie
func (a *MovieAdapter) Create(ctx context.Context, movie *entities.Movie) error {
	return jsonstore.Update(ctx, a.store, jsonstore.Movies, func(movies []entities.Movie) ([]entities.Movie, bool, error) {
		id, err := assignID(ctx, a.store, jsonstore.Movies, movies, func(m *entities.Movie) int { return m.ID })
		if err != nil {
			return nil, false, err
		}
		movie.ID = id
		return append(movies, *movie), true, nil
	})
}

// GetByID retrieves a movie by ID
func (a *MovieAdapter) GetByID(ctx context.Context, id int) (*entities.Movie, error) {
	movies, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(movies, func(m *entities.Movie) bool { return m.ID == id }); idx >= 0 {
		return &movies[idx], nil
	}
	return nil, apperrors.NewMovieNotFoundError(id)
}

// GetByIDs retrieves the movies that exist among ids
func (a *MovieAdapter) GetByIDs(ctx context.Context, ids []int) ([]*entities.Movie, error) {
	movies, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var out []*entities.Movie
	for i := range movies {
		if _, ok := wanted[movies[i].ID]; ok {
			out = append(out, &movies[i])
		}
	}
	return out, nil
}

// List returns every movie
func (a *MovieAdapter) List(ctx context.Context) ([]*entities.Movie, error) {
	movies, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Movie, len(movies))
	for i := range movies {
		out[i] = &movies[i]
	}
	return out, nil
}

// Update applies fn to a freshly read movie and saves the result
func (a *MovieAdapter) Update(ctx context.Context, id int, fn func(*entities.Movie) error) (*entities.Movie, error) {
	return updateOne(ctx, a.store, jsonstore.Movies,
		func(m *entities.Movie) bool { return m.ID == id },
		func() error { return apperrors.NewMovieNotFoundError(id) },
		fn,
		func(_ []entities.Movie, _ int, updated *entities.Movie) error {
			if updated.ID != id {
				return apperrors.NewValidationError("movie id cannot change")
			}
			return nil
		},
	)
}

// Delete deletes a movie
func (a *MovieAdapter) Delete(ctx context.Context, id int) error {
	return deleteOne(ctx, a.store, jsonstore.Movies,
		func(m *entities.Movie) bool { return m.ID == id },
		func() error { return apperrors.NewMovieNotFoundError(id) },
	)
}
