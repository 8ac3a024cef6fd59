package loaders

import (
	"context"
	"net/http"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batch the user and movie lookups made while rendering one response
type Loaders struct {
	UserLoader  *dataloader.Loader[int, *entities.User]
	MovieLoader *dataloader.Loader[int, *entities.Movie]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(userRepo repositories.UserRepository, movieRepo repositories.MovieRepository) *Loaders {
	return &Loaders{
		UserLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []int) []*dataloader.Result[*entities.User] {
			users, err := userRepo.GetByIDs(ctx, keys)
			byID := make(map[int]*entities.User, len(users))
			for _, u := range users {
				byID[u.ID] = u
			}
			return resultsFor(keys, byID, err, apperrors.NewUserNotFoundError)
		}),
		MovieLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []int) []*dataloader.Result[*entities.Movie] {
			movies, err := movieRepo.GetByIDs(ctx, keys)
			byID := make(map[int]*entities.Movie, len(movies))
			for _, m := range movies {
				byID[m.ID] = m
			}
			return resultsFor(keys, byID, err, apperrors.NewMovieNotFoundError)
		}),
	}
}

func resultsFor[V any](keys []int, byID map[int]V, err error, notFound func(int) *apperrors.AppError) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], len(keys))
	for i, key := range keys {
		if err != nil {
			results[i] = &dataloader.Result[V]{Error: err}
		} else if v, ok := byID[key]; ok {
			results[i] = &dataloader.Result[V]{Data: v}
		} else {
			results[i] = &dataloader.Result[V]{Error: notFound(key)}
		}
	}
	return results
}

// For returns the loaders for a given context, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches a fresh set of loaders to every request
func Middleware(userRepo repositories.UserRepository, movieRepo repositories.MovieRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(userRepo, movieRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Usernames resolves the usernames for ids in one batch. Ids that cannot be
// resolved are left out of the result.
func (l *Loaders) Usernames(ctx context.Context, ids []int) map[int]string {
	users, _ := l.UserLoader.LoadMany(ctx, ids)()
	names := make(map[int]string, len(ids))
	for i, u := range users {
		if u != nil {
			names[ids[i]] = u.Username
		}
	}
	return names
}
