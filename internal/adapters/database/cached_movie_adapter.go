package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
)

// CachedMovieAdapter wraps a MovieRepository with a read-through cache
type CachedMovieAdapter struct {
	adapter repositories.MovieRepository
	cache   providers.CacheProvider
}

// NewCachedMovieAdapter creates a new cached movie adapter
func NewCachedMovieAdapter(adapter repositories.MovieRepository, cache providers.CacheProvider) repositories.MovieRepository {
	return &CachedMovieAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	movieByIDTTL = 600
)

func movieCacheKey(id int) string {
	return fmt.Sprintf("movie:%d", id)
}

// GetByID retrieves a movie by ID with caching
func (a *CachedMovieAdapter) GetByID(ctx context.Context, id int) (*entities.Movie, error) {
	cacheKey := movieCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var movie entities.Movie
		if err := json.Unmarshal(cached, &movie); err == nil {
			return &movie, nil
		}
		log.Warn().Int("movie_id", id).Msg("discarding undecodable cached movie")
	}

	movie, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(movie); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, movieByIDTTL); err != nil {
			log.Warn().Err(err).Int("movie_id", id).Msg("failed to cache movie")
		}
	}
	return movie, nil
}

// GetByIDs delegates; the collection is already memory-resident
func (a *CachedMovieAdapter) GetByIDs(ctx context.Context, ids []int) ([]*entities.Movie, error) {
	return a.adapter.GetByIDs(ctx, ids)
}

// List delegates to the wrapped adapter
func (a *CachedMovieAdapter) List(ctx context.Context) ([]*entities.Movie, error) {
	return a.adapter.List(ctx)
}

// Create delegates to the wrapped adapter
func (a *CachedMovieAdapter) Create(ctx context.Context, movie *entities.Movie) error {
	return a.adapter.Create(ctx, movie)
}

// Update saves through and evicts the cached entry
func (a *CachedMovieAdapter) Update(ctx context.Context, id int, fn func(*entities.Movie) error) (*entities.Movie, error) {
	movie, err := a.adapter.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	a.evict(ctx, id)
	return movie, nil
}

// Delete removes through and evicts the cached entry
func (a *CachedMovieAdapter) Delete(ctx context.Context, id int) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}
	a.evict(ctx, id)
	return nil
}

func (a *CachedMovieAdapter) evict(ctx context.Context, id int) {
	if err := a.cache.Delete(ctx, movieCacheKey(id)); err != nil {
		log.Warn().Err(err).Int("movie_id", id).Msg("failed to evict cached movie")
	}
}
