package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/repositories"
)

// CacheWarmingService preloads the per-movie cache so the first detail and
// enrichment requests after a restart do not all hit storage.
type CacheWarmingService struct {
	movies repositories.MovieRepository
}

// NewCacheWarmingService creates a warming service over a cached movie
// repository
func NewCacheWarmingService(movies repositories.MovieRepository) *CacheWarmingService {
	return &CacheWarmingService{movies: movies}
}

// WarmCache reads every movie through the repository. It returns how many
// movies were loaded.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	movies, err := s.movies.List(ctx)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, movie := range movies {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := s.movies.GetByID(ctx, movie.ID); err != nil {
			log.Warn().Err(err).Int("movie_id", movie.ID).Msg("failed to warm movie")
			continue
		}
		warmed++
	}

	log.Info().Int("movies", warmed).Msg("movie cache warmed")
	return warmed, nil
}

// StartPeriodicWarming warms once, then again every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if _, err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil && ctx.Err() == nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
