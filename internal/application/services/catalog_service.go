package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

const (
	maxMovieRating    = 10.0
	movieSearchLimit  = 50
	maxMovieTitleSize = 200
)

// CatalogService handles movie business logic
type CatalogService struct {
	repo       repositories.MovieRepository
	searchRepo repositories.MovieSearchRepository
	reviews    repositories.ReviewRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repositories.MovieRepository, searchRepo repositories.MovieSearchRepository, reviews repositories.ReviewRepository) *CatalogService {
	return &CatalogService{
		repo:       repo,
		searchRepo: searchRepo,
		reviews:    reviews,
	}
}

// List returns the whole catalog
func (s *CatalogService) List(ctx context.Context) ([]*entities.Movie, error) {
	return s.repo.List(ctx)
}

// Get returns one movie
func (s *CatalogService) Get(ctx context.Context, id int) (*entities.Movie, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a movie to the catalog and the search index
func (s *CatalogService) Create(ctx context.Context, actor *entities.CurrentUser, movie *entities.Movie) (*entities.Movie, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin privileges required")
	}
	movie.Title = strings.TrimSpace(movie.Title)
	if err := validateMovie(movie); err != nil {
		return nil, err
	}

	movie.ID = 0
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, err
	}

	s.index(ctx, movie)
	log.Info().Int("movie_id", movie.ID).Str("title", movie.Title).Msg("movie created")
	return movie, nil
}

// Update edits catalog fields
func (s *CatalogService) Update(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.MovieUpdate) (*entities.Movie, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin privileges required")
	}

	updated, err := s.repo.Update(ctx, id, func(m *entities.Movie) error {
		applyMovieUpdate(m, in)
		return validateMovie(m)
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, updated)
	return updated, nil
}

// Delete removes a movie from the catalog and the search index
func (s *CatalogService) Delete(ctx context.Context, actor *entities.CurrentUser, id int) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbiddenError("admin privileges required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Int("movie_id", id).Msg("failed to remove movie from search index")
		}
	}
	log.Info().Int("movie_id", id).Msg("movie deleted")
	return nil
}

// Search finds movies by free text, best match first
func (s *CatalogService) Search(ctx context.Context, query string) ([]*entities.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*entities.Movie{}, nil
	}

	ids, err := s.searchRepo.Search(ctx, query, movieSearchLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("movie search failed", err)
	}

	movies, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Restore index ranking; ids missing from the catalog are dropped.
	byID := make(map[int]*entities.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	out := make([]*entities.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Reviews returns the reviews of a movie
func (s *CatalogService) Reviews(ctx context.Context, movieID int) ([]*entities.Review, error) {
	if _, err := s.repo.GetByID(ctx, movieID); err != nil {
		return nil, err
	}
	return s.reviews.List(ctx, repositories.ReviewFilter{MovieID: movieID})
}

// Reindex loads the whole catalog into the search index
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	movies, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range movies {
		if err := s.searchRepo.Index(ctx, m); err != nil {
			return 0, err
		}
	}
	log.Info().Int("movies", len(movies)).Msg("search index rebuilt")
	return len(movies), nil
}

func (s *CatalogService) index(ctx context.Context, movie *entities.Movie) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, movie); err != nil {
		log.Warn().Err(err).Int("movie_id", movie.ID).Msg("failed to index movie")
	}
}

func validateMovie(m *entities.Movie) error {
	if err := validateText("title", m.Title, maxMovieTitleSize); err != nil {
		return err
	}
	if m.IMDbRating < 0 || m.IMDbRating > maxMovieRating {
		return apperrors.NewValidationError("movieIMDbRating must be between 0 and 10")
	}
	if m.Duration < 0 {
		return apperrors.NewValidationError("duration cannot be negative")
	}
	return nil
}

func applyMovieUpdate(m *entities.Movie, in *entities.MovieUpdate) {
	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.IMDbRating != nil {
		m.IMDbRating = *in.IMDbRating
	}
	if in.Genres != nil {
		m.Genres = *in.Genres
	}
	if in.Directors != nil {
		m.Directors = *in.Directors
	}
	if in.MainStars != nil {
		m.MainStars = *in.MainStars
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.DatePublished != nil {
		m.DatePublished = *in.DatePublished
	}
	if in.Duration != nil {
		m.Duration = *in.Duration
	}
	if in.TMDBID != nil {
		m.TMDBID = in.TMDBID
	}
}
