package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// EnrichmentService proxies the external metadata catalog for catalog movies
type EnrichmentService struct {
	movies   repositories.MovieRepository
	provider providers.MetadataProvider
}

// NewEnrichmentService creates a new enrichment service
func NewEnrichmentService(movies repositories.MovieRepository, provider providers.MetadataProvider) *EnrichmentService {
	return &EnrichmentService{movies: movies, provider: provider}
}

// Details returns poster, overview and rating for a catalog movie
func (s *EnrichmentService) Details(ctx context.Context, movieID int) (*entities.MovieDetails, error) {
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	details, err := s.provider.Details(ctx, movie.MetadataID())
	if err != nil {
		return nil, upstreamError(movieID, err)
	}
	details.MovieID = movieID
	return details, nil
}

// Recommendations returns titles related to a catalog movie
func (s *EnrichmentService) Recommendations(ctx context.Context, movieID int) ([]entities.Recommendation, error) {
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	recs, err := s.provider.Recommendations(ctx, movie.MetadataID())
	if err != nil {
		return nil, upstreamError(movieID, err)
	}
	if recs == nil {
		recs = []entities.Recommendation{}
	}
	return recs, nil
}

func upstreamError(movieID int, err error) error {
	if errors.Is(err, providers.ErrMetadataNotFound) {
		return apperrors.NewCodedNotFoundError(apperrors.CodeMovieNotFound, fmt.Sprintf("no metadata for movie %d", movieID))
	}
	return apperrors.NewExternalError("metadata provider unavailable", err)
}
