package providers

import (
	"context"
	"errors"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// ErrMetadataNotFound is returned when the external catalog has no such movie
var ErrMetadataNotFound = errors.New("metadata not found")

// MetadataProvider fetches movie enrichment from an external catalog
type MetadataProvider interface {
	// Details returns poster, overview and rating for an external movie id
	Details(ctx context.Context, externalID int) (*entities.MovieDetails, error)

	// Recommendations returns titles related to an external movie id
	Recommendations(ctx context.Context, externalID int) ([]entities.Recommendation, error)
}
