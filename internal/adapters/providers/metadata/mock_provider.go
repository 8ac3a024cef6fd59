package metadata

import (
	"context"
	"fmt"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
)

// MockMetadataProvider serves placeholder metadata when no TMDB key is configured
type MockMetadataProvider struct{}

// NewMockMetadataProvider creates a new mock metadata provider
func NewMockMetadataProvider() providers.MetadataProvider {
	return &MockMetadataProvider{}
}

// Details returns placeholder details for any id
func (m *MockMetadataProvider) Details(ctx context.Context, externalID int) (*entities.MovieDetails, error) {
	return &entities.MovieDetails{
		MovieID:  externalID,
		Poster:   "",
		Overview: fmt.Sprintf("No overview available for movie %d.", externalID),
		Rating:   0,
	}, nil
}

// Recommendations returns no recommendations
func (m *MockMetadataProvider) Recommendations(ctx context.Context, externalID int) ([]entities.Recommendation, error) {
	return []entities.Recommendation{}, nil
}
