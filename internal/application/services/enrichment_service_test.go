package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/application/services"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

func TestEnrichmentService_Details(t *testing.T) {
	ctx := context.Background()
	_, movies := catalogFixture(t)
	metadata := new(mockMetadataProvider)
	metadata.On("Details", mock.Anything, 348).Return(&entities.MovieDetails{MovieID: 348, Overview: "In space"}, nil)
	metadata.On("Details", mock.Anything, 2).Return(nil, providers.ErrMetadataNotFound)
	metadata.On("Details", mock.Anything, 3).Return(nil, errors.New("timeout"))
	service := services.NewEnrichmentService(movies, metadata)

	details, err := service.Details(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, details.MovieID)
	assert.Equal(t, "In space", details.Overview)

	_, err = service.Details(ctx, 2)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMovieNotFound))

	_, err = service.Details(ctx, 3)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	_, err = service.Details(ctx, 404)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMovieNotFound))
	metadata.AssertNotCalled(t, "Details", mock.Anything, 404)
}

func TestEnrichmentService_Recommendations(t *testing.T) {
	ctx := context.Background()
	_, movies := catalogFixture(t)
	metadata := new(mockMetadataProvider)
	metadata.On("Recommendations", mock.Anything, 348).Return([]entities.Recommendation{{ID: 679, Title: "Aliens"}}, nil)
	metadata.On("Recommendations", mock.Anything, 2).Return(nil, nil)
	service := services.NewEnrichmentService(movies, metadata)

	recs, err := service.Recommendations(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []entities.Recommendation{{ID: 679, Title: "Aliens"}}, recs)

	recs, err = service.Recommendations(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}
