package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/adapters/search"
	"github.com/spoileralert/backend/internal/application/services"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// catalogFixture holds three movies, two users and reviews for two of the movies
func catalogFixture(t *testing.T) (*fixture, repositories.MovieRepository) {
	t.Helper()
	f := newFixture(t, map[string]any{
		jsonstore.Users: []map[string]any{
			{"id": 1, "username": "admin", "role": "admin"},
			{"id": 7, "username": "critic", "role": "user"},
		},
		jsonstore.Movies: []map[string]any{
			{"id": 1, "title": "Alien", "movieIMDbRating": 8.5, "duration": 117, "tmdbId": 348},
			{"id": 2, "title": "Aliens", "movieIMDbRating": 8.4, "duration": 137},
			{"id": 3, "title": "The Thing", "movieIMDbRating": 8.2, "duration": 109},
		},
		jsonstore.Reviews: []map[string]any{
			{"id": 10, "movieId": 1, "userId": 7, "reviewTitle": "Chestburster", "reviewBody": "Ash is a robot", "rating": 9, "datePosted": "2024-02-01", "flagged": false},
			{"id": 11, "movieId": 1, "userId": 1, "reviewTitle": "Classic", "reviewBody": "Ripley lives", "rating": 10, "datePosted": "2024-02-02", "flagged": false},
			{"id": 12, "movieId": 3, "userId": 7, "reviewTitle": "Paranoia", "reviewBody": "Blair is the thing", "rating": 8, "datePosted": "2024-02-03", "flagged": false},
		},
	})
	return f, database.NewMovieAdapter(f.store)
}

func TestCatalogService_SearchUsesIndexRanking(t *testing.T) {
	ctx := context.Background()
	f, movies := catalogFixture(t)
	service := services.NewCatalogService(movies, search.NewMemoryIndex(), f.reviews)

	n, err := service.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := service.Search(ctx, "alien")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alien", got[0].Title)
	assert.Equal(t, "Aliens", got[1].Title)

	got, err = service.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogService_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	f, movies := catalogFixture(t)
	index := search.NewMemoryIndex()
	service := services.NewCatalogService(movies, index, f.reviews)

	_, err := service.Create(ctx, regular, &entities.Movie{Title: "Heat"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = service.Create(ctx, admin, &entities.Movie{Title: "Heat", IMDbRating: 11})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	created, err := service.Create(ctx, admin, &entities.Movie{ID: 99, Title: " Heat ", IMDbRating: 8.3, Duration: 170})
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)
	assert.Equal(t, "Heat", created.Title)

	found, err := service.Search(ctx, "heat")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].ID)

	updated, err := service.Update(ctx, admin, 4, &entities.MovieUpdate{Title: ptr("Heat (1995)")})
	require.NoError(t, err)
	assert.Equal(t, "Heat (1995)", updated.Title)
	assert.Equal(t, 170, updated.Duration)

	require.NoError(t, service.Delete(ctx, admin, 4))
	found, err = service.Search(ctx, "heat")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = service.Get(ctx, 4)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMovieNotFound))
}

func TestCatalogService_Reviews(t *testing.T) {
	ctx := context.Background()
	f, movies := catalogFixture(t)
	service := services.NewCatalogService(movies, search.NewMemoryIndex(), f.reviews)

	reviews, err := service.Reviews(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, idsOf(reviews))

	reviews, err = service.Reviews(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	_, err = service.Reviews(ctx, 404)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMovieNotFound))
}

func idsOf(reviews []*entities.Review) []int {
	ids := make([]int, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	return ids
}
