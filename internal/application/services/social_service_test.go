package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/application/services"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

type mockMetadataProvider struct {
	mock.Mock
}

func (m *mockMetadataProvider) Details(ctx context.Context, externalID int) (*entities.MovieDetails, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MovieDetails), args.Error(1)
}

func (m *mockMetadataProvider) Recommendations(ctx context.Context, externalID int) ([]entities.Recommendation, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Recommendation), args.Error(1)
}

func newSocialService(f *fixture, movies repositories.MovieRepository, metadata providers.MetadataProvider) *services.SocialService {
	return services.NewSocialService(
		f.reviews,
		movies,
		f.users,
		database.NewReplyAdapter(f.store),
		database.NewLikeAdapter(f.store),
		database.NewFavoriteAdapter(f.store),
		metadata,
	)
}

func TestSocialService_Replies(t *testing.T) {
	ctx := context.Background()
	f, movies := catalogFixture(t)
	service := newSocialService(f, movies, nil)

	reply, err := service.Reply(ctx, regular, 11, &entities.ReplyCreate{ReplyBody: " Agreed "})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.ID)
	assert.Equal(t, "Agreed", reply.ReplyBody)
	assert.Regexp(t, regexp.MustCompile(`^\d{2} [A-Z][a-z]+ \d{4}$`), reply.DatePosted)

	_, err = service.Reply(ctx, regular, 11, &entities.ReplyCreate{ReplyBody: "   "})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = service.Reply(ctx, regular, 404, &entities.ReplyCreate{ReplyBody: "hello"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReviewNotFound))

	replies, err := service.Replies(ctx, 11)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, 7, replies[0].UserID)
}

func TestSocialService_Likes(t *testing.T) {
	ctx := context.Background()
	f, movies := catalogFixture(t)
	metadata := new(mockMetadataProvider)
	metadata.On("Details", mock.Anything, 348).Return(&entities.MovieDetails{MovieID: 348, Poster: "https://img/alien.jpg"}, nil).Once()
	metadata.On("Details", mock.Anything, 3).Return(nil, errors.New("upstream down")).Once()
	service := newSocialService(f, movies, metadata)

	require.NoError(t, service.Like(ctx, regular, 10))
	require.NoError(t, service.Like(ctx, regular, 11))
	require.NoError(t, service.Like(ctx, regular, 12))

	err := service.Like(ctx, regular, 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	err = service.Like(ctx, regular, 404)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeReviewNotFound))

	likes, err := service.Likes(ctx, regular)
	require.NoError(t, err)
	require.Len(t, likes, 3)
	assert.Equal(t, &entities.LikedReviewFull{ID: 10, MovieID: 1, MovieTitle: "Alien", Username: "critic", ReviewTitle: "Chestburster", Poster: "https://img/alien.jpg"}, likes[0])
	assert.Equal(t, "admin", likes[1].Username)
	assert.Equal(t, "https://img/alien.jpg", likes[1].Poster)
	assert.Equal(t, "The Thing", likes[2].MovieTitle)
	assert.Empty(t, likes[2].Poster)
	metadata.AssertExpectations(t)

	// likes are per user
	others, err := service.Likes(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, service.Unlike(ctx, regular, 11))
	err = service.Unlike(ctx, regular, 11)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLikeNotFound))
}

func TestSocialService_Favorites(t *testing.T) {
	ctx := context.Background()
	f, movies := catalogFixture(t)
	service := newSocialService(f, movies, nil)

	require.NoError(t, service.AddFavorite(ctx, regular, 3))
	require.NoError(t, service.AddFavorite(ctx, regular, 1))

	err := service.AddFavorite(ctx, regular, 3)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	err = service.AddFavorite(ctx, regular, 404)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMovieNotFound))

	favs, err := service.Favorites(ctx, regular)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Alien", "The Thing"}, []string{favs[0].Title, favs[1].Title})

	require.NoError(t, service.RemoveFavorite(ctx, regular, 3))
	err = service.RemoveFavorite(ctx, regular, 3)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeFavoriteNotFound))

	assert.Contains(t, string(f.read(t, jsonstore.Favorites)), `"movieId": 1`)
}

func TestSocialService_RequiresActor(t *testing.T) {
	f, movies := catalogFixture(t)
	service := newSocialService(f, movies, nil)

	err := service.Like(context.Background(), nil, 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}
