package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

func reviewsStore(t *testing.T) (repositories.ReviewRepository, *jsonstore.Gateway, string) {
	store, dir := newStore(t, map[string]any{
		jsonstore.Reviews: []map[string]any{
			{"id": 4, "movieId": 1, "userId": 1, "reviewTitle": "Fine", "reviewBody": "ok", "rating": 6, "datePosted": "2024-01-01", "flagged": false},
			{"id": 5, "movieId": 1, "userId": 7, "reviewTitle": "Spoilers", "reviewBody": "He dies", "rating": 2, "datePosted": "2024-01-02", "flagged": true, "flaggedAt": "2024-01-03T00:00:00Z"},
		},
	})
	return database.NewReviewAdapter(store), store, dir
}

func TestReviewAdapter_UpdateGuards(t *testing.T) {
	tests := []struct {
		name   string
		id     int
		mutate func(*entities.Review)
	}{
		{"flagged review cannot be unflagged", 5, func(r *entities.Review) { r.Flagged = false }},
		{"author cannot change", 4, func(r *entities.Review) { r.UserID = 7 }},
		{"id cannot change", 4, func(r *entities.Review) { r.ID = 40 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews, _, dir := reviewsStore(t)
			before := readFile(t, dir, jsonstore.Reviews)

			_, err := reviews.Update(context.Background(), tt.id, func(r *entities.Review) error {
				tt.mutate(r)
				return nil
			})

			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), err.Error())
			assert.Equal(t, before, readFile(t, dir, jsonstore.Reviews))
		})
	}
}

func TestReviewAdapter_UpdateEditsContent(t *testing.T) {
	reviews, _, _ := reviewsStore(t)
	ctx := context.Background()

	_, err := reviews.Update(ctx, 5, func(r *entities.Review) error {
		r.ReviewTitle = "Edited"
		return nil
	})
	require.NoError(t, err)

	stored, err := reviews.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Edited", stored.ReviewTitle)
	assert.True(t, stored.Flagged)
}

func TestReviewAdapter_UpdateMissing(t *testing.T) {
	reviews, _, _ := reviewsStore(t)

	_, err := reviews.Update(context.Background(), 404, func(r *entities.Review) error { return nil })

	assert.True(t, apperrors.HasCode(err, apperrors.CodeReviewNotFound))
}

func TestReviewAdapter_CreateAfterDeleteGetsFreshID(t *testing.T) {
	reviews, store, _ := reviewsStore(t)
	ctx := context.Background()

	require.NoError(t, reviews.Delete(ctx, 5))

	repost := &entities.Review{MovieID: 1, UserID: 7, ReviewTitle: "Spoilers", ReviewBody: "He dies", Rating: 2}
	require.NoError(t, reviews.Create(ctx, repost))
	assert.Equal(t, 6, repost.ID)
	assert.False(t, repost.Flagged)

	// Replies and movies draw from their own sequences.
	replies := database.NewReplyAdapter(store)
	reply := &entities.Reply{ReviewID: 6, UserID: 1, ReplyBody: "rude"}
	require.NoError(t, replies.Create(ctx, reply))
	assert.Equal(t, 1, reply.ID)
}
