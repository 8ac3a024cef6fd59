package database

import (
	"context"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// ReplyAdapter implements ReplyRepository over the replies collection
type ReplyAdapter struct {
	store *jsonstore.Gateway
}

// NewReplyAdapter creates a new reply adapter
func NewReplyAdapter(store *jsonstore.Gateway) repositories.ReplyRepository {
	return &ReplyAdapter{store: store}
}

// Create assigns the next id and stores a reply
func (a *ReplyAdapter) Create(ctx context.Context, reply *entities.Reply) error {
	return jsonstore.Update(ctx, a.store, jsonstore.Replies, func(replies []entities.Reply) ([]entities.Reply, bool, error) {
		id, err := assignID(ctx, a.store, jsonstore.Replies, replies, func(r *entities.Reply) int { return r.ID })
		if err != nil {
			return nil, false, err
		}
		reply.ID = id
		return append(replies, *reply), true, nil
	})
}

// ListByReview returns the replies to a review in posting order
func (a *ReplyAdapter) ListByReview(ctx context.Context, reviewID int) ([]*entities.Reply, error) {
	replies, err := jsonstore.Load[entities.Reply](ctx, a.store, jsonstore.Replies)
	if err != nil {
		return nil, err
	}
	out := []*entities.Reply{}
	for i := range replies {
		if replies[i].ReviewID == reviewID {
			out = append(out, &replies[i])
		}
	}
	return out, nil
}

// LikeAdapter implements LikeRepository over the likedReviews collection
type LikeAdapter struct {
	store *jsonstore.Gateway
}

// NewLikeAdapter creates a new like adapter
func NewLikeAdapter(store *jsonstore.Gateway) repositories.LikeRepository {
	return &LikeAdapter{store: store}
}

// Add stores a like
func (a *LikeAdapter) Add(ctx context.Context, like entities.LikedReview) error {
	return jsonstore.Update(ctx, a.store, jsonstore.LikedReviews, func(likes []entities.LikedReview) ([]entities.LikedReview, bool, error) {
		if indexOf(likes, func(l *entities.LikedReview) bool { return *l == like }) >= 0 {
			return nil, false, apperrors.NewConflictError("review already liked")
		}
		return append(likes, like), true, nil
	})
}

// Remove deletes a like
func (a *LikeAdapter) Remove(ctx context.Context, like entities.LikedReview) error {
	return deleteOne(ctx, a.store, jsonstore.LikedReviews,
		func(l *entities.LikedReview) bool { return *l == like },
		func() error { return apperrors.NewCodedNotFoundError(apperrors.CodeLikeNotFound, "like not found") },
	)
}

// ListByUser returns a user's likes
func (a *LikeAdapter) ListByUser(ctx context.Context, userID int) ([]entities.LikedReview, error) {
	likes, err := jsonstore.Load[entities.LikedReview](ctx, a.store, jsonstore.LikedReviews)
	if err != nil {
		return nil, err
	}
	out := []entities.LikedReview{}
	for _, l := range likes {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

// FavoriteAdapter implements FavoriteRepository over the favorites collection
type FavoriteAdapter struct {
	store *jsonstore.Gateway
}

// NewFavoriteAdapter creates a new favorite adapter
func NewFavoriteAdapter(store *jsonstore.Gateway) repositories.FavoriteRepository {
	return &FavoriteAdapter{store: store}
}

// Add stores a favorite
func (a *FavoriteAdapter) Add(ctx context.Context, fav entities.Favorite) error {
	return jsonstore.Update(ctx, a.store, jsonstore.Favorites, func(favs []entities.Favorite) ([]entities.Favorite, bool, error) {
		if indexOf(favs, func(f *entities.Favorite) bool { return *f == fav }) >= 0 {
			return nil, false, apperrors.NewConflictError("movie already in favorites")
		}
		return append(favs, fav), true, nil
	})
}

// Remove deletes a favorite
func (a *FavoriteAdapter) Remove(ctx context.Context, fav entities.Favorite) error {
	return deleteOne(ctx, a.store, jsonstore.Favorites,
		func(f *entities.Favorite) bool { return *f == fav },
		func() error { return apperrors.NewCodedNotFoundError(apperrors.CodeFavoriteNotFound, "favorite not found") },
	)
}

// ListByUser returns a user's favorites
func (a *FavoriteAdapter) ListByUser(ctx context.Context, userID int) ([]entities.Favorite, error) {
	favs, err := jsonstore.Load[entities.Favorite](ctx, a.store, jsonstore.Favorites)
	if err != nil {
		return nil, err
	}
	out := []entities.Favorite{}
	for _, f := range favs {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}
