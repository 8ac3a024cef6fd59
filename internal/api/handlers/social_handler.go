package handlers

import (
	"context"
	"net/http"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// SocialService defines the reply, like and favorite operations used by the handler
type SocialService interface {
	Replies(ctx context.Context, reviewID int) ([]*entities.Reply, error)
	Reply(ctx context.Context, actor *entities.CurrentUser, reviewID int, in *entities.ReplyCreate) (*entities.Reply, error)
	Like(ctx context.Context, actor *entities.CurrentUser, reviewID int) error
	Unlike(ctx context.Context, actor *entities.CurrentUser, reviewID int) error
	Likes(ctx context.Context, actor *entities.CurrentUser) ([]*entities.LikedReviewFull, error)
	AddFavorite(ctx context.Context, actor *entities.CurrentUser, movieID int) error
	RemoveFavorite(ctx context.Context, actor *entities.CurrentUser, movieID int) error
	Favorites(ctx context.Context, actor *entities.CurrentUser) ([]*entities.Movie, error)
}

// SocialHandler handles replies, likes and favorites
type SocialHandler struct {
	social SocialService
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(social SocialService) *SocialHandler {
	return &SocialHandler{social: social}
}

// Replies handles GET /reviews/{id}/replies
func (h *SocialHandler) Replies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	replies, err := h.social.Replies(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, replies)
}

// Reply handles POST /reviews/{id}/replies
func (h *SocialHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in entities.ReplyCreate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	reply, err := h.social.Reply(r.Context(), principal(r), id, &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, reply)
}

// Likes handles GET /likes
func (h *SocialHandler) Likes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.social.Likes(r.Context(), principal(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, likes)
}

// Like handles POST /likes/{reviewId}
func (h *SocialHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "reviewId", h.social.Like, http.StatusCreated, "Review liked")
}

// Unlike handles DELETE /likes/{reviewId}
func (h *SocialHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "reviewId", h.social.Unlike, http.StatusOK, "Review unliked")
}

// Favorites handles GET /favorites
func (h *SocialHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	movies, err := h.social.Favorites(r.Context(), principal(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, movies)
}

// AddFavorite handles POST /favorites/{movieId}
func (h *SocialHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "movieId", h.social.AddFavorite, http.StatusCreated, "Movie added to favorites")
}

// RemoveFavorite handles DELETE /favorites/{movieId}
func (h *SocialHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "movieId", h.social.RemoveFavorite, http.StatusOK, "Movie removed from favorites")
}

func (h *SocialHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	param string,
	apply func(context.Context, *entities.CurrentUser, int) error,
	status int,
	message string,
) {
	id, err := pathID(r, param)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := apply(r.Context(), principal(r), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithMessage(w, status, message)
}
