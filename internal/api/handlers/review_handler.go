package handlers

import (
	"context"
	"net/http"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// ReviewService defines the review operations used by the handler
type ReviewService interface {
	List(ctx context.Context) ([]*entities.Review, error)
	Get(ctx context.Context, id int) (*entities.Review, error)
	Search(ctx context.Context, query string) ([]*entities.Review, error)
	Create(ctx context.Context, actor *entities.CurrentUser, in *entities.ReviewCreate) (*entities.Review, error)
	Update(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.ReviewUpdate) (*entities.Review, error)
	Delete(ctx context.Context, actor *entities.CurrentUser, id int) error
}

// ReviewHandler handles review requests
type ReviewHandler struct {
	reviews ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// List handles GET /reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.List(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

// Get handles GET /reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	review, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// Search handles GET /reviews/search?query=
func (h *ReviewHandler) Search(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}

// Create handles POST /reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in entities.ReviewCreate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	review, err := h.reviews.Create(r.Context(), principal(r), &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}

// Update handles PUT /reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in entities.ReviewUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	review, err := h.reviews.Update(r.Context(), principal(r), id, &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := h.reviews.Delete(r.Context(), principal(r), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
