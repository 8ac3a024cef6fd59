package handlers

import (
	"context"
	"net/http"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// CatalogService defines the movie operations used by the handler
type CatalogService interface {
	List(ctx context.Context) ([]*entities.Movie, error)
	Get(ctx context.Context, id int) (*entities.Movie, error)
	Search(ctx context.Context, query string) ([]*entities.Movie, error)
	Create(ctx context.Context, actor *entities.CurrentUser, movie *entities.Movie) (*entities.Movie, error)
	Update(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.MovieUpdate) (*entities.Movie, error)
	Delete(ctx context.Context, actor *entities.CurrentUser, id int) error
	Reviews(ctx context.Context, movieID int) ([]*entities.Review, error)
}

// MovieHandler handles catalog requests
type MovieHandler struct {
	catalog CatalogService
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(catalog CatalogService) *MovieHandler {
	return &MovieHandler{catalog: catalog}
}

// List handles GET /movies
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.List(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, movies)
}

// Get handles GET /movies/{id}
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	movie, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, movie)
}

// Search handles GET /movies/search?query=
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, movies)
}

// Create handles POST /movies
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	var movie entities.Movie
	if err := decodeJSON(r, &movie); err != nil {
		respondWithError(w, r, err)
		return
	}

	created, err := h.catalog.Create(r.Context(), principal(r), &movie)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// Update handles PUT /movies/{id}
func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in entities.MovieUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	movie, err := h.catalog.Update(r.Context(), principal(r), id, &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, movie)
}

// Delete handles DELETE /movies/{id}
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := h.catalog.Delete(r.Context(), principal(r), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reviews handles GET /movies/{id}/reviews
func (h *MovieHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	reviews, err := h.catalog.Reviews(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reviews)
}
