package handlers

import (
	"context"
	"net/http"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// EnrichmentService defines the metadata lookups used by the handler
type EnrichmentService interface {
	Details(ctx context.Context, movieID int) (*entities.MovieDetails, error)
	Recommendations(ctx context.Context, movieID int) ([]entities.Recommendation, error)
}

// TMDBHandler proxies movie metadata lookups
type TMDBHandler struct {
	enrichment EnrichmentService
}

// NewTMDBHandler creates a new metadata handler
func NewTMDBHandler(enrichment EnrichmentService) *TMDBHandler {
	return &TMDBHandler{enrichment: enrichment}
}

// Details handles GET /tmdb/details/{movieId}
func (h *TMDBHandler) Details(w http.ResponseWriter, r *http.Request) {
	movieID, err := pathID(r, "movieId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	details, err := h.enrichment.Details(r.Context(), movieID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, details)
}

// Recommendations handles GET /tmdb/recommendations/{movieId}
func (h *TMDBHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	movieID, err := pathID(r, "movieId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	recs, err := h.enrichment.Recommendations(r.Context(), movieID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, recs)
}
