package handlers

import (
	"context"
	"net/http"

	"github.com/spoileralert/backend/internal/api/loaders"
	"github.com/spoileralert/backend/internal/domain/entities"
)

// ModerationService defines the moderation operations used by the handler
type ModerationService interface {
	FlagReview(ctx context.Context, reviewID int, actor *entities.CurrentUser) (*entities.FlagResult, error)
	GetFlaggedReviews(ctx context.Context, actor *entities.CurrentUser, page, pageSize int, sortBy string) (*entities.PagedFlagged, error)
}

// AdminHandler handles the moderation endpoints
type AdminHandler struct {
	moderation ModerationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(moderation ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// MarkInappropriate handles POST /admin/reviews/{reviewId}/markInappropriate
func (h *AdminHandler) MarkInappropriate(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.moderation.FlagReview(r.Context(), reviewID, principal(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// FlaggedReport handles GET /admin/reports/reviews?page&pageSize&sortBy
func (h *AdminHandler) FlaggedReport(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", entities.DefaultFlaggedPageSize)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	report, err := h.moderation.GetFlaggedReviews(r.Context(), principal(r), page, pageSize, r.URL.Query().Get("sortBy"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if l := loaders.For(r.Context()); l != nil && len(report.Reviews) > 0 {
		ids := make([]int, len(report.Reviews))
		for i, review := range report.Reviews {
			ids[i] = review.UserID
		}
		names := l.Usernames(r.Context(), ids)
		for _, review := range report.Reviews {
			review.AuthorUsername = names[review.UserID]
		}
	}
	respondWithJSON(w, http.StatusOK, report)
}
