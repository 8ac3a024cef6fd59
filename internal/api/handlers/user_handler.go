package handlers

import (
	"context"
	"net/http"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// UserService defines the account operations used by the handler
type UserService interface {
	Register(ctx context.Context, in *entities.UserCreate) (*entities.UserProfile, error)
	List(ctx context.Context) ([]*entities.UserProfile, error)
	Get(ctx context.Context, id int) (*entities.UserProfile, error)
	Update(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.UserUpdate) (*entities.UserProfile, error)
	Delete(ctx context.Context, actor *entities.CurrentUser, id int) error
	AdminUpdate(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.AdminUserUpdate) (*entities.UserProfile, error)
	GrantAdmin(ctx context.Context, actor *entities.CurrentUser, id int) (*entities.UserProfile, error)
	RevokeAdmin(ctx context.Context, actor *entities.CurrentUser, id int) (*entities.UserProfile, error)
}

// UserHandler handles account requests
type UserHandler struct {
	users UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in entities.UserCreate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	profile, err := h.users.Register(r.Context(), &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, profile)
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Get(r.Context(), principal(r).ID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// Get handles GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	profile, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// Update handles PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in entities.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	profile, err := h.users.Update(r.Context(), principal(r), id, &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), principal(r), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminUpdate handles PATCH /admin/users/{id}
func (h *UserHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in entities.AdminUserUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	profile, err := h.users.AdminUpdate(r.Context(), principal(r), id, &in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// GrantAdmin handles POST /admin/users/{id}/grant
func (h *UserHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.users.GrantAdmin)
}

// RevokeAdmin handles POST /admin/users/{id}/revoke
func (h *UserHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.users.RevokeAdmin)
}

func (h *UserHandler) changeRole(
	w http.ResponseWriter,
	r *http.Request,
	change func(context.Context, *entities.CurrentUser, int) (*entities.UserProfile, error),
) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	profile, err := change(r.Context(), principal(r), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}
