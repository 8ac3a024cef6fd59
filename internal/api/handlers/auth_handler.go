package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/spoileralert/backend/internal/api/middleware"
	"github.com/spoileralert/backend/internal/domain/entities"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// IdentityService defines the login and password operations used by the handler
type IdentityService interface {
	Login(ctx context.Context, username, password string) (*entities.AccessToken, error)
	Logout(ctx context.Context, token string) (string, error)
	ForgotPassword(ctx context.Context, email string) (*entities.PasswordReset, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles login, logout and password resets
type AuthHandler struct {
	identity IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Login handles POST /token. Credentials arrive as a form or JSON.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if values["username"] == "" || values["password"] == "" {
		respondWithError(w, r, apperrors.NewValidationError("username and password are required"))
		return
	}

	token, err := h.identity.Login(r.Context(), values["username"], values["password"])
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, token)
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	message, err := h.identity.Logout(r.Context(), middleware.BearerToken(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithMessage(w, http.StatusOK, message)
}

// ForgotPassword handles POST /forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	reset, err := h.identity.ForgotPassword(r.Context(), values["email"])
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, reset)
}

// ResetPassword handles POST /reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := h.identity.ResetPassword(r.Context(), values["token"], values["new_password"]); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithMessage(w, http.StatusOK, "Password reset successful")
}

// AdminDashboard handles GET /adminDashboard
func (h *AuthHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	respondWithMessage(w, http.StatusOK, "Welcome to the admin dashboard")
}

// formValues reads a flat set of string fields from a JSON object or a
// urlencoded/multipart form
func formValues(r *http.Request) (map[string]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&raw); err != nil {
			return nil, apperrors.NewValidationError("invalid request payload")
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				values[k] = s
			}
		}
		return values, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, apperrors.NewValidationError("invalid form payload")
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, apperrors.NewValidationError("invalid form payload")
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	return values, nil
}
