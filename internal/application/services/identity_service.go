package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

const revokedTokenPrefix = "auth:revoked:"

// IdentityService resolves bearer tokens to principals and handles login,
// logout and password resets
type IdentityService struct {
	users    repositories.UserRepository
	tokens   providers.TokenIssuer
	hasher   providers.PasswordHasher
	resets   providers.ResetTokenStore
	cache    providers.CacheProvider
	resetTTL time.Duration
}

// NewIdentityService creates a new identity service. cache holds revoked
// tokens and may be nil, in which case logout does not revoke.
func NewIdentityService(
	users repositories.UserRepository,
	tokens providers.TokenIssuer,
	hasher providers.PasswordHasher,
	resets providers.ResetTokenStore,
	cache providers.CacheProvider,
	resetTTL time.Duration,
) *IdentityService {
	return &IdentityService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		resets:   resets,
		cache:    cache,
		resetTTL: resetTTL,
	}
}

func unauthenticated() error {
	return apperrors.NewUnauthorizedError("invalid authentication credentials")
}

// CurrentUser verifies token and returns the principal built from the stored
// user, so role changes apply on the next request.
func (s *IdentityService) CurrentUser(ctx context.Context, token string) (*entities.CurrentUser, error) {
	if token == "" {
		return nil, unauthenticated()
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		log.Debug().Err(err).Msg("rejected bearer token")
		return nil, unauthenticated()
	}

	if s.cache != nil {
		revoked, err := s.cache.Exists(ctx, revokedTokenKey(token))
		if err != nil {
			return nil, apperrors.NewInternalError("failed to check token revocation", err)
		}
		if revoked {
			return nil, unauthenticated()
		}
	}

	user, err := s.users.GetByUsername(ctx, claims.Username)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, unauthenticated()
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, apperrors.NewForbiddenError("account banned due to repeated violations")
	}
	return user.Principal(), nil
}

// RequireAdmin resolves token and fails with Forbidden unless the principal
// is an admin
func (s *IdentityService) RequireAdmin(ctx context.Context, token string) (*entities.CurrentUser, error) {
	principal, err := s.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin privileges required")
	}
	return principal, nil
}

// Login checks credentials and issues an access token. Banned accounts are
// refused before the password is checked.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*entities.AccessToken, error) {
	invalid := apperrors.NewUnauthorizedError("invalid username or password")

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if user.IsBanned {
		return nil, apperrors.NewForbiddenError("account banned due to repeated violations")
	}
	if !s.hasher.Compare(user.Password, password) {
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	log.Info().Int("user_id", user.ID).Msg("user logged in")
	return &entities.AccessToken{
		Message:     "Login successful",
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
		ExpiresAt:   expiresAt,
	}, nil
}

// Logout revokes token until it would have expired
func (s *IdentityService) Logout(ctx context.Context, token string) (string, error) {
	principal, err := s.CurrentUser(ctx, token)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		claims, err := s.tokens.Verify(token)
		if err != nil {
			return "", unauthenticated()
		}
		ttl := int(time.Until(claims.ExpiresAt).Seconds()) + 1
		if ttl > 0 {
			if err := s.cache.Set(ctx, revokedTokenKey(token), []byte("1"), ttl); err != nil {
				return "", apperrors.NewInternalError("failed to revoke token", err)
			}
		}
	}

	return fmt.Sprintf("User '%s' has been logged out successfully.", principal.Username), nil
}

// ForgotPassword issues a reset token for the account registered to email
func (s *IdentityService) ForgotPassword(ctx context.Context, email string) (*entities.PasswordReset, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewCodedNotFoundError(apperrors.CodeUserNotFound, "email not found")
		}
		return nil, err
	}

	token, expiresAt, err := s.resets.Issue(ctx, strings.ToLower(user.Email), s.resetTTL)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue reset token", err)
	}
	return &entities.PasswordReset{ResetToken: token, ExpiresAt: expiresAt}, nil
}

// ResetPassword consumes a reset token and stores the new password
func (s *IdentityService) ResetPassword(ctx context.Context, token, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	invalid := apperrors.NewValidationError("invalid or expired token")
	email, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, providers.ErrInvalidResetToken) {
			return invalid
		}
		return apperrors.NewInternalError("failed to read reset token", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return invalid
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	_, err = s.users.Update(ctx, user.ID, func(u *entities.User) error {
		u.Password = hash
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("user_id", user.ID).Msg("password reset")
	return nil
}

func revokedTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedTokenPrefix + hex.EncodeToString(sum[:])
}
