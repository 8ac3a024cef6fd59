package providers

import (
	"context"
	"errors"
	"time"

	"github.com/spoileralert/backend/internal/domain/entities"
)

// TokenClaims are the identity fields carried by a bearer token
type TokenClaims struct {
	Username  string
	UserID    int
	Role      entities.Role
	ExpiresAt time.Time
}

// TokenIssuer issues and verifies bearer credentials
type TokenIssuer interface {
	Issue(user *entities.User) (token string, expiresAt time.Time, err error)
	Verify(token string) (*TokenClaims, error)
}

// PasswordHasher hashes and checks passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// ErrInvalidResetToken is returned for unknown, used or expired reset tokens
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// ResetTokenStore holds single-use password reset tokens
type ResetTokenStore interface {
	// Issue creates a token for email valid for ttl
	Issue(ctx context.Context, email string, ttl time.Duration) (token string, expiresAt time.Time, err error)

	// Consume returns the email for token and invalidates it
	Consume(ctx context.Context, token string) (string, error)
}
