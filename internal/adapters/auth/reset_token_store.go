package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spoileralert/backend/internal/domain/providers"
)

const resetTokenPrefix = "auth:reset:"

// ErrInvalidResetToken is returned for unknown, used or expired tokens
var ErrInvalidResetToken = providers.ErrInvalidResetToken

// CacheResetTokenStore keeps reset tokens in a CacheProvider so they expire
// with the cache TTL and are shared across instances when Redis is in use
type CacheResetTokenStore struct {
	cache providers.CacheProvider
	now   func() time.Time
}

// NewCacheResetTokenStore creates a reset token store over cache
func NewCacheResetTokenStore(cache providers.CacheProvider) *CacheResetTokenStore {
	return &CacheResetTokenStore{cache: cache, now: time.Now}
}

var _ providers.ResetTokenStore = (*CacheResetTokenStore)(nil)

// Issue creates a token for email valid for ttl
func (s *CacheResetTokenStore) Issue(ctx context.Context, email string, ttl time.Duration) (string, time.Time, error) {
	token := uuid.NewString()
	expiresAt := s.now().Add(ttl)

	if err := s.cache.Set(ctx, resetTokenPrefix+token, []byte(email), int(ttl.Seconds())); err != nil {
		return "", time.Time{}, fmt.Errorf("store reset token: %w", err)
	}
	return token, expiresAt, nil
}

// Consume returns the email for token and invalidates it
func (s *CacheResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", ErrInvalidResetToken
	}

	key := resetTokenPrefix + token
	email, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, providers.ErrCacheMiss) {
			return "", ErrInvalidResetToken
		}
		return "", fmt.Errorf("load reset token: %w", err)
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		return "", fmt.Errorf("invalidate reset token: %w", err)
	}
	return string(email), nil
}
