package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/auth"
	"github.com/spoileralert/backend/internal/adapters/cache"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/pkg/config"
)

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := auth.NewJWTIssuer(&config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})
	user := &entities.User{ID: 5, Username: "dana", Role: entities.RoleAdmin}

	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "dana", claims.Username)
	assert.Equal(t, 5, claims.UserID)
	assert.Equal(t, entities.RoleAdmin, claims.Role)
}

func TestJWTIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := auth.NewJWTIssuer(&config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})
	other := auth.NewJWTIssuer(&config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour})

	token, _, err := other.Issue(&entities.User{ID: 1, Username: "eve"})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestJWTIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := auth.NewJWTIssuer(&config.AuthConfig{JWTSecret: "secret", TokenTTL: -time.Minute})

	token, _, err := issuer.Issue(&entities.User{ID: 1, Username: "eve"})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestJWTIssuer_RejectsGarbage(t *testing.T) {
	issuer := auth.NewJWTIssuer(&config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})
	_, err := issuer.Verify("not-a-token")
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	hasher := auth.NewBcryptHasher(4)

	hash, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)
	assert.True(t, hasher.Compare(hash, "Passw0rd!"))
	assert.False(t, hasher.Compare(hash, "wrong"))
}

func TestResetTokenStore_SingleUse(t *testing.T) {
	ctx := context.Background()
	store := auth.NewCacheResetTokenStore(cache.NewMemoryAdapter())

	token, _, err := store.Issue(ctx, "a@b.io", 15*time.Minute)
	require.NoError(t, err)

	email, err := store.Consume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.io", email)

	_, err = store.Consume(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}

func TestResetTokenStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := auth.NewCacheResetTokenStore(cache.NewMemoryAdapterWithClock(func() time.Time { return now }))

	token, _, err := store.Issue(ctx, "a@b.io", 15*time.Minute)
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = store.Consume(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}

func TestResetTokenStore_UnknownToken(t *testing.T) {
	store := auth.NewCacheResetTokenStore(cache.NewMemoryAdapter())
	_, err := store.Consume(context.Background(), "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}
