package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.True(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_StorageAndAuth(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/lib/spoileralert")
	t.Setenv("STORAGE_CACHE_ENABLED", "false")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "5")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://spoileralert.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/spoileralert", cfg.Storage.DataDir)
	assert.False(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://spoileralert.app"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, filepath.Join("/var/lib/spoileralert", "users.json"), cfg.Storage.CollectionPath("users"))
}

func TestLoad_TypesenseConfig(t *testing.T) {
	t.Setenv("TYPESENSE_ENABLED", "true")
	t.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	t.Setenv("TYPESENSE_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Typesense.Enabled)
	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
}

func TestLoad_RejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("RESET_TOKEN_TTL_MINUTES", "0")

	_, err := Load()
	assert.Error(t, err)
}
