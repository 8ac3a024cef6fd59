package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// HTTPCachePrefix namespaces cached HTTP responses
const HTTPCachePrefix = "http:cache:"

// Response cache groups. Keys are http:cache:<group>:<hash>.
const (
	CacheGroupMovies  = "movies"
	CacheGroupReviews = "reviews"
	CacheGroupTMDB    = "tmdb"
)

// HTTPCacheGroupPattern matches every cached response in group
func HTTPCacheGroupPattern(group string) string {
	return HTTPCachePrefix + group + ":*"
}
