package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
)

// CacheRule caches GET responses for paths it matches
type CacheRule struct {
	Prefix     string
	Contains   string
	Group      string
	TTLSeconds int
}

func (c CacheRule) matches(path string) bool {
	if !strings.HasPrefix(path, c.Prefix) {
		return false
	}
	return c.Contains == "" || strings.Contains(path, c.Contains)
}

// DefaultCacheRules covers the public read routes. Rules are checked in order.
var DefaultCacheRules = []CacheRule{
	{Prefix: "/movies/", Contains: "/reviews", Group: providers.CacheGroupReviews, TTLSeconds: 30},
	{Prefix: "/movies/search", Group: providers.CacheGroupMovies, TTLSeconds: 120},
	{Prefix: "/movies", Group: providers.CacheGroupMovies, TTLSeconds: 600},
	{Prefix: "/reviews", Group: providers.CacheGroupReviews, TTLSeconds: 30},
	{Prefix: "/tmdb/", Group: providers.CacheGroupTMDB, TTLSeconds: 3600},
}

// CacheMiddleware provides HTTP response caching. Successful writes under a
// cached prefix drop the affected groups.
type CacheMiddleware struct {
	cache   providers.CacheProvider
	rules   []CacheRule
	metrics *observability.Metrics
}

// NewCacheMiddleware creates a cache middleware with DefaultCacheRules.
// metrics may be nil.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return NewCacheMiddlewareWithRules(cache, metrics, DefaultCacheRules)
}

// NewCacheMiddlewareWithRules creates a cache middleware with custom rules
func NewCacheMiddlewareWithRules(cache providers.CacheProvider, metrics *observability.Metrics, rules []CacheRule) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, rules: rules, metrics: metrics}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method != http.MethodGet {
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if recorder.statusCode < http.StatusBadRequest {
				m.invalidateFor(r.Context(), r.URL.Path)
			}
			return
		}

		rule, ok := m.ruleFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := cacheKey(rule.Group, r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			observability.RecordCacheHit(r.Context(), m.metrics, rule.Group)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		observability.RecordCacheMiss(r.Context(), m.metrics, rule.Group)
		w.Header().Set("X-Cache", "MISS")
		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), rule.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			}
		}
	})
}

// Invalidate drops every cached response in the given groups
func (m *CacheMiddleware) Invalidate(ctx context.Context, groups ...string) {
	for _, group := range groups {
		if err := m.cache.DeletePattern(ctx, providers.HTTPCacheGroupPattern(group)); err != nil {
			log.Warn().Err(err).Str("group", group).Msg("failed to invalidate response cache")
		}
	}
}

func (m *CacheMiddleware) invalidateFor(ctx context.Context, path string) {
	switch {
	case strings.HasPrefix(path, "/movies"):
		m.Invalidate(ctx, providers.CacheGroupMovies, providers.CacheGroupReviews)
	case strings.HasPrefix(path, "/reviews"), strings.HasPrefix(path, "/admin/reviews"), strings.HasPrefix(path, "/users"):
		m.Invalidate(ctx, providers.CacheGroupReviews)
	}
}

func (m *CacheMiddleware) ruleFor(path string) (CacheRule, bool) {
	for _, rule := range m.rules {
		if rule.matches(path) {
			return rule, true
		}
	}
	return CacheRule{}, false
}

func cacheKey(group string, r *http.Request) string {
	key := fmt.Sprintf("%s:%s", r.Method, r.URL.Path)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return providers.HTTPCachePrefix + group + ":" + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

// statusRecorder captures only the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
