package routes

import (
	"net/http"

	"github.com/spoileralert/backend/internal/api/handlers"
	"github.com/spoileralert/backend/internal/api/middleware"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler   *handlers.AuthHandler
	userHandler   *handlers.UserHandler
	movieHandler  *handlers.MovieHandler
	reviewHandler *handlers.ReviewHandler
	socialHandler *handlers.SocialHandler
	adminHandler  *handlers.AdminHandler
	tmdbHandler   *handlers.TMDBHandler
	sseHandler    *handlers.SSEHandler

	auth            middleware.Authenticator
	loaders         func(http.Handler) http.Handler
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Options carries the cross-cutting pieces of the HTTP stack. Everything but
// Auth may be nil.
type Options struct {
	Auth            middleware.Authenticator
	Events          *handlers.SSEHandler
	Loaders         func(http.Handler) http.Handler
	CacheMiddleware *middleware.CacheMiddleware
	AllowedOrigins  []string
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	movieHandler *handlers.MovieHandler,
	reviewHandler *handlers.ReviewHandler,
	socialHandler *handlers.SocialHandler,
	adminHandler *handlers.AdminHandler,
	tmdbHandler *handlers.TMDBHandler,
	opts Options,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		authHandler:     authHandler,
		userHandler:     userHandler,
		movieHandler:    movieHandler,
		reviewHandler:   reviewHandler,
		socialHandler:   socialHandler,
		adminHandler:    adminHandler,
		tmdbHandler:     tmdbHandler,
		sseHandler:      opts.Events,
		auth:            opts.Auth,
		loaders:         opts.Loaders,
		cacheMiddleware: opts.CacheMiddleware,
		allowedOrigins:  opts.AllowedOrigins,
		metrics:         opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	user := middleware.RequireAuth(r.auth)
	admin := middleware.RequireAdmin(r.auth)
	withUser := func(h http.HandlerFunc) http.Handler { return user(h) }
	withAdmin := func(h http.HandlerFunc) http.Handler { return admin(h) }

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth
	r.mux.HandleFunc("POST /token", r.authHandler.Login)
	r.mux.Handle("POST /logout", withUser(r.authHandler.Logout))
	r.mux.HandleFunc("POST /forgot-password", r.authHandler.ForgotPassword)
	r.mux.HandleFunc("POST /reset-password", r.authHandler.ResetPassword)
	r.mux.Handle("GET /adminDashboard", withAdmin(r.authHandler.AdminDashboard))

	// Users
	r.mux.Handle("GET /users", withAdmin(r.userHandler.List))
	r.mux.HandleFunc("POST /users", r.userHandler.Register)
	r.mux.Handle("GET /users/me", withUser(r.userHandler.Me))
	r.mux.Handle("GET /users/{id}", withUser(r.userHandler.Get))
	r.mux.Handle("PUT /users/{id}", withUser(r.userHandler.Update))
	r.mux.Handle("DELETE /users/{id}", withAdmin(r.userHandler.Delete))
	r.mux.Handle("PATCH /admin/users/{id}", withAdmin(r.userHandler.AdminUpdate))
	r.mux.Handle("POST /admin/users/{id}/grant", withAdmin(r.userHandler.GrantAdmin))
	r.mux.Handle("POST /admin/users/{id}/revoke", withAdmin(r.userHandler.RevokeAdmin))

	// Movies
	r.mux.HandleFunc("GET /movies", r.movieHandler.List)
	r.mux.HandleFunc("GET /movies/search", r.movieHandler.Search)
	r.mux.HandleFunc("GET /movies/{id}", r.movieHandler.Get)
	r.mux.HandleFunc("GET /movies/{id}/reviews", r.movieHandler.Reviews)
	r.mux.Handle("POST /movies", withAdmin(r.movieHandler.Create))
	r.mux.Handle("PUT /movies/{id}", withAdmin(r.movieHandler.Update))
	r.mux.Handle("DELETE /movies/{id}", withAdmin(r.movieHandler.Delete))

	// Reviews
	r.mux.HandleFunc("GET /reviews", r.reviewHandler.List)
	r.mux.HandleFunc("GET /reviews/search", r.reviewHandler.Search)
	r.mux.HandleFunc("GET /reviews/{id}", r.reviewHandler.Get)
	r.mux.Handle("POST /reviews", withUser(r.reviewHandler.Create))
	r.mux.Handle("PUT /reviews/{id}", withUser(r.reviewHandler.Update))
	r.mux.Handle("DELETE /reviews/{id}", withUser(r.reviewHandler.Delete))
	r.mux.HandleFunc("GET /reviews/{id}/replies", r.socialHandler.Replies)
	r.mux.Handle("POST /reviews/{id}/replies", withUser(r.socialHandler.Reply))

	// Likes and favorites
	r.mux.Handle("GET /likes", withUser(r.socialHandler.Likes))
	r.mux.Handle("POST /likes/{reviewId}", withUser(r.socialHandler.Like))
	r.mux.Handle("DELETE /likes/{reviewId}", withUser(r.socialHandler.Unlike))
	r.mux.Handle("GET /favorites", withUser(r.socialHandler.Favorites))
	r.mux.Handle("POST /favorites/{movieId}", withUser(r.socialHandler.AddFavorite))
	r.mux.Handle("DELETE /favorites/{movieId}", withUser(r.socialHandler.RemoveFavorite))

	// Moderation
	r.mux.Handle("POST /admin/reviews/{reviewId}/markInappropriate", withAdmin(r.adminHandler.MarkInappropriate))
	r.mux.Handle("GET /admin/reports/reviews", withAdmin(r.adminHandler.FlaggedReport))
	if r.sseHandler != nil {
		r.mux.Handle("GET /admin/events", withAdmin(r.sseHandler.StreamModerationEvents))
	}

	// Metadata enrichment
	if r.tmdbHandler != nil {
		r.mux.HandleFunc("GET /tmdb/details/{movieId}", r.tmdbHandler.Details)
		r.mux.HandleFunc("GET /tmdb/recommendations/{movieId}", r.tmdbHandler.Recommendations)
	}

	// Middleware is applied inside out; CORS ends up outermost so cached
	// responses also carry its headers.
	handler := middleware.CaptureRoute(r.mux)
	if r.loaders != nil {
		handler = r.loaders(handler)
	}
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
