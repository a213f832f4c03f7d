package main

import (
	"net/http"

	"github.com/forgo/micropost/internal/handler"
	"github.com/forgo/micropost/internal/middleware"
)

// routeDeps holds everything the HTTP surface needs
type routeDeps struct {
	Posts          *handler.PostHandler
	DB             handler.Pinger
	Metrics        http.Handler
	Tokens         middleware.TokenValidator
	RateLimiter    *middleware.RateLimiter
	Idempotency    *middleware.IdempotencyStore
	AllowedOrigins []string
}

// newRouter registers the routes and wraps them in the global middleware
func newRouter(d routeDeps) http.Handler {
	auth := middleware.Auth(d.Tokens)
	optionalAuth := middleware.OptionalAuth(d.Tokens)

	// Post creation is authenticated, then rate limited per author, then
	// deduplicated by Idempotency-Key.
	createChain := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			auth,
			middleware.RateLimit(d.RateLimiter),
			middleware.Idempotency(d.Idempotency),
		)
	}

	mux := http.NewServeMux()

	// Operational
	mux.HandleFunc("GET /health", handler.Health(d.DB))
	mux.Handle("GET /metrics", d.Metrics)

	// Posts
	mux.Handle("POST /v1/posts/validate", optionalAuth(http.HandlerFunc(d.Posts.Validate)))
	mux.Handle("POST /v1/posts", createChain(d.Posts.Create))
	mux.HandleFunc("GET /v1/posts", d.Posts.Feed)
	mux.HandleFunc("GET /v1/posts/{postId}", d.Posts.Get)
	mux.Handle("DELETE /v1/posts/{postId}", auth(http.HandlerFunc(d.Posts.Delete)))
	mux.HandleFunc("GET /v1/users/{userId}/posts", d.Posts.ListByAuthor)

	return middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(d.AllowedOrigins),
		middleware.Compress,
	)
}
