// Package middleware provides HTTP middleware for the micropost API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery: request tracing, slog access log, panic guard
//   - CORS, Compress: browser access and gzip responses
//   - Auth / OptionalAuth: bearer token validation; the token's author
//     reference becomes the request's user ID
//   - RateLimit: token bucket per author (client address when anonymous)
//   - Idempotency: replays POST responses for a repeated Idempotency-Key
//
// Compose them with Chain; the first middleware listed runs first:
//
//	h := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.Recovery,
//	)
//
// After authentication, handlers read the author with:
//
//	userID := middleware.GetUserID(r.Context())
//
// RateLimiter and IdempotencyStore run a cleanup goroutine; call Stop on
// shutdown.
package middleware
