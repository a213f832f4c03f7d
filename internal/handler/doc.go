// Package handler provides HTTP request handlers for the micropost API.
//
// PostHandler serves the post endpoints and Health serves liveness with a
// database ping. Handlers depend on small interfaces (PostService, Pinger) so
// they can be exercised with httptest and hand-written fakes.
//
// # Response Format
//
//   - WriteData: single resource with optional HATEOAS links
//   - WriteCollection: list of resources with offset pagination
//   - WriteError: RFC 9457 Problem Details
//
// Service errors are translated in one place, MapServiceError. A rejected
// post becomes a single 422 response listing every violated rule.
//
// # Example Usage
//
//	posts := handler.NewPostHandler(postService)
//	mux.HandleFunc("POST /v1/posts/validate", posts.Validate)
//	mux.HandleFunc("GET /v1/posts/{postId}", posts.Get)
package handler
