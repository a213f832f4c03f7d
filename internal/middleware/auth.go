package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/micropost/internal/model"
	"github.com/forgo/micropost/pkg/jwt"
)

// TokenValidator verifies bearer tokens. *jwt.Service satisfies it.
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// Auth returns a middleware that requires a valid bearer token and puts the
// author reference into the request context
func Auth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if r.Header.Get("Authorization") == "" {
					model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				} else {
					model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				}
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeTokenError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth is like Auth but lets unauthenticated requests through.
// A valid token still populates the context.
func OptionalAuth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := tokens.Validate(token); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated author reference from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// Helper functions

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.AuthorID())
	return context.WithValue(ctx, ClaimsKey, claims)
}

func writeTokenError(w http.ResponseWriter, err error) {
	var pd *model.ProblemDetails
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		pd = model.NewUnauthorizedError("token expired")
		pd.Code = model.ErrCodeTokenExpired
	case errors.Is(err, jwt.ErrInvalidSignature):
		pd = model.NewUnauthorizedError("invalid token signature")
		pd.Code = model.ErrCodeTokenInvalid
	case errors.Is(err, jwt.ErrMissingAuthor):
		pd = model.NewUnauthorizedError("token does not identify an author")
		pd.Code = model.ErrCodeTokenInvalid
	default:
		pd = model.NewUnauthorizedError("invalid token")
		pd.Code = model.ErrCodeTokenInvalid
	}
	pd.WriteJSON(w)
}
