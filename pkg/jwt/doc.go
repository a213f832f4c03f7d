// Package jwt signs and verifies RS256 bearer tokens that carry the author
// reference for post submissions.
//
// # Token Generation
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "micropost.forgo.software",
//	    ExpirationMins: 15,
//	})
//
//	token, err := svc.Sign(jwt.Claims{UserID: "user:alice"})
//
// A service built from a public key alone can only verify.
//
// # Token Validation
//
//	claims, err := svc.Validate(tokenString)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the client to refresh
//	}
//	authorID := claims.AuthorID() // user_id, falling back to sub
//
// Tokens signed with another algorithm, by another issuer, or without an
// author reference are rejected.
package jwt
