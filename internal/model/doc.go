// Package model defines domain entities and data structures for the micropost API.
//
// The model package contains the Post entity, the request/response types used on
// the wire, the post validation rules, and RFC 9457 error definitions. Models are
// used across all layers of the application.
//
// # Post Validation
//
// ValidatePost is a pure function over the submitted values. It evaluates every
// rule and reports the complete set of violations:
//
//	v := model.ValidatePost(&content, &authorID)
//	if !v.Empty() {
//	    return model.NewPostRejectedError(v)
//	}
//
// A nil pointer means the value was not supplied at all; an empty string is
// treated the same way. Content length is measured in characters.
//
// # Validation Constants
//
//	const (
//	    MaxPostContentLength = 140
//	    DefaultPostPageSize  = 20
//	    MaxPostPageSize      = 50
//	)
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go. Rejected posts carry
// a "violations" extension member listing every violated rule.
package model
