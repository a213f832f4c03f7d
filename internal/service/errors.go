package service

import (
	"errors"

	"github.com/forgo/micropost/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Post Errors =====
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("only the author may modify this post")
	ErrPostRejected  = errors.New("post rejected")
	ErrAuthorUnknown = errors.New("author reference is required")
)

// PostRejectedError carries the full set of rules a submission violated.
// It matches ErrPostRejected with errors.Is.
type PostRejectedError struct {
	Violations model.Violations
}

func (e *PostRejectedError) Error() string {
	return ErrPostRejected.Error() + ": " + e.Violations.String()
}

func (e *PostRejectedError) Unwrap() error {
	return ErrPostRejected
}
