package handler

import (
	"errors"
	"log/slog"

	"github.com/forgo/micropost/internal/database"
	"github.com/forgo/micropost/internal/model"
	"github.com/forgo/micropost/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// All handlers go through here so status codes stay consistent.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var rejected *service.PostRejectedError

	switch {
	// ===== Validation Errors → 422 =====
	case errors.As(err, &rejected):
		return model.NewPostRejectedError(rejected.Violations)
	case errors.Is(err, service.ErrAuthorUnknown):
		return model.NewValidationError([]model.FieldError{{Field: "author_id", Message: err.Error()}})

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotPostAuthor):
		pd := model.NewForbiddenError(err.Error())
		pd.Code = model.ErrCodeNotAuthor
		return pd

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrPostNotFound):
		return model.NewNotFoundError("post")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("post already exists")

	// ===== Storage Errors → 503 =====
	case errors.Is(err, database.ErrConnection):
		return model.NewServiceUnavailableError("storage is unavailable")

	// ===== Default → 500 =====
	default:
		slog.Error("unhandled service error", slog.String("error", err.Error()))
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
