// Package service implements the business logic layer for the micropost API.
//
// Services hold the post workflow: every submission is run through
// model.ValidatePost before anything reaches a repository, and a rejected
// submission is reported with its complete set of violations.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces so that the SurrealDB and
// Postgres adapters, as well as test mocks, can be swapped freely.
//
// # Error Handling
//
//	post, err := svc.Create(ctx, authorID, &req)
//	var rejected *service.PostRejectedError
//	if errors.As(err, &rejected) {
//	    // rejected.Violations lists every failed rule
//	}
package service
