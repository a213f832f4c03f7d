package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Post represents a short user-submitted text record
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Constraints
const (
	MaxPostContentLength = 140 // characters, inclusive
	DefaultPostPageSize  = 20
	MaxPostPageSize      = 50
)

// ViolationKind identifies which post rule failed
type ViolationKind string

const (
	ViolationMissingContent ViolationKind = "missing_content"
	ViolationMissingAuthor  ViolationKind = "missing_author"
	ViolationContentTooLong ViolationKind = "content_too_long"
)

// violationOrder fixes the reporting order of a Violations set
var violationOrder = []ViolationKind{
	ViolationMissingContent,
	ViolationMissingAuthor,
	ViolationContentTooLong,
}

// AllViolationKinds returns every known kind in reporting order
func AllViolationKinds() []ViolationKind {
	out := make([]ViolationKind, len(violationOrder))
	copy(out, violationOrder)
	return out
}

// IsValid returns true if the kind is one of the known violation kinds
func (k ViolationKind) IsValid() bool {
	switch k {
	case ViolationMissingContent, ViolationMissingAuthor, ViolationContentTooLong:
		return true
	default:
		return false
	}
}

// Field returns the request field the violation applies to
func (k ViolationKind) Field() string {
	if k == ViolationMissingAuthor {
		return "author_id"
	}
	return "content"
}

// Message returns a human readable description of the violation
func (k ViolationKind) Message() string {
	switch k {
	case ViolationMissingContent:
		return "content is required"
	case ViolationMissingAuthor:
		return "author is required"
	case ViolationContentTooLong:
		return "content must be at most 140 characters"
	default:
		return string(k)
	}
}

// Violations is the set of rules a post submission failed.
// The zero value is an empty set, which means the post is accepted.
type Violations struct {
	kinds map[ViolationKind]struct{}
}

// NewViolations builds a set from the given kinds, dropping duplicates
func NewViolations(kinds ...ViolationKind) Violations {
	var v Violations
	for _, k := range kinds {
		v.add(k)
	}
	return v
}

func (v *Violations) add(k ViolationKind) {
	if v.kinds == nil {
		v.kinds = make(map[ViolationKind]struct{}, len(violationOrder))
	}
	v.kinds[k] = struct{}{}
}

// Empty reports whether no rule was violated
func (v Violations) Empty() bool {
	return len(v.kinds) == 0
}

// Len returns the number of distinct violations
func (v Violations) Len() int {
	return len(v.kinds)
}

// Has reports whether the set contains kind k
func (v Violations) Has(k ViolationKind) bool {
	_, ok := v.kinds[k]
	return ok
}

// Kinds returns the violations in stable reporting order
func (v Violations) Kinds() []ViolationKind {
	if len(v.kinds) == 0 {
		return nil
	}
	kinds := make([]ViolationKind, 0, len(v.kinds))
	for _, k := range violationOrder {
		if v.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// FieldErrors renders the violations as validation field errors
func (v Violations) FieldErrors() []FieldError {
	var errors []FieldError
	for _, k := range v.Kinds() {
		errors = append(errors, FieldError{
			Field:   k.Field(),
			Message: k.Message(),
		})
	}
	return errors
}

// String joins the violation kinds with commas
func (v Violations) String() string {
	kinds := v.Kinds()
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// ValidatePost checks a candidate post against every post rule and returns
// all violations. A nil pointer means the value was not supplied. Every rule
// is evaluated; the result is never short-circuited.
func ValidatePost(content, authorID *string) Violations {
	var v Violations

	if authorID == nil || *authorID == "" {
		v.add(ViolationMissingAuthor)
	}

	if content == nil || *content == "" {
		v.add(ViolationMissingContent)
	}

	if content != nil && utf8.RuneCountInString(*content) > MaxPostContentLength {
		v.add(ViolationContentTooLong)
	}

	return v
}

// CreatePostRequest represents a request to publish a post
type CreatePostRequest struct {
	Content *string `json:"content"`
}

// Validate validates the request on behalf of the given author
func (r *CreatePostRequest) Validate(authorID string) []FieldError {
	return ValidatePost(r.Content, &authorID).FieldErrors()
}

// ValidatePostRequest represents a dry-run validation request.
// AuthorID is optional; when omitted the caller's identity is used.
type ValidatePostRequest struct {
	Content  *string `json:"content"`
	AuthorID *string `json:"author_id,omitempty"`
}

// ValidationResult is the outcome of a dry-run validation
type ValidationResult struct {
	Accepted   bool            `json:"accepted"`
	Violations []ViolationKind `json:"violations"`
}

// NewValidationResult converts a Violations set into its wire form
func NewValidationResult(v Violations) ValidationResult {
	kinds := v.Kinds()
	if kinds == nil {
		kinds = []ViolationKind{}
	}
	return ValidationResult{
		Accepted:   v.Empty(),
		Violations: kinds,
	}
}

// ByCreatedOnDesc sorts posts newest first
type ByCreatedOnDesc []*Post

func (o ByCreatedOnDesc) Len() int           { return len(o) }
func (o ByCreatedOnDesc) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o ByCreatedOnDesc) Less(i, j int) bool { return o[i].CreatedOn.After(o[j].CreatedOn) }
