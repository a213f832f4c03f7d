package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/forgo/micropost/internal/middleware"
	"github.com/forgo/micropost/internal/model"
)

// PostService is the post workflow the handler depends on
type PostService interface {
	Validate(content, authorID *string) model.Violations
	Create(ctx context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Feed(ctx context.Context, limit, offset int) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Post, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
	Delete(ctx context.Context, requesterID, id string) error
}

// PostHandler handles post endpoints
type PostHandler struct {
	postService PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Validate handles POST /v1/posts/validate - dry-run the post rules.
// Always 200; the body says whether the post would be accepted.
func (h *PostHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	authorID := req.AuthorID
	if authorID == nil {
		if userID := middleware.GetUserID(r.Context()); userID != "" {
			authorID = &userID
		}
	}

	v := h.postService.Validate(req.Content, authorID)
	WriteData(w, http.StatusOK, model.NewValidationResult(v), nil)
}

// Create handles POST /v1/posts - publish a post as the caller
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	post, err := h.postService.Create(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, post, map[string]string{
		"self":   "/v1/posts/" + post.ID,
		"author": "/v1/users/" + post.AuthorID + "/posts",
	})
}

// Get handles GET /v1/posts/{postId}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postId")
	if postID == "" {
		WriteError(w, model.NewBadRequestError("post ID required"))
		return
	}

	post, err := h.postService.Get(r.Context(), postID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, post, map[string]string{
		"self":   "/v1/posts/" + post.ID,
		"author": "/v1/users/" + post.AuthorID + "/posts",
	})
}

// Delete handles DELETE /v1/posts/{postId} - only the author may delete
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	postID := r.PathValue("postId")
	if postID == "" {
		WriteError(w, model.NewBadRequestError("post ID required"))
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// Feed handles GET /v1/posts - newest posts across all authors
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r.URL.Query())

	posts, err := h.postService.Feed(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list posts"))
		return
	}

	WriteCollection(w, http.StatusOK, posts, &PaginationInfo{
		Limit:   limit,
		Offset:  offset,
		HasMore: len(posts) == limit,
	}, map[string]string{
		"self": "/v1/posts",
	})
}

// ListByAuthor handles GET /v1/users/{userId}/posts - an author's timeline
func (h *PostHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := r.PathValue("userId")
	if authorID == "" {
		WriteError(w, model.NewBadRequestError("user ID required"))
		return
	}

	limit, offset := parsePage(r.URL.Query())

	posts, err := h.postService.ListByAuthor(r.Context(), authorID, limit, offset)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list posts"))
		return
	}

	total, err := h.postService.CountByAuthor(r.Context(), authorID)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "count posts"))
		return
	}

	WriteCollection(w, http.StatusOK, posts, &PaginationInfo{
		Limit:   limit,
		Offset:  offset,
		Total:   &total,
		HasMore: offset+len(posts) < total,
	}, map[string]string{
		"self": "/v1/users/" + authorID + "/posts",
	})
}

// parsePage reads limit/offset query parameters, falling back to defaults
// for missing or out-of-range values
func parsePage(q url.Values) (int, int) {
	limit := model.DefaultPostPageSize
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= model.MaxPostPageSize {
		limit = l
	}

	offset := 0
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	return limit, offset
}
