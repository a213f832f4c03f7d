package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/micropost/internal/database"
	"github.com/forgo/micropost/internal/middleware"
	"github.com/forgo/micropost/internal/model"
	"github.com/forgo/micropost/internal/service"
)

// ============================================================================
// Test Helpers
// ============================================================================

// memRepo is an in-memory service.PostRepository
type memRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post
	seq   int
	clock time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		posts: make(map[string]*model.Post),
		clock: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *memRepo) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.clock = r.clock.Add(time.Second)
	post.ID = fmt.Sprintf("post:%d", r.seq)
	post.CreatedOn, post.UpdatedOn = r.clock, r.clock
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) filter(keep func(*model.Post) bool, limit, offset int) []*model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.Post
	for _, p := range r.posts {
		if keep(p) {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Sort(model.ByCreatedOnDesc(all))
	out := make([]*model.Post, 0)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}
	return out
}

func (r *memRepo) ListByAuthor(_ context.Context, authorID string, limit, offset int) ([]*model.Post, error) {
	return r.filter(func(p *model.Post) bool { return p.AuthorID == authorID }, limit, offset), nil
}

func (r *memRepo) ListRecent(_ context.Context, limit, offset int) ([]*model.Post, error) {
	return r.filter(func(*model.Post) bool { return true }, limit, offset), nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *memRepo) CountByAuthor(_ context.Context, authorID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

// newTestMux wires the post routes the same way cmd/server does, with the
// caller identity taken from the X-Test-User header instead of a JWT
func newTestMux(repo *memRepo) http.Handler {
	h := NewPostHandler(service.NewPostService(service.PostServiceConfig{Repo: repo}))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/posts/validate", h.Validate)
	mux.HandleFunc("POST /v1/posts", h.Create)
	mux.HandleFunc("GET /v1/posts", h.Feed)
	mux.HandleFunc("GET /v1/posts/{postId}", h.Get)
	mux.HandleFunc("DELETE /v1/posts/{postId}", h.Delete)
	mux.HandleFunc("GET /v1/users/{userId}/posts", h.ListByAuthor)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get("X-Test-User"); user != "" {
			r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, user))
		}
		mux.ServeHTTP(w, r)
	})
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type dataEnvelope[T any] struct {
	Data       T                 `json:"data"`
	Pagination *PaginationInfo   `json:"pagination"`
	Links      map[string]string `json:"_links"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

// ============================================================================
// Validate
// ============================================================================

func TestValidate_DryRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		user     string
		body     string
		accepted bool
		want     []model.ViolationKind
	}{
		{
			name:     "empty body reports both missing fields",
			body:     "",
			accepted: false,
			want:     []model.ViolationKind{model.ViolationMissingContent, model.ViolationMissingAuthor},
		},
		{
			name:     "explicit author and content",
			body:     `{"content":"hello","author_id":"user:bob"}`,
			accepted: true,
			want:     []model.ViolationKind{},
		},
		{
			name:     "caller identity fills the author",
			user:     "user:alice",
			body:     `{"content":"hello"}`,
			accepted: true,
			want:     []model.ViolationKind{},
		},
		{
			name:     "explicit empty author is not replaced",
			user:     "user:alice",
			body:     `{"content":"hello","author_id":""}`,
			accepted: false,
			want:     []model.ViolationKind{model.ViolationMissingAuthor},
		},
		{
			name:     "too long and no author",
			body:     `{"content":"` + strings.Repeat("a", 141) + `"}`,
			accepted: false,
			want:     []model.ViolationKind{model.ViolationMissingAuthor, model.ViolationContentTooLong},
		},
		{
			name:     "exactly 140 characters",
			user:     "user:alice",
			body:     `{"content":"` + strings.Repeat("a", 140) + `"}`,
			accepted: true,
			want:     []model.ViolationKind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := newMemRepo()
			rr := do(t, newTestMux(repo), http.MethodPost, "/v1/posts/validate", tt.user, tt.body)

			require.Equal(t, http.StatusOK, rr.Code)
			got := decode[dataEnvelope[model.ValidationResult]](t, rr).Data
			assert.Equal(t, tt.accepted, got.Accepted)
			assert.Equal(t, tt.want, got.Violations)
			assert.Empty(t, repo.posts, "validation must not persist")
		})
	}
}

func TestValidate_UnknownFieldIsBadRequest(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestMux(newMemRepo()), http.MethodPost, "/v1/posts/validate", "", `{"text":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ============================================================================
// Create
// ============================================================================

func TestCreate_RequiresAuthentication(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestMux(newMemRepo()), http.MethodPost, "/v1/posts", "", `{"content":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	rr := do(t, newTestMux(repo), http.MethodPost, "/v1/posts", "user:alice", `{"content":"first post"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	env := decode[dataEnvelope[model.Post]](t, rr)
	assert.Equal(t, "post:1", env.Data.ID)
	assert.Equal(t, "user:alice", env.Data.AuthorID)
	assert.Equal(t, "first post", env.Data.Content)
	assert.Equal(t, "/v1/posts/post:1", env.Links["self"])
	assert.Len(t, repo.posts, 1)
}

func TestCreate_RejectedReportsEveryViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []model.ViolationKind
	}{
		{"missing content", `{}`, []model.ViolationKind{model.ViolationMissingContent}},
		{"null content", `{"content":null}`, []model.ViolationKind{model.ViolationMissingContent}},
		{"empty content", `{"content":""}`, []model.ViolationKind{model.ViolationMissingContent}},
		{"too long", `{"content":"` + strings.Repeat("語", 141) + `"}`, []model.ViolationKind{model.ViolationContentTooLong}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := newMemRepo()
			rr := do(t, newTestMux(repo), http.MethodPost, "/v1/posts", "user:alice", tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
			pd := decode[model.ProblemDetails](t, rr)
			assert.Equal(t, tt.want, pd.Violations)
			assert.Equal(t, model.ErrCodePostRejected, pd.Code)
			assert.Len(t, pd.Errors, len(tt.want))
			assert.Empty(t, repo.posts, "rejected post must not persist")
		})
	}
}

func TestCreate_MalformedJSON(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestMux(newMemRepo()), http.MethodPost, "/v1/posts", "user:alice", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ============================================================================
// Get / Delete
// ============================================================================

func TestGet(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	mux := newTestMux(repo)
	do(t, mux, http.MethodPost, "/v1/posts", "user:alice", `{"content":"hi"}`)

	rr := do(t, mux, http.MethodGet, "/v1/posts/post:1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hi", decode[dataEnvelope[model.Post]](t, rr).Data.Content)

	rr = do(t, mux, http.MethodGet, "/v1/posts/post:99", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "post not found", decode[model.ProblemDetails](t, rr).Detail)
}

func TestDelete_OnlyAuthor(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	mux := newTestMux(repo)
	do(t, mux, http.MethodPost, "/v1/posts", "user:alice", `{"content":"mine"}`)

	rr := do(t, mux, http.MethodDelete, "/v1/posts/post:1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, mux, http.MethodDelete, "/v1/posts/post:1", "user:mallory", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, model.ErrCodeNotAuthor, decode[model.ProblemDetails](t, rr).Code)

	rr = do(t, mux, http.MethodDelete, "/v1/posts/post:1", "user:alice", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, repo.posts)

	rr = do(t, mux, http.MethodDelete, "/v1/posts/post:1", "user:alice", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// ============================================================================
// Feed / ListByAuthor
// ============================================================================

func TestFeed_NewestFirstWithPagination(t *testing.T) {
	t.Parallel()

	mux := newTestMux(newMemRepo())
	for i := 1; i <= 3; i++ {
		do(t, mux, http.MethodPost, "/v1/posts", "user:alice", fmt.Sprintf(`{"content":"post %d"}`, i))
	}

	rr := do(t, mux, http.MethodGet, "/v1/posts?limit=2", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	env := decode[dataEnvelope[[]model.Post]](t, rr)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "post 3", env.Data[0].Content)
	assert.Equal(t, "post 2", env.Data[1].Content)
	assert.Equal(t, 2, env.Pagination.Limit)
	assert.True(t, env.Pagination.HasMore)

	rr = do(t, mux, http.MethodGet, "/v1/posts?limit=2&offset=2", "", "")
	env = decode[dataEnvelope[[]model.Post]](t, rr)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "post 1", env.Data[0].Content)
	assert.False(t, env.Pagination.HasMore)
}

func TestFeed_EmptyIsArray(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestMux(newMemRepo()), http.MethodGet, "/v1/posts", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestListByAuthor(t *testing.T) {
	t.Parallel()

	mux := newTestMux(newMemRepo())
	do(t, mux, http.MethodPost, "/v1/posts", "user:alice", `{"content":"a1"}`)
	do(t, mux, http.MethodPost, "/v1/posts", "user:bob", `{"content":"b1"}`)
	do(t, mux, http.MethodPost, "/v1/posts", "user:alice", `{"content":"a2"}`)

	rr := do(t, mux, http.MethodGet, "/v1/users/user:alice/posts?limit=1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	env := decode[dataEnvelope[[]model.Post]](t, rr)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "a2", env.Data[0].Content)
	require.NotNil(t, env.Pagination.Total)
	assert.Equal(t, 2, *env.Pagination.Total)
	assert.True(t, env.Pagination.HasMore)
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query              string
		wantLimit, wantOff int
	}{
		{"", 20, 0},
		{"limit=10&offset=5", 10, 5},
		{"limit=0", 20, 0},
		{"limit=51", 20, 0},
		{"limit=50", 50, 0},
		{"limit=abc&offset=-1", 20, 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/posts?"+tt.query, nil)
		limit, offset := parsePage(req.URL.Query())
		assert.Equal(t, tt.wantLimit, limit, tt.query)
		assert.Equal(t, tt.wantOff, offset, tt.query)
	}
}

// ============================================================================
// Error mapping
// ============================================================================

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rejected", &service.PostRejectedError{Violations: model.NewViolations(model.ViolationMissingContent)}, http.StatusUnprocessableEntity},
		{"wrapped rejected", fmt.Errorf("create: %w", &service.PostRejectedError{Violations: model.NewViolations(model.ViolationContentTooLong)}), http.StatusUnprocessableEntity},
		{"unknown author", service.ErrAuthorUnknown, http.StatusUnprocessableEntity},
		{"not author", service.ErrNotPostAuthor, http.StatusForbidden},
		{"not found", service.ErrPostNotFound, http.StatusNotFound},
		{"db down", fmt.Errorf("%w: dial", database.ErrConnection), http.StatusServiceUnavailable},
		{"duplicate", fmt.Errorf("%w: posts_pkey", database.ErrDuplicate), http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pd := MapServiceError(tt.err)
			require.NotNil(t, pd)
			assert.Equal(t, tt.status, pd.Status)
		})
	}

	assert.Nil(t, MapServiceError(nil))

	dup := MapServiceError(database.ErrDuplicate)
	assert.Equal(t, model.ErrCodeAlreadyExists, dup.Code)
}

func TestMapServiceErrorWithContext(t *testing.T) {
	t.Parallel()

	pd := MapServiceErrorWithContext(errors.New("boom"), "list posts")
	assert.Equal(t, "list posts: an unexpected error occurred", pd.Detail)

	pd = MapServiceErrorWithContext(service.ErrPostNotFound, "list posts")
	assert.Equal(t, "post not found", pd.Detail)
}
