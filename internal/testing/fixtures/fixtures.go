package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/forgo/micropost/internal/database"
	"github.com/forgo/micropost/internal/model"
	"github.com/forgo/micropost/internal/repository"
)

// Factory creates test fixtures
type Factory struct {
	db    database.Database
	posts *repository.PostRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		db:    db,
		posts: repository.NewPostRepository(db),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ctx returns a context that is cancelled when the test ends
func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// AuthorID returns a fresh plain author reference
func AuthorID() string {
	return "author_" + randomID()
}

// ============================================================================
// Post Fixtures
// ============================================================================

// PostOpts customizes post creation
type PostOpts struct {
	Content   string
	CreatedOn time.Time
}

// WithContent sets the post content
func WithContent(content string) func(*PostOpts) {
	return func(o *PostOpts) { o.Content = content }
}

// WithCreatedOn backdates the post
func WithCreatedOn(ts time.Time) func(*PostOpts) {
	return func(o *PostOpts) { o.CreatedOn = ts }
}

// CreatePost stores a post for authorID with optional customizations
func (f *Factory) CreatePost(t *testing.T, authorID string, opts ...func(*PostOpts)) *model.Post {
	t.Helper()

	o := &PostOpts{
		Content: "post " + randomID(),
	}
	for _, fn := range opts {
		fn(o)
	}

	post := &model.Post{
		AuthorID: authorID,
		Content:  o.Content,
	}
	if err := f.posts.Create(ctx(t), post); err != nil {
		t.Fatalf("fixtures: failed to create post: %v", err)
	}

	if !o.CreatedOn.IsZero() {
		query := `UPDATE type::record("post", $id) SET created_on = $created_on, updated_on = $created_on`
		vars := map[string]interface{}{
			"id":         strings.TrimPrefix(post.ID, "post:"),
			"created_on": o.CreatedOn.UTC(),
		}
		if err := f.db.Execute(ctx(t), query, vars); err != nil {
			t.Fatalf("fixtures: failed to backdate post: %v", err)
		}
		post.CreatedOn = o.CreatedOn.UTC()
		post.UpdatedOn = o.CreatedOn.UTC()
	}

	return post
}

// CreatePosts stores n posts for authorID, one minute apart, oldest first
func (f *Factory) CreatePosts(t *testing.T, authorID string, n int) []*model.Post {
	t.Helper()

	start := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, f.CreatePost(t, authorID, WithCreatedOn(start.Add(time.Duration(i)*time.Minute))))
	}
	return posts
}
