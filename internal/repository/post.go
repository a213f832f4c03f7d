package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/micropost/internal/database"
	"github.com/forgo/micropost/internal/model"
)

const postTable = "post"

// PostRepository handles post data access on SurrealDB
type PostRepository struct {
	db database.Database
}

// NewPostRepository creates a new post repository
func NewPostRepository(db database.Database) *PostRepository {
	return &PostRepository{db: db}
}

// Create stores a new post and fills in its ID and timestamps
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		CREATE post CONTENT {
			author_id: $author_id,
			content: $content,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"author_id": post.AuthorID,
		"content":   post.Content,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	post.ID = recordID(created["id"])
	post.CreatedOn = parseTime(created["created_on"])
	post.UpdatedOn = parseTime(created["updated_on"])
	return nil
}

// GetByID retrieves a post by ID. A missing post, or an ID that cannot name
// a post, returns (nil, nil).
func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	key, ok := postKey(id)
	if !ok {
		return nil, nil
	}

	query := `SELECT * FROM type::record($table, $id)`
	vars := map[string]interface{}{"table": postTable, "id": key}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parsePost(result)
}

// ListByAuthor retrieves an author's posts, newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Post, error) {
	query := `
		SELECT * FROM post
		WHERE author_id = $author_id
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{
		"author_id": authorID,
		"limit":     limit,
		"offset":    offset,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parsePosts(result)
}

// ListRecent retrieves the newest posts across all authors
func (r *PostRepository) ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	query := `
		SELECT * FROM post
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parsePosts(result)
}

// Delete removes a post. IDs that cannot name a post are a no-op.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	key, ok := postKey(id)
	if !ok {
		return nil
	}

	query := `DELETE type::record($table, $id)`
	vars := map[string]interface{}{"table": postTable, "id": key}
	return r.db.Execute(ctx, query, vars)
}

// CountByAuthor counts an author's posts
func (r *PostRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	query := `
		SELECT count() AS count FROM post
		WHERE author_id = $author_id
		GROUP ALL
	`
	vars := map[string]interface{}{"author_id": authorID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if data, ok := result.(map[string]interface{}); ok {
		return extractCountValue(data["count"]), nil
	}
	return 0, nil
}

// Helper functions

// postKey extracts the record key from a post ID ("post:abc" or "abc").
// IDs naming another table or carrying characters SurrealDB never generates
// are rejected.
func postKey(id string) (string, bool) {
	key := strings.TrimPrefix(id, postTable+":")
	key = strings.TrimSuffix(strings.TrimPrefix(key, "⟨"), "⟩")
	if key == "" {
		return "", false
	}
	for _, c := range key {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return "", false
		}
	}
	return key, true
}

func parsePost(result interface{}) (*model.Post, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected post format %T", result)
	}

	return &model.Post{
		ID:        recordID(data["id"]),
		AuthorID:  getString(data, "author_id"),
		Content:   getString(data, "content"),
		CreatedOn: parseTime(data["created_on"]),
		UpdatedOn: parseTime(data["updated_on"]),
	}, nil
}

func parsePosts(result []interface{}) ([]*model.Post, error) {
	records := extractQueryResults(result)
	posts := make([]*model.Post, 0, len(records))
	for _, rec := range records {
		post, err := parsePost(rec)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
