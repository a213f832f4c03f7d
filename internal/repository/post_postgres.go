package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgo/micropost/internal/database"
	"github.com/forgo/micropost/internal/model"
)

// pgIDPrefix keeps post IDs in the same "post:<id>" shape SurrealDB produces
const pgIDPrefix = "post:"

// pgQuerier is the subset of pgxpool.Pool used by PostgresPostRepository
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ pgQuerier = (*pgxpool.Pool)(nil)

// PostgresPostRepository handles post data access on Postgres
type PostgresPostRepository struct {
	db pgQuerier
}

// NewPostgresPostRepository creates a post repository backed by a pgx pool
func NewPostgresPostRepository(pool *pgxpool.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{db: pool}
}

// Create stores a new post and fills in its ID and timestamps
func (r *PostgresPostRepository) Create(ctx context.Context, post *model.Post) error {
	const q = `
		INSERT INTO posts (author_id, content)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	var id int64
	err := r.db.QueryRow(ctx, q, post.AuthorID, post.Content).Scan(&id, &post.CreatedOn, &post.UpdatedOn)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %v", database.ErrDuplicate, err)
		}
		return fmt.Errorf("%w: insert post: %v", database.ErrQuery, err)
	}

	post.ID = formatPgID(id)
	return nil
}

// GetByID retrieves a post by ID. A missing post returns (nil, nil).
func (r *PostgresPostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	pk, ok := parsePgID(id)
	if !ok {
		return nil, nil
	}

	const q = `SELECT id, author_id, content, created_at, updated_at FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRow(ctx, q, pk))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get post: %v", database.ErrQuery, err)
	}
	return post, nil
}

// ListByAuthor retrieves an author's posts, newest first
func (r *PostgresPostRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Post, error) {
	const q = `
		SELECT id, author_id, content, created_at, updated_at
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, q, authorID, limit, offset)
}

// ListRecent retrieves the newest posts across all authors
func (r *PostgresPostRepository) ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	const q = `
		SELECT id, author_id, content, created_at, updated_at
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	return r.list(ctx, q, limit, offset)
}

// Delete removes a post
func (r *PostgresPostRepository) Delete(ctx context.Context, id string) error {
	pk, ok := parsePgID(id)
	if !ok {
		return nil
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, pk); err != nil {
		return fmt.Errorf("%w: delete post: %v", database.ErrQuery, err)
	}
	return nil
}

// CountByAuthor counts an author's posts
func (r *PostgresPostRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM posts WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count posts: %v", database.ErrQuery, err)
	}
	return n, nil
}

func (r *PostgresPostRepository) list(ctx context.Context, q string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", database.ErrQuery, err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan post: %v", database.ErrQuery, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", database.ErrQuery, err)
	}
	return posts, nil
}

// Helper functions

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		id   int64
		post model.Post
	)
	if err := row.Scan(&id, &post.AuthorID, &post.Content, &post.CreatedOn, &post.UpdatedOn); err != nil {
		return nil, err
	}
	post.ID = formatPgID(id)
	return &post, nil
}

func formatPgID(id int64) string {
	return pgIDPrefix + strconv.FormatInt(id, 10)
}

// parsePgID accepts "post:42" or "42"
func parsePgID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimPrefix(id, pgIDPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
