// Package repository implements post storage for the micropost API.
//
// Two implementations satisfy service.PostRepository:
//
//   - PostRepository runs SurrealQL through the database.Database interface
//   - PostgresPostRepository runs SQL through a pgx connection pool
//
// Both return post IDs in the "post:<id>" form and report a missing post from
// GetByID as (nil, nil), leaving the not-found decision to the service layer.
//
// # Query Patterns
//
//   - Parameterized queries ($variable in SurrealQL, $n in SQL)
//   - type::record() for safe ID handling
//   - time::now() / now() for server-side timestamps
//   - LIMIT/START (LIMIT/OFFSET) pagination, newest first
//
// # Example Usage
//
//	repo := NewPostRepository(db)
//	post, err := repo.GetByID(ctx, "post:abc123")
//	if err != nil {
//	    return err
//	}
//	if post == nil {
//	    // Handle not found
//	}
package repository
