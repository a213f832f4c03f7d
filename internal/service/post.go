package service

import (
	"context"
	"log/slog"

	"github.com/forgo/micropost/internal/model"
)

// PostRepository defines the interface for post storage
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Post, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error)
	Delete(ctx context.Context, id string) error
	CountByAuthor(ctx context.Context, authorID string) (int, error)
}

// ValidationRecorder observes validation outcomes (e.g. for metrics)
type ValidationRecorder interface {
	RecordValidation(v model.Violations)
}

// PostService handles post business logic
type PostService struct {
	repo     PostRepository
	recorder ValidationRecorder
}

// PostServiceConfig holds configuration for the post service
type PostServiceConfig struct {
	Repo     PostRepository
	Recorder ValidationRecorder // optional
}

// NewPostService creates a new post service
func NewPostService(cfg PostServiceConfig) *PostService {
	return &PostService{
		repo:     cfg.Repo,
		recorder: cfg.Recorder,
	}
}

// Validate runs the post rules without persisting anything
func (s *PostService) Validate(content, authorID *string) model.Violations {
	v := model.ValidatePost(content, authorID)
	if s.recorder != nil {
		s.recorder.RecordValidation(v)
	}
	return v
}

// Create validates and stores a new post for authorID
func (s *PostService) Create(ctx context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error) {
	var content *string
	if req != nil {
		content = req.Content
	}

	if v := s.Validate(content, &authorID); !v.Empty() {
		slog.Debug("post rejected",
			slog.String("author_id", authorID),
			slog.String("violations", v.String()),
		)
		return nil, &PostRejectedError{Violations: v}
	}

	post := &model.Post{
		AuthorID: authorID,
		Content:  *content,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Get retrieves a post by ID
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// ListByAuthor retrieves an author's posts, newest first
func (s *PostService) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*model.Post, error) {
	if authorID == "" {
		return nil, ErrAuthorUnknown
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByAuthor(ctx, authorID, limit, offset)
}

// Feed retrieves the most recent posts across all authors
func (s *PostService) Feed(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListRecent(ctx, limit, offset)
}

// CountByAuthor returns how many posts an author has published
func (s *PostService) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	if authorID == "" {
		return 0, ErrAuthorUnknown
	}
	return s.repo.CountByAuthor(ctx, authorID)
}

// Delete removes a post. Only its author may delete it.
func (s *PostService) Delete(ctx context.Context, requesterID, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return ErrNotPostAuthor
	}
	return s.repo.Delete(ctx, id)
}

// Helper functions

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > model.MaxPostPageSize {
		limit = model.DefaultPostPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
