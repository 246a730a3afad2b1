package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courses-api/internal/models"
)

// CommentRepository persists solution comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create stores a comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO comments (id, solution_id, author_id, text, created_at)
        VALUES (:id, :solution_id, :author_id, :text, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListBySolution returns comments of a solution oldest first.
func (r *CommentRepository) ListBySolution(ctx context.Context, solutionID string) ([]models.Comment, error) {
	const query = `SELECT cm.id, cm.solution_id, cm.author_id, u.full_name AS author_name, cm.text, cm.created_at
        FROM comments cm
        JOIN users u ON u.id = cm.author_id
        WHERE cm.solution_id = $1
        ORDER BY cm.created_at ASC, cm.id ASC`
	comments := []models.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, solutionID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
