package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

// SolutionRepository persists task submissions and their marks.
type SolutionRepository struct {
	db *sqlx.DB
}

// NewSolutionRepository constructs the repository.
func NewSolutionRepository(db *sqlx.DB) *SolutionRepository {
	return &SolutionRepository{db: db}
}

// Create inserts a solution and links its attachments in one transaction.
// Submissions of one student for one task are serialised by an advisory lock
// held until commit. While an ungraded solution exists nothing is stored and
// appErrors.ErrSolutionPending is returned.
func (r *SolutionRepository) Create(ctx context.Context, solution *models.Solution) error {
	if solution.ID == "" {
		solution.ID = uuid.NewString()
	}
	if solution.SubmittedAt.IsZero() {
		solution.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin solution tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lock = `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`
	if _, err := tx.ExecContext(ctx, lock, solution.TaskID, solution.SubmittedBy); err != nil {
		return fmt.Errorf("lock solution slot: %w", err)
	}

	const pending = `SELECT EXISTS (
            SELECT 1 FROM solutions WHERE task_id = $1 AND submitted_by = $2 AND mark IS NULL
        )`
	var exists bool
	if err := tx.GetContext(ctx, &exists, pending, solution.TaskID, solution.SubmittedBy); err != nil {
		return fmt.Errorf("check pending solution: %w", err)
	}
	if exists {
		return appErrors.ErrSolutionPending
	}

	const insert = `INSERT INTO solutions (id, task_id, submitted_by, text, mark, submitted_at)
        VALUES (:id, :task_id, :submitted_by, :text, :mark, :submitted_at)`
	if _, err := tx.NamedExecContext(ctx, insert, solution); err != nil {
		return fmt.Errorf("create solution: %w", err)
	}
	for _, attachmentID := range solution.AttachmentIDs {
		const link = `INSERT INTO solution_attachments (solution_id, attachment_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, link, solution.ID, attachmentID); err != nil {
			return fmt.Errorf("link solution attachment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit solution: %w", err)
	}
	return nil
}

// FindDetailByID returns a solution joined with its task, course and author.
func (r *SolutionRepository) FindDetailByID(ctx context.Context, id string) (*models.SolutionDetail, error) {
	const query = `SELECT s.id, s.task_id, s.submitted_by, s.text, s.mark, s.submitted_at,
        t.title AS task_title, c.id AS course_id, c.created_by AS course_owner_id,
        u.full_name AS student_name, u.email AS student_email
        FROM solutions s
        JOIN tasks t ON t.id = s.task_id
        JOIN lectures l ON l.id = t.lecture_id
        JOIN courses c ON c.id = l.course_id
        JOIN users u ON u.id = s.submitted_by
        WHERE s.id = $1`
	var detail models.SolutionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find solution: %w", err)
	}
	return &detail, nil
}

// LatestForTask returns the most recent solution of the student for a task.
func (r *SolutionRepository) LatestForTask(ctx context.Context, taskID, studentID string) (*models.Solution, error) {
	const query = `SELECT id, task_id, submitted_by, text, mark, submitted_at FROM solutions
        WHERE task_id = $1 AND submitted_by = $2
        ORDER BY submitted_at DESC LIMIT 1`
	var solution models.Solution
	if err := r.db.GetContext(ctx, &solution, query, taskID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find latest solution: %w", err)
	}
	return &solution, nil
}

// UpdateMark stores a mark and returns the mark held before the update. The
// row is locked for the duration of the statement.
func (r *SolutionRepository) UpdateMark(ctx context.Context, id string, mark int) (*int, error) {
	const query = `WITH prev AS (
            SELECT id, mark FROM solutions WHERE id = $1 FOR UPDATE
        )
        UPDATE solutions s SET mark = $2
        FROM prev
        WHERE s.id = prev.id
        RETURNING prev.mark`
	var previous sql.NullInt64
	if err := r.db.GetContext(ctx, &previous, query, id, mark); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update solution mark: %w", err)
	}
	if !previous.Valid {
		return nil, nil
	}
	value := int(previous.Int64)
	return &value, nil
}
