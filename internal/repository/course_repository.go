package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courses-api/internal/models"
)

// CourseRepository reads courses and the task hierarchy beneath them.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, created_by, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// FindTaskContext returns a task joined with its course and the course owner.
func (r *CourseRepository) FindTaskContext(ctx context.Context, taskID string) (*models.TaskContext, error) {
	const query = `SELECT t.id, t.lecture_id, t.title, t.description, t.deadline, t.created_at,
        c.id AS course_id, c.name AS course_name, c.created_by AS course_owner_id
        FROM tasks t
        JOIN lectures l ON l.id = t.lecture_id
        JOIN courses c ON c.id = l.course_id
        WHERE t.id = $1`
	var task models.TaskContext
	if err := r.db.GetContext(ctx, &task, query, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find task context: %w", err)
	}
	return &task, nil
}
