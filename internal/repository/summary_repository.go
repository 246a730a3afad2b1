package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courses-api/internal/models"
)

// SummaryRepository exposes read-only aggregate queries for summaries. Each
// counter is a correlated subquery so that joins never multiply rows feeding
// another aggregate.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository instantiates the repository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// TeacherCourses aggregates every course created by the teacher.
func (r *SummaryRepository) TeacherCourses(ctx context.Context, teacherID string) ([]models.CourseAggregate, error) {
	const query = `SELECT c.id, c.name, c.created_at,
        (SELECT COUNT(DISTINCT e.student_id) FROM enrollments e WHERE e.course_id = c.id AND e.status = 'approved') AS students_count,
        (SELECT COUNT(*) FROM lectures l WHERE l.course_id = c.id) AS lectures_count,
        (SELECT COUNT(*) FROM tasks t JOIN lectures l ON l.id = t.lecture_id WHERE l.course_id = c.id) AS tasks_count,
        (SELECT AVG(e.average_grade)::float8 FROM enrollments e WHERE e.course_id = c.id) AS average_grade
        FROM courses c
        WHERE c.created_by = $1
        ORDER BY c.created_at ASC, c.id ASC`
	rows := []models.CourseAggregate{}
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("query teacher course aggregates: %w", err)
	}
	return rows, nil
}

// StudentEnrollments aggregates the approved enrollments of the student.
func (r *SummaryRepository) StudentEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentAggregate, error) {
	const query = `SELECT e.id, e.course_id, c.name, e.status, e.average_grade, e.requested_at,
        (SELECT COUNT(*) FROM lectures l WHERE l.course_id = e.course_id) AS lectures_count,
        (SELECT COUNT(*) FROM tasks t JOIN lectures l ON l.id = t.lecture_id WHERE l.course_id = e.course_id) AS tasks_count,
        (SELECT COUNT(DISTINCT s.task_id) FROM solutions s
            JOIN tasks t ON t.id = s.task_id
            JOIN lectures l ON l.id = t.lecture_id
            WHERE l.course_id = e.course_id AND s.submitted_by = e.student_id) AS solved_tasks_count
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 AND e.status = 'approved'
        ORDER BY e.requested_at ASC, e.id ASC`
	rows := []models.EnrollmentAggregate{}
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("query student enrollment aggregates: %w", err)
	}
	for i := range rows {
		rows[i].SolvedPercentage = models.SolvedRatio(rows[i].SolvedTasksCount, rows[i].TasksCount)
	}
	return rows, nil
}
