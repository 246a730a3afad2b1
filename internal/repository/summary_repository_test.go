package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRepositoryTeacherCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "students_count", "lectures_count", "tasks_count", "average_grade"}).
		AddRow("c-1", "Go", now, 3, 2, 5, 8.25).
		AddRow("c-2", "SQL", now, 0, 0, 0, nil)
	mock.ExpectQuery("FROM courses c\\s+WHERE c.created_by = \\$1").
		WithArgs("teacher-1").
		WillReturnRows(rows)

	courses, err := repo.TeacherCourses(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, 3, courses[0].StudentsCount)
	require.NotNil(t, courses[0].AverageGrade)
	assert.Nil(t, courses[1].AverageGrade)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepositoryStudentEnrollmentsComputesRatio(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "name", "status", "average_grade", "requested_at", "lectures_count", "tasks_count", "solved_tasks_count"}).
		AddRow("e-1", "c-1", "Go", "approved", 9.0, now, 1, 2, 1).
		AddRow("e-2", "c-2", "Empty", "approved", nil, now, 0, 0, 0)
	mock.ExpectQuery("WHERE e.student_id = \\$1 AND e.status = 'approved'").
		WithArgs("stu-1").
		WillReturnRows(rows)

	enrollments, err := repo.StudentEnrollments(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	assert.InDelta(t, 0.5, enrollments[0].SolvedPercentage, 0.0001)
	assert.InDelta(t, 0.0, enrollments[1].SolvedPercentage, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}
