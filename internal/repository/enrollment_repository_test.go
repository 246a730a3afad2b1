package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courses-api/internal/models"
)

var enrollmentDetailColumns = []string{"id", "student_id", "course_id", "status", "average_grade", "requested_at", "course_name", "course_owner_id"}

func TestEnrollmentRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows(enrollmentDetailColumns).
		AddRow("enr-1", "stu-1", "course-1", "approved", 7.5, time.Now(), "Go", "teacher-1")
	mock.ExpectQuery("FROM enrollments e\\s+JOIN courses c ON c.id = e.course_id WHERE e.id = \\$1").
		WithArgs("enr-1").
		WillReturnRows(rows)

	detail, err := repo.FindDetailByID(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, detail.Status)
	assert.Equal(t, "teacher-1", detail.CourseOwnerID)
	require.NotNil(t, detail.AverageGrade)
	assert.InDelta(t, 7.5, *detail.AverageGrade, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("stu-1", "course-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryHasApprovedInTeacherCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("c.created_by = \\$2 AND e.status = \\$3").
		WithArgs("stu-1", "teacher-1", models.EnrollmentStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := repo.HasApprovedInTeacherCourse(context.Background(), "stu-1", "teacher-1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", CourseID: "course-1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.False(t, enrollment.RequestedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryRecomputeAverageGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("UPDATE enrollments e SET average_grade").
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"average_grade"}).AddRow(8.0))

	avg, err := repo.RecomputeAverageGrade(context.Background(), "enr-1")
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 8.0, *avg, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryRecomputeAverageGradeWithoutMarks(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("UPDATE enrollments e SET average_grade").
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"average_grade"}).AddRow(nil))

	avg, err := repo.RecomputeAverageGrade(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Nil(t, avg)
	require.NoError(t, mock.ExpectationsWereMet())
}
