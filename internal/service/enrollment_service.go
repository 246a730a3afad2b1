package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/dto"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/logger"
)

type enrollmentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	RecomputeAverageGrade(ctx context.Context, id string) (*float64, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// EnrollmentService orchestrates enrollment requests and their approval.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseReader
	users     userReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses courseReader, users userReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, users: users, validator: validate, logger: logger}
}

// Create registers an enrollment. Students always request a pending
// enrollment for themselves; the course teacher or staff may add any student
// with any status.
func (s *EnrollmentService) Create(ctx context.Context, caller models.Caller, req dto.CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment := &models.Enrollment{CourseID: course.ID, Status: models.EnrollmentStatusPending}
	switch {
	case caller.IsStudent() && !caller.IsStaff:
		enrollment.StudentID = caller.UserID
	case caller.IsStaff || (caller.IsTeacher() && course.CreatedBy == caller.UserID):
		if req.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
		}
		if err := s.ensureStudent(ctx, req.StudentID); err != nil {
			return nil, err
		}
		enrollment.StudentID = req.StudentID
		if req.Status != "" {
			enrollment.Status = req.Status
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students or the course teacher can create enrollments")
	}

	exists, err := s.repo.Exists(ctx, enrollment.StudentID, enrollment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if enrollment.Status == models.EnrollmentStatusApproved {
		avg, err := s.repo.RecomputeAverageGrade(ctx, enrollment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute average grade")
		}
		enrollment.AverageGrade = avg
	}

	logger.For(ctx, s.logger).Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("course_id", enrollment.CourseID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("status", string(enrollment.Status)),
	)
	return enrollment, nil
}

// Approve grants the student access to the course and refreshes the cached average.
func (s *EnrollmentService) Approve(ctx context.Context, caller models.Caller, id string) (*dto.EnrollmentStatusResponse, error) {
	detail, err := s.transition(ctx, caller, id, models.EnrollmentStatusApproved)
	if err != nil {
		return nil, err
	}
	avg, err := s.RecomputeAverageGrade(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.EnrollmentStatusResponse{ID: detail.ID, Status: models.EnrollmentStatusApproved, AverageGrade: avg}, nil
}

// Reject denies the enrollment request.
func (s *EnrollmentService) Reject(ctx context.Context, caller models.Caller, id string) (*dto.EnrollmentStatusResponse, error) {
	detail, err := s.transition(ctx, caller, id, models.EnrollmentStatusRejected)
	if err != nil {
		return nil, err
	}
	return &dto.EnrollmentStatusResponse{ID: detail.ID, Status: models.EnrollmentStatusRejected, AverageGrade: detail.AverageGrade}, nil
}

// RecomputeAverageGrade refreshes the cached average grade of an enrollment.
func (s *EnrollmentService) RecomputeAverageGrade(ctx context.Context, id string) (*float64, error) {
	avg, err := s.repo.RecomputeAverageGrade(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute average grade")
	}
	return avg, nil
}

func (s *EnrollmentService) transition(ctx context.Context, caller models.Caller, id string, status models.EnrollmentStatus) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !caller.IsStaff && detail.CourseOwnerID != caller.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the course teacher can change enrollment status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	logger.For(ctx, s.logger).Info("enrollment status changed",
		zap.String("enrollment_id", id),
		zap.String("from", string(detail.Status)),
		zap.String("to", string(status)),
	)
	return detail, nil
}

func (s *EnrollmentService) ensureStudent(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "enrolled user must be a student")
	}
	return nil
}
