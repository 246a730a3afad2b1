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
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListBySolution(ctx context.Context, solutionID string) ([]models.Comment, error)
}

type solutionDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SolutionDetail, error)
}

type enrollmentLookup interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error)
}

// CommentService manages discussion threads on solutions. Only participants
// of the solution's course may read or write them.
type CommentService struct {
	repo        commentRepository
	solutions   solutionDetailReader
	enrollments enrollmentLookup
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCommentService constructs CommentService.
func NewCommentService(repo commentRepository, solutions solutionDetailReader, enrollments enrollmentLookup, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, solutions: solutions, enrollments: enrollments, validator: validate, logger: logger}
}

// Create adds a comment to the solution.
func (s *CommentService) Create(ctx context.Context, caller models.Caller, solutionID string, req dto.CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if _, err := s.authorize(ctx, caller, solutionID); err != nil {
		return nil, err
	}
	comment := &models.Comment{SolutionID: solutionID, AuthorID: caller.UserID, Text: req.Text}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}
	return comment, nil
}

// List returns the comments of the solution oldest first.
func (s *CommentService) List(ctx context.Context, caller models.Caller, solutionID string) ([]models.Comment, error) {
	if _, err := s.authorize(ctx, caller, solutionID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListBySolution(ctx, solutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

func (s *CommentService) authorize(ctx context.Context, caller models.Caller, solutionID string) (*models.SolutionDetail, error) {
	detail, err := s.solutions.FindDetailByID(ctx, solutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solution")
	}

	switch {
	case caller.IsStaff:
		return detail, nil
	case caller.IsTeacher():
		if detail.CourseOwnerID != caller.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the course teacher can comment")
		}
		return detail, nil
	case detail.SubmittedBy == caller.UserID:
		return detail, nil
	}

	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, caller.UserID, detail.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "your enrollment is not approved")
	}
	return detail, nil
}
