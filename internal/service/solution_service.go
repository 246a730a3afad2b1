package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/dto"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/logger"
)

type solutionRepository interface {
	Create(ctx context.Context, solution *models.Solution) error
	FindDetailByID(ctx context.Context, id string) (*models.SolutionDetail, error)
	LatestForTask(ctx context.Context, taskID, studentID string) (*models.Solution, error)
	UpdateMark(ctx context.Context, id string, mark int) (*int, error)
}

type taskContextReader interface {
	FindTaskContext(ctx context.Context, taskID string) (*models.TaskContext, error)
}

type courseEnrollmentReader interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error)
	RecomputeAverageGrade(ctx context.Context, id string) (*float64, error)
}

// SolutionNotifier receives grading pipeline events. Implementations must not
// block the caller.
type SolutionNotifier interface {
	SolutionCreated(solution *models.Solution, task *models.TaskContext, student *models.User) bool
	SolutionGraded(solution *models.SolutionDetail, mark int, previous *int) bool
}

// SolutionService handles submissions and grading.
type SolutionService struct {
	repo        solutionRepository
	tasks       taskContextReader
	enrollments courseEnrollmentReader
	users       userReader
	notifier    SolutionNotifier
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSolutionService constructs SolutionService.
func NewSolutionService(repo solutionRepository, tasks taskContextReader, enrollments courseEnrollmentReader, users userReader, notifier SolutionNotifier, validate *validator.Validate, logger *zap.Logger) *SolutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolutionService{
		repo:        repo,
		tasks:       tasks,
		enrollments: enrollments,
		users:       users,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit stores a new solution of the calling student and notifies the course teacher.
func (s *SolutionService) Submit(ctx context.Context, caller models.Caller, req dto.SubmitSolutionRequest) (*models.Solution, error) {
	if !caller.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit solutions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solution payload")
	}

	task, err := s.tasks.FindTaskContext(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if task.Deadline.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline passed")
	}

	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, caller.UserID, task.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "your enrollment is not approved")
	}

	latest, err := s.repo.LatestForTask(ctx, task.ID, caller.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous solution")
	}
	if latest != nil && !latest.Graded() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "previous solution not graded")
	}

	student, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	solution := &models.Solution{
		TaskID:        task.ID,
		SubmittedBy:   caller.UserID,
		Text:          req.Text,
		AttachmentIDs: req.AttachmentIDs,
		SubmittedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, solution); err != nil {
		if errors.Is(err, appErrors.ErrSolutionPending) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "previous solution not graded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create solution")
	}

	logger.For(ctx, s.logger).Info("solution submitted",
		zap.String("solution_id", solution.ID),
		zap.String("task_id", task.ID),
		zap.String("student_id", caller.UserID),
	)
	if s.notifier != nil {
		s.notifier.SolutionCreated(solution, task, student)
	}
	return solution, nil
}

// Get returns a solution visible to the caller.
func (s *SolutionService) Get(ctx context.Context, caller models.Caller, id string) (*models.SolutionDetail, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff && detail.CourseOwnerID != caller.UserID && detail.SubmittedBy != caller.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot view this solution")
	}
	return detail, nil
}

// Grade sets the mark of a solution, notifies the student when the mark
// changed and refreshes the student's average grade. A failed refresh is
// logged; the next grade or approval of the enrollment recomputes it.
func (s *SolutionService) Grade(ctx context.Context, caller models.Caller, id string, req dto.GradeSolutionRequest) (*models.SolutionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "mark must be between 1 and 10")
	}

	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff && !(caller.IsTeacher() && detail.CourseOwnerID == caller.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the course teacher can grade this solution")
	}

	previous, err := s.repo.UpdateMark(ctx, id, req.Mark)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mark")
	}
	mark := req.Mark
	detail.Mark = &mark

	log := logger.For(ctx, s.logger)
	log.Info("solution graded",
		zap.String("solution_id", detail.ID),
		zap.Int("mark", mark),
		zap.Bool("regraded", previous != nil),
	)
	// The mark is committed; the event must follow it even if the average lags.
	if s.notifier != nil {
		s.notifier.SolutionGraded(detail, mark, previous)
	}

	if err := s.recompute(ctx, detail); err != nil {
		log.Error("recompute average grade failed",
			zap.String("solution_id", detail.ID),
			zap.String("student_id", detail.SubmittedBy),
			zap.Error(err),
		)
	}
	return detail, nil
}

func (s *SolutionService) recompute(ctx context.Context, detail *models.SolutionDetail) error {
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, detail.SubmittedBy, detail.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("graded solution without enrollment", zap.String("solution_id", detail.ID))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if _, err := s.enrollments.RecomputeAverageGrade(ctx, enrollment.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute average grade")
	}
	return nil
}

func (s *SolutionService) loadDetail(ctx context.Context, id string) (*models.SolutionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solution")
	}
	return detail, nil
}
