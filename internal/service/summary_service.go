package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/dto"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/projection"
)

type summaryAggregateReader interface {
	TeacherCourses(ctx context.Context, teacherID string) ([]models.CourseAggregate, error)
	StudentEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentAggregate, error)
}

type summaryUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type summaryRelationReader interface {
	HasApprovedInTeacherCourse(ctx context.Context, studentID, teacherID string) (bool, error)
}

// SummaryConfig bounds summary pagination.
type SummaryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// SummaryTable is a projected, unpaginated summary used by exports.
type SummaryTable struct {
	Owner   *models.User
	Fields  []string
	Columns []projection.Column
	Records []map[string]interface{}
}

// SummaryService builds role-scoped teacher and student summaries.
type SummaryService struct {
	aggregates summaryAggregateReader
	users      summaryUserReader
	relations  summaryRelationReader
	metrics    *MetricsService
	pager      projection.Pager
	logger     *zap.Logger
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(aggregates summaryAggregateReader, users summaryUserReader, relations summaryRelationReader, metrics *MetricsService, cfg SummaryConfig, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		aggregates: aggregates,
		users:      users,
		relations:  relations,
		metrics:    metrics,
		pager:      projection.NewPager(cfg.DefaultPageSize, cfg.MaxPageSize),
		logger:     logger,
	}
}

// BuildTeacherSummary returns one aggregate row per course of the teacher.
func (s *SummaryService) BuildTeacherSummary(ctx context.Context, teacherID string, caller models.Caller) ([]models.CourseAggregate, error) {
	_, rows, err := s.teacherRows(ctx, teacherID, caller)
	return rows, err
}

// BuildStudentSummary returns one aggregate row per approved enrollment of the student.
func (s *SummaryService) BuildStudentSummary(ctx context.Context, studentID string, caller models.Caller) ([]models.EnrollmentAggregate, error) {
	_, rows, err := s.studentRows(ctx, studentID, caller)
	return rows, err
}

// TeacherSummary renders the paginated teacher summary envelope.
func (s *SummaryService) TeacherSummary(ctx context.Context, teacherID string, caller models.Caller, query dto.SummaryQuery) (*dto.SummaryResponse, error) {
	teacher, rows, err := s.teacherRows(ctx, teacherID, caller)
	if err != nil {
		return nil, err
	}
	owner := dto.TeacherOwner{TeacherID: teacher.ID, FullName: teacher.FullName, Email: teacher.Email}
	return envelope(teacherSummaryFields, rows, owner, query, s.pager), nil
}

// StudentSummary renders the paginated student summary envelope.
func (s *SummaryService) StudentSummary(ctx context.Context, studentID string, caller models.Caller, query dto.SummaryQuery) (*dto.SummaryResponse, error) {
	student, rows, err := s.studentRows(ctx, studentID, caller)
	if err != nil {
		return nil, err
	}
	owner := dto.StudentOwner{StudentID: student.ID, FullName: student.FullName, Email: student.Email}
	return envelope(studentSummaryFields, rows, owner, query, s.pager), nil
}

// TeacherTable projects the whole teacher summary without pagination.
func (s *SummaryService) TeacherTable(ctx context.Context, teacherID string, caller models.Caller, fields []string, sort string) (*SummaryTable, error) {
	teacher, rows, err := s.teacherRows(ctx, teacherID, caller)
	if err != nil {
		return nil, err
	}
	return table(teacherSummaryFields, rows, teacher, fields, sort), nil
}

// StudentTable projects the whole student summary without pagination.
func (s *SummaryService) StudentTable(ctx context.Context, studentID string, caller models.Caller, fields []string, sort string) (*SummaryTable, error) {
	student, rows, err := s.studentRows(ctx, studentID, caller)
	if err != nil {
		return nil, err
	}
	return table(studentSummaryFields, rows, student, fields, sort), nil
}

func (s *SummaryService) teacherRows(ctx context.Context, teacherID string, caller models.Caller) (*models.User, []models.CourseAggregate, error) {
	if !caller.IsStaff && caller.UserID != teacherID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot view another teacher's summary")
	}
	teacher, err := s.loadSubject(ctx, teacherID, models.RoleTeacher)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	rows, err := s.aggregates.TeacherCourses(ctx, teacherID)
	s.metrics.ObserveDBQuery("summary_teacher_courses", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build teacher summary")
	}
	return teacher, rows, nil
}

func (s *SummaryService) studentRows(ctx context.Context, studentID string, caller models.Caller) (*models.User, []models.EnrollmentAggregate, error) {
	student, err := s.loadSubject(ctx, studentID, models.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeStudentView(ctx, studentID, caller); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	rows, err := s.aggregates.StudentEnrollments(ctx, studentID)
	s.metrics.ObserveDBQuery("summary_student_enrollments", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build student summary")
	}
	return student, rows, nil
}

func (s *SummaryService) authorizeStudentView(ctx context.Context, studentID string, caller models.Caller) error {
	switch {
	case caller.IsStaff, caller.UserID == studentID:
		return nil
	case caller.IsTeacher():
		ok, err := s.relations.HasApprovedInTeacherCourse(ctx, studentID, caller.UserID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher access")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "you cannot view the summary of a student outside your courses")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot view another student's summary")
	}
}

func (s *SummaryService) loadSubject(ctx context.Context, id string, role models.UserRole) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, string(role)+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != role {
		return nil, appErrors.Clone(appErrors.ErrNotFound, string(role)+" not found")
	}
	return user, nil
}

func envelope[T any](catalog *projection.Catalog[T], rows []T, owner interface{}, query dto.SummaryQuery, pager projection.Pager) *dto.SummaryResponse {
	result := catalog.Project(rows, query.Fields, query.Sort)
	page := projection.Paginate(result.Rows, pager.Number(query.Page), pager.Size(query.PageSize))
	return &dto.SummaryResponse{
		Owner: owner,
		Meta: dto.SummaryMeta{
			Total:    page.Total,
			Page:     page.Page,
			PageSize: page.PageSize,
			Sort:     query.Sort,
		},
		Data: catalog.Records(page.Items, result.Fields),
		Cols: result.Columns,
	}
}

func table[T any](catalog *projection.Catalog[T], rows []T, owner *models.User, fields []string, sort string) *SummaryTable {
	result := catalog.Project(rows, fields, sort)
	return &SummaryTable{
		Owner:   owner,
		Fields:  result.Fields,
		Columns: result.Columns,
		Records: catalog.Records(result.Rows, result.Fields),
	}
}
