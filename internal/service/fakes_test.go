package service

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

// fakeStore is an in-memory stand-in for the repositories. Role-specific
// views below expose the method sets each service expects.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*models.User
	courses     map[string]*models.Course
	tasks       map[string]*models.TaskContext
	enrollments map[string]*models.EnrollmentDetail
	solutions   []*models.SolutionDetail
	comments    []models.Comment

	teacherRows map[string][]models.CourseAggregate
	studentRows map[string][]models.EnrollmentAggregate

	solutionCreates int
	recomputed      []string
	recomputeErr    error
	seq             int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]*models.User{},
		courses:     map[string]*models.Course{},
		tasks:       map[string]*models.TaskContext{},
		enrollments: map[string]*models.EnrollmentDetail{},
		teacherRows: map[string][]models.CourseAggregate{},
		studentRows: map[string][]models.EnrollmentAggregate{},
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *fakeStore) addUser(id string, role models.UserRole, staff bool) *models.User {
	u := &models.User{ID: id, Email: id + "@example.com", FullName: "User " + id, Role: role, IsStaff: staff, Active: true}
	s.users[id] = u
	return u
}

func (s *fakeStore) addCourse(id, teacherID string) *models.Course {
	c := &models.Course{ID: id, Name: "Course " + id, CreatedBy: teacherID, CreatedAt: time.Now()}
	s.courses[id] = c
	return c
}

func (s *fakeStore) addTask(id, courseID string, deadline time.Time) *models.TaskContext {
	course := s.courses[courseID]
	t := &models.TaskContext{
		Task:          models.Task{ID: id, Title: "Task " + id, Deadline: deadline},
		CourseID:      courseID,
		CourseName:    course.Name,
		CourseOwnerID: course.CreatedBy,
	}
	s.tasks[id] = t
	return t
}

func (s *fakeStore) addEnrollment(id, studentID, courseID string, status models.EnrollmentStatus) *models.EnrollmentDetail {
	course := s.courses[courseID]
	e := &models.EnrollmentDetail{
		Enrollment:    models.Enrollment{ID: id, StudentID: studentID, CourseID: courseID, Status: status, RequestedAt: time.Now()},
		CourseName:    course.Name,
		CourseOwnerID: course.CreatedBy,
	}
	s.enrollments[id] = e
	return e
}

func (s *fakeStore) addSolution(id, taskID, studentID string, mark *int) *models.SolutionDetail {
	task := s.tasks[taskID]
	d := &models.SolutionDetail{
		Solution:      models.Solution{ID: id, TaskID: taskID, SubmittedBy: studentID, Mark: mark, SubmittedAt: time.Now()},
		TaskTitle:     task.Title,
		CourseID:      task.CourseID,
		CourseOwnerID: task.CourseOwnerID,
	}
	s.solutions = append(s.solutions, d)
	return d
}

func (s *fakeStore) enrollment(id string) *models.EnrollmentDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[id]
}

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

type fakeCourses struct{ *fakeStore }

func (f fakeCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (f fakeCourses) FindTaskContext(_ context.Context, taskID string) (*models.TaskContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

type fakeEnrollments struct{ *fakeStore }

func (f fakeEnrollments) FindDetailByID(_ context.Context, id string) (*models.EnrollmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (f fakeEnrollments) FindByStudentAndCourse(_ context.Context, studentID, courseID string) (*models.EnrollmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeEnrollments) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	_, err := f.FindByStudentAndCourse(ctx, studentID, courseID)
	return err == nil, nil
}

func (f fakeEnrollments) HasApprovedInTeacherCourse(_ context.Context, studentID, teacherID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.CourseOwnerID == teacherID && e.Status == models.EnrollmentStatusApproved {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeEnrollments) Create(_ context.Context, enrollment *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if enrollment.ID == "" {
		enrollment.ID = f.nextID("enr")
	}
	course := f.courses[enrollment.CourseID]
	f.enrollments[enrollment.ID] = &models.EnrollmentDetail{Enrollment: *enrollment, CourseName: course.Name, CourseOwnerID: course.CreatedBy}
	return nil
}

func (f fakeEnrollments) UpdateStatus(_ context.Context, id string, status models.EnrollmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	return nil
}

func (f fakeEnrollments) RecomputeAverageGrade(_ context.Context, id string) (*float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if f.recomputeErr != nil {
		return nil, f.recomputeErr
	}
	f.recomputed = append(f.recomputed, id)
	var sum, n float64
	for _, s := range f.solutions {
		if s.SubmittedBy == e.StudentID && s.CourseID == e.CourseID && s.Mark != nil {
			sum += float64(*s.Mark)
			n++
		}
	}
	if n == 0 {
		e.AverageGrade = nil
		return nil, nil
	}
	avg := sum / n
	e.AverageGrade = &avg
	return &avg, nil
}

type fakeSolutions struct{ *fakeStore }

func (f fakeSolutions) Create(_ context.Context, solution *models.Solution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.solutions {
		if s.TaskID == solution.TaskID && s.SubmittedBy == solution.SubmittedBy && s.Mark == nil {
			return appErrors.ErrSolutionPending
		}
	}
	if solution.ID == "" {
		solution.ID = f.nextID("sol")
	}
	f.solutionCreates++
	task := f.tasks[solution.TaskID]
	f.solutions = append(f.solutions, &models.SolutionDetail{
		Solution:      *solution,
		TaskTitle:     task.Title,
		CourseID:      task.CourseID,
		CourseOwnerID: task.CourseOwnerID,
	})
	return nil
}

func (f fakeSolutions) FindDetailByID(_ context.Context, id string) (*models.SolutionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.solutions {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeSolutions) LatestForTask(_ context.Context, taskID, studentID string) (*models.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.solutions) - 1; i >= 0; i-- {
		s := f.solutions[i]
		if s.TaskID == taskID && s.SubmittedBy == studentID {
			clone := s.Solution
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeSolutions) UpdateMark(_ context.Context, id string, mark int) (*int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.solutions {
		if s.ID == id {
			previous := s.Mark
			value := mark
			s.Mark = &value
			return previous, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeComments struct{ *fakeStore }

func (f fakeComments) Create(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment.ID == "" {
		comment.ID = f.nextID("cm")
	}
	comment.CreatedAt = time.Now()
	f.comments = append(f.comments, *comment)
	return nil
}

func (f fakeComments) ListBySolution(_ context.Context, solutionID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.SolutionID == solutionID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeSummaries struct{ *fakeStore }

func (f fakeSummaries) TeacherCourses(_ context.Context, teacherID string) ([]models.CourseAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]models.CourseAggregate, len(f.teacherRows[teacherID]))
	copy(rows, f.teacherRows[teacherID])
	return rows, nil
}

func (f fakeSummaries) StudentEnrollments(_ context.Context, studentID string) ([]models.EnrollmentAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]models.EnrollmentAggregate, len(f.studentRows[studentID]))
	copy(rows, f.studentRows[studentID])
	return rows, nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func callerStaff(id string) models.Caller {
	return models.Caller{UserID: id, Role: models.RoleTeacher, IsStaff: true}
}

func callerTeacher(id string) models.Caller {
	return models.Caller{UserID: id, Role: models.RoleTeacher}
}

func callerStudent(id string) models.Caller {
	return models.Caller{UserID: id, Role: models.RoleStudent}
}
