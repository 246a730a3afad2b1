package service

import (
	"github.com/noah-isme/courses-api/internal/models"
	"github.com/noah-isme/courses-api/pkg/projection"
)

type courseField = projection.Field[models.CourseAggregate]

// teacherSummaryFields lists the projectable columns of a teacher summary in
// canonical order.
var teacherSummaryFields = projection.NewCatalog(
	courseField{Key: "id", Label: "ID",
		Value:   func(r models.CourseAggregate) interface{} { return r.ID },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareString(a.ID, b.ID) }},
	courseField{Key: "name", Label: "Course",
		Value:   func(r models.CourseAggregate) interface{} { return r.Name },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareString(a.Name, b.Name) }},
	courseField{Key: "students_count", Type: projection.TypeNumber,
		Value:   func(r models.CourseAggregate) interface{} { return r.StudentsCount },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareInt(a.StudentsCount, b.StudentsCount) }},
	courseField{Key: "lectures_count", Type: projection.TypeNumber,
		Value:   func(r models.CourseAggregate) interface{} { return r.LecturesCount },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareInt(a.LecturesCount, b.LecturesCount) }},
	courseField{Key: "tasks_count", Type: projection.TypeNumber,
		Value:   func(r models.CourseAggregate) interface{} { return r.TasksCount },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareInt(a.TasksCount, b.TasksCount) }},
	courseField{Key: "average_grade", Type: projection.TypeNumber,
		Value:   func(r models.CourseAggregate) interface{} { return r.AverageGrade },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareFloatPtr(a.AverageGrade, b.AverageGrade) }},
	courseField{Key: "created_at", Type: projection.TypeDate,
		Value:   func(r models.CourseAggregate) interface{} { return r.CreatedAt },
		Compare: func(a, b models.CourseAggregate) int { return projection.CompareTime(a.CreatedAt, b.CreatedAt) }},
)

type enrollmentField = projection.Field[models.EnrollmentAggregate]

// studentSummaryFields lists the projectable columns of a student summary.
var studentSummaryFields = projection.NewCatalog(
	enrollmentField{Key: "id", Label: "ID",
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.ID },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareString(a.ID, b.ID) }},
	enrollmentField{Key: "course_id", Label: "Course ID",
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.CourseID },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareString(a.CourseID, b.CourseID) }},
	enrollmentField{Key: "name", Label: "Course",
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.Name },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareString(a.Name, b.Name) }},
	enrollmentField{Key: "status",
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.Status },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareString(string(a.Status), string(b.Status)) }},
	enrollmentField{Key: "lectures_count", Type: projection.TypeNumber,
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.LecturesCount },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareInt(a.LecturesCount, b.LecturesCount) }},
	enrollmentField{Key: "tasks_count", Type: projection.TypeNumber,
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.TasksCount },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareInt(a.TasksCount, b.TasksCount) }},
	enrollmentField{Key: "solved_tasks_count", Type: projection.TypeNumber,
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.SolvedTasksCount },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareInt(a.SolvedTasksCount, b.SolvedTasksCount) }},
	enrollmentField{Key: "solved_percentage", Type: projection.TypeNumber,
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.SolvedPercentage },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareFloat(a.SolvedPercentage, b.SolvedPercentage) }},
	enrollmentField{Key: "average_grade", Type: projection.TypeNumber,
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.AverageGrade },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareFloatPtr(a.AverageGrade, b.AverageGrade) }},
	enrollmentField{Key: "requested_at", Type: projection.TypeDate,
		Value:   func(r models.EnrollmentAggregate) interface{} { return r.RequestedAt },
		Compare: func(a, b models.EnrollmentAggregate) int { return projection.CompareTime(a.RequestedAt, b.RequestedAt) }},
)
