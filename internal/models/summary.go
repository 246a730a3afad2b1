package models

import "time"

// CourseAggregate is the per-course row of a teacher summary.
type CourseAggregate struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	StudentsCount int       `db:"students_count" json:"students_count"`
	LecturesCount int       `db:"lectures_count" json:"lectures_count"`
	TasksCount    int       `db:"tasks_count" json:"tasks_count"`
	AverageGrade  *float64  `db:"average_grade" json:"average_grade"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentAggregate is the per-enrollment row of a student summary.
type EnrollmentAggregate struct {
	ID               string           `db:"id" json:"id"`
	CourseID         string           `db:"course_id" json:"course_id"`
	Name             string           `db:"name" json:"name"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	LecturesCount    int              `db:"lectures_count" json:"lectures_count"`
	TasksCount       int              `db:"tasks_count" json:"tasks_count"`
	SolvedTasksCount int              `db:"solved_tasks_count" json:"solved_tasks_count"`
	SolvedPercentage float64          `db:"-" json:"solved_percentage"`
	AverageGrade     *float64         `db:"average_grade" json:"average_grade"`
	RequestedAt      time.Time        `db:"requested_at" json:"requested_at"`
}

// SolvedRatio computes solved/tasks, substituting 1 for an empty course.
func SolvedRatio(solved, tasks int) float64 {
	if tasks < 1 {
		tasks = 1
	}
	return float64(solved) / float64(tasks)
}
