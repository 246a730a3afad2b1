package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusApproved EnrollmentStatus = "approved"
	EnrollmentStatusRejected EnrollmentStatus = "rejected"
)

// Valid reports whether the status is known.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusApproved, EnrollmentStatusRejected:
		return true
	}
	return false
}

// Enrollment links a student to a course. AverageGrade is a cached value
// refreshed by an explicit recompute after grading or approval.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	AverageGrade *float64         `db:"average_grade" json:"average_grade"`
	RequestedAt  time.Time        `db:"requested_at" json:"requested_at"`
}

// EnrollmentDetail enriches Enrollment with the owning course.
type EnrollmentDetail struct {
	Enrollment
	CourseName    string `db:"course_name" json:"course_name"`
	CourseOwnerID string `db:"course_owner_id" json:"course_owner_id"`
}
