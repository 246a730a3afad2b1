package dto

import "github.com/noah-isme/courses-api/internal/models"

// CreateEnrollmentRequest is sent by a student (course only) or a course
// teacher (student and optional status).
type CreateEnrollmentRequest struct {
	CourseID  string                  `json:"course_id" validate:"required"`
	StudentID string                  `json:"student_id"`
	Status    models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// EnrollmentStatusResponse acknowledges a status transition.
type EnrollmentStatusResponse struct {
	ID           string                  `json:"id"`
	Status       models.EnrollmentStatus `json:"status"`
	AverageGrade *float64                `json:"average_grade"`
}
