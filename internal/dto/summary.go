package dto

import "github.com/noah-isme/courses-api/pkg/projection"

// SummaryMeta reports the page window of a summary response. Sort echoes the
// raw requested sort whether or not it was applied.
type SummaryMeta struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Sort     string `json:"sort"`
}

// TeacherOwner identifies the teacher a summary describes.
type TeacherOwner struct {
	TeacherID string `json:"teacher_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
}

// StudentOwner identifies the student a summary describes.
type StudentOwner struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
}

// SummaryResponse is the table contract shared by teacher and student summaries.
type SummaryResponse struct {
	Owner interface{}              `json:"owner"`
	Meta  SummaryMeta              `json:"meta"`
	Data  []map[string]interface{} `json:"data"`
	Cols  []projection.Column      `json:"cols"`
}

// SummaryQuery holds the raw client parameters of a summary request.
type SummaryQuery struct {
	Fields   []string
	Sort     string
	Page     string
	PageSize string
}
