package models

import "time"

// Course is owned by exactly one teacher.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Lecture belongs to a course and groups tasks.
type Lecture struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Name      string    `db:"name" json:"name"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Task is an assignment inside a lecture.
type Task struct {
	ID          string    `db:"id" json:"id"`
	LectureID   string    `db:"lecture_id" json:"lecture_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TaskContext is a task joined with the course it belongs to.
type TaskContext struct {
	Task
	CourseID      string `db:"course_id" json:"course_id"`
	CourseName    string `db:"course_name" json:"course_name"`
	CourseOwnerID string `db:"course_owner_id" json:"course_owner_id"`
}

// Attachment is file metadata shared by lectures and solutions.
type Attachment struct {
	ID         string    `db:"id" json:"id"`
	FileName   string    `db:"file_name" json:"file_name"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
