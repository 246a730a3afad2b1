package models

import "time"

// Mark bounds.
const (
	MinMark = 1
	MaxMark = 10
)

// Solution is one submission by a student for a task.
type Solution struct {
	ID            string    `db:"id" json:"id"`
	TaskID        string    `db:"task_id" json:"task_id"`
	SubmittedBy   string    `db:"submitted_by" json:"submitted_by"`
	Text          string    `db:"text" json:"text"`
	Mark          *int      `db:"mark" json:"mark"`
	SubmittedAt   time.Time `db:"submitted_at" json:"submitted_at"`
	AttachmentIDs []string  `db:"-" json:"attachment_ids,omitempty"`
}

// Graded reports whether a mark has been assigned.
func (s Solution) Graded() bool { return s.Mark != nil }

// SolutionDetail enriches a solution with its task, course and author.
type SolutionDetail struct {
	Solution
	TaskTitle     string `db:"task_title" json:"task_title"`
	CourseID      string `db:"course_id" json:"course_id"`
	CourseOwnerID string `db:"course_owner_id" json:"course_owner_id"`
	StudentName   string `db:"student_name" json:"student_name"`
	StudentEmail  string `db:"student_email" json:"student_email"`
}

// Comment is attached to a solution.
type Comment struct {
	ID         string    `db:"id" json:"id"`
	SolutionID string    `db:"solution_id" json:"solution_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name,omitempty"`
	Text       string    `db:"text" json:"text"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
