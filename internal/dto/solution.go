package dto

// SubmitSolutionRequest is the student submission payload.
type SubmitSolutionRequest struct {
	TaskID        string   `json:"task_id" validate:"required"`
	Text          string   `json:"text" validate:"max=20000"`
	AttachmentIDs []string `json:"attachment_ids" validate:"omitempty,dive,required"`
}

// GradeSolutionRequest sets the mark of a solution.
type GradeSolutionRequest struct {
	Mark int `json:"mark" validate:"required,min=1,max=10"`
}

// CreateCommentRequest adds a comment to a solution.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}
