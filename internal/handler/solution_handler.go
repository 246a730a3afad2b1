package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courses-api/internal/dto"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/response"
)

type solutionService interface {
	Submit(ctx context.Context, caller models.Caller, req dto.SubmitSolutionRequest) (*models.Solution, error)
	Get(ctx context.Context, caller models.Caller, id string) (*models.SolutionDetail, error)
	Grade(ctx context.Context, caller models.Caller, id string, req dto.GradeSolutionRequest) (*models.SolutionDetail, error)
}

type commentService interface {
	Create(ctx context.Context, caller models.Caller, solutionID string, req dto.CreateCommentRequest) (*models.Comment, error)
	List(ctx context.Context, caller models.Caller, solutionID string) ([]models.Comment, error)
}

// SolutionHandler exposes submission, grading and comment endpoints.
type SolutionHandler struct {
	solutions solutionService
	comments  commentService
}

// NewSolutionHandler constructs SolutionHandler.
func NewSolutionHandler(solutions solutionService, comments commentService) *SolutionHandler {
	return &SolutionHandler{solutions: solutions, comments: comments}
}

// Submit godoc
// @Summary Submit solution
// @Description Student submits a solution for a task of an approved course
// @Tags Solutions
// @Accept json
// @Produce json
// @Param payload body dto.SubmitSolutionRequest true "Solution payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /solutions [post]
func (h *SolutionHandler) Submit(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	solution, err := h.solutions.Submit(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, solution)
}

// Get godoc
// @Summary Get solution
// @Tags Solutions
// @Produce json
// @Param id path string true "Solution ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /solutions/{id} [get]
func (h *SolutionHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	solution, err := h.solutions.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solution, nil)
}

// Grade godoc
// @Summary Grade solution
// @Description Course teacher sets the mark (1-10); the student is notified
// @Tags Solutions
// @Accept json
// @Produce json
// @Param id path string true "Solution ID"
// @Param payload body dto.GradeSolutionRequest true "Mark"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /solutions/{id}/mark [patch]
func (h *SolutionHandler) Grade(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.GradeSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	solution, err := h.solutions.Grade(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solution, nil)
}

// CreateComment godoc
// @Summary Comment on solution
// @Tags Solutions
// @Accept json
// @Produce json
// @Param id path string true "Solution ID"
// @Param payload body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /solutions/{id}/comments [post]
func (h *SolutionHandler) CreateComment(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// ListComments godoc
// @Summary List solution comments
// @Tags Solutions
// @Produce json
// @Param id path string true "Solution ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /solutions/{id}/comments [get]
func (h *SolutionHandler) ListComments(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	comments, err := h.comments.List(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}
