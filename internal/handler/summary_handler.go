package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courses-api/internal/dto"
	"github.com/noah-isme/courses-api/internal/models"
	"github.com/noah-isme/courses-api/internal/service"
	"github.com/noah-isme/courses-api/pkg/response"
)

type summaryService interface {
	TeacherSummary(ctx context.Context, teacherID string, caller models.Caller, query dto.SummaryQuery) (*dto.SummaryResponse, error)
	StudentSummary(ctx context.Context, studentID string, caller models.Caller, query dto.SummaryQuery) (*dto.SummaryResponse, error)
	TeacherTable(ctx context.Context, teacherID string, caller models.Caller, fields []string, sort string) (*service.SummaryTable, error)
	StudentTable(ctx context.Context, studentID string, caller models.Caller, fields []string, sort string) (*service.SummaryTable, error)
}

type summaryExporter interface {
	RenderSummary(kind, format string, table *service.SummaryTable) (*service.ExportFile, error)
}

// SummaryHandler serves teacher and student summary tables.
type SummaryHandler struct {
	summaries summaryService
	exporter  summaryExporter
}

// NewSummaryHandler constructs SummaryHandler.
func NewSummaryHandler(summaries summaryService, exporter summaryExporter) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, exporter: exporter}
}

// Teacher godoc
// @Summary Teacher summary
// @Description Per-course aggregates of a teacher with projection, sorting and pagination
// @Tags Summary
// @Produce json
// @Param id path string true "Teacher ID"
// @Param fields query string false "Comma separated field keys"
// @Param sort query string false "Sort field, prefix with - for descending"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.SummaryResponse
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /summary/teachers/{id} [get]
func (h *SummaryHandler) Teacher(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	res, err := h.summaries.TeacherSummary(c.Request.Context(), c.Param("id"), caller, summaryQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, http.StatusOK, res)
}

// Student godoc
// @Summary Student summary
// @Description Per-course progress of a student with projection, sorting and pagination
// @Tags Summary
// @Produce json
// @Param id path string true "Student ID"
// @Param fields query string false "Comma separated field keys"
// @Param sort query string false "Sort field, prefix with - for descending"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.SummaryResponse
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /summary/students/{id} [get]
func (h *SummaryHandler) Student(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	res, err := h.summaries.StudentSummary(c.Request.Context(), c.Param("id"), caller, summaryQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, http.StatusOK, res)
}

// ExportTeacher godoc
// @Summary Export teacher summary
// @Tags Summary
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param format query string false "csv or pdf"
// @Param fields query string false "Comma separated field keys"
// @Param sort query string false "Sort field"
// @Success 200 {file} file
// @Router /summary/teachers/{id}/export [get]
func (h *SummaryHandler) ExportTeacher(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	table, err := h.summaries.TeacherTable(c.Request.Context(), c.Param("id"), caller, queryList(c, "fields"), c.Query("sort"))
	h.writeExport(c, "teacher", table, err)
}

// ExportStudent godoc
// @Summary Export student summary
// @Tags Summary
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Param fields query string false "Comma separated field keys"
// @Param sort query string false "Sort field"
// @Success 200 {file} file
// @Router /summary/students/{id}/export [get]
func (h *SummaryHandler) ExportStudent(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	table, err := h.summaries.StudentTable(c.Request.Context(), c.Param("id"), caller, queryList(c, "fields"), c.Query("sort"))
	h.writeExport(c, "student", table, err)
}

func (h *SummaryHandler) writeExport(c *gin.Context, kind string, table *service.SummaryTable, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.RenderSummary(kind, c.DefaultQuery("format", service.ExportFormatCSV), table)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func summaryQuery(c *gin.Context) dto.SummaryQuery {
	return dto.SummaryQuery{
		Fields:   queryList(c, "fields"),
		Sort:     c.Query("sort"),
		Page:     c.Query("page"),
		PageSize: c.Query("page_size"),
	}
}
