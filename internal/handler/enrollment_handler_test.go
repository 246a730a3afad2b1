package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courses-api/internal/dto"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

type fakeEnrollmentSrv struct {
	created  dto.CreateEnrollmentRequest
	approved string
}

func (f *fakeEnrollmentSrv) Create(_ context.Context, caller models.Caller, req dto.CreateEnrollmentRequest) (*models.Enrollment, error) {
	f.created = req
	if req.CourseID == "dup" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled")
	}
	return &models.Enrollment{ID: "e1", CourseID: req.CourseID, StudentID: caller.UserID, Status: models.EnrollmentStatusPending}, nil
}

func (f *fakeEnrollmentSrv) Approve(_ context.Context, _ models.Caller, id string) (*dto.EnrollmentStatusResponse, error) {
	f.approved = id
	avg := 8.0
	return &dto.EnrollmentStatusResponse{ID: id, Status: models.EnrollmentStatusApproved, AverageGrade: &avg}, nil
}

func (f *fakeEnrollmentSrv) Reject(_ context.Context, _ models.Caller, id string) (*dto.EnrollmentStatusResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "only the course teacher can change enrollment status")
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/enrollments", dto.CreateEnrollmentRequest{CourseID: "c1"}, studentClaims("s1"))
	h.Create(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c1", srv.created.CourseID)

	c, rec = newTestContext(http.MethodPost, "/enrollments", dto.CreateEnrollmentRequest{CourseID: "dup"}, studentClaims("s1"))
	h.Create(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnrollmentHandlerTransitions(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/enrollments/e1/approve", nil, teacherClaims("t1"))
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	h.Approve(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e1", srv.approved)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, 8.0, data["average_grade"])

	c, rec = newTestContext(http.MethodPost, "/enrollments/e1/reject", nil, teacherClaims("t2"))
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	h.Reject(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
