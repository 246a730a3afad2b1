package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

type fakeAuthSrv struct {
	login models.LoginRequest
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.login = req
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh", User: models.UserInfo{ID: "t1", Role: models.RoleTeacher}}, nil
}

func (f *fakeAuthSrv) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "secret"}, nil)
	c.Request.Header.Set("User-Agent", "courses-test")
	h.Login(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "courses-test", srv.login.UserAgent)
	assert.Equal(t, "access", decodeBody(t, rec)["data"].(map[string]interface{})["access_token"])

	c, rec = newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "nope"}, nil)
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, errorCode(t, rec))

	c, rec = newTestContext(http.MethodPost, "/auth/login", nil, nil)
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerRefreshAndMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})

	c, rec := newTestContext(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "old"}, nil)
	h.Refresh(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/auth/me", nil, nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/auth/me", nil, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, Email: "s1@example.com"})
	h.Me(c)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "s1", data["id"])
	assert.Equal(t, "student", data["role"])
}
