package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courses-api/internal/middleware"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/response"
)

// callerFromContext returns the authenticated caller or writes a 401.
func callerFromContext(c *gin.Context) (models.Caller, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Caller{}, false
	}
	return models.CallerFromClaims(claims), true
}

// queryList collects comma separated values from every occurrence of key.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
