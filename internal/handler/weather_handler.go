package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/courses-api/internal/middleware"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/response"
)

type weatherService interface {
	RequestFetch(ctx context.Context, req models.WeatherRequest) (string, error)
	Cached(ctx context.Context) (*models.WeatherSnapshot, time.Time, error)
}

// WeatherHandler schedules weather refreshes and serves the cached snapshot.
type WeatherHandler struct {
	weather   weatherService
	validator *validator.Validate
}

// NewWeatherHandler constructs WeatherHandler.
func NewWeatherHandler(weather weatherService, validate *validator.Validate) *WeatherHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &WeatherHandler{weather: weather, validator: validate}
}

// Fetch godoc
// @Summary Schedule weather fetch
// @Description Enqueues a background job that refreshes the cached weather snapshot
// @Tags Weather
// @Produce json
// @Param lat query number false "Latitude"
// @Param lon query number false "Longitude"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /weather/fetch [get]
func (h *WeatherHandler) Fetch(c *gin.Context) {
	var req models.WeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "lat and lon must be numbers"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "coordinates out of range"))
		return
	}
	jobID, err := h.weather.RequestFetch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID, "status": "scheduled"})
}

// Cached godoc
// @Summary Cached weather
// @Tags Weather
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /weather/cached [get]
func (h *WeatherHandler) Cached(c *gin.Context) {
	snapshot, storedAt, err := h.weather.Cached(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, true)
	if !storedAt.IsZero() {
		middleware.SetMeta(c, "cached_at", storedAt.UTC().Format(time.RFC3339))
	}
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}
