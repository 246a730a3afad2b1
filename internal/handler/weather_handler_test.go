package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courses-api/internal/middleware"
	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

type fakeWeatherSrv struct {
	req      models.WeatherRequest
	snapshot *models.WeatherSnapshot
	storedAt time.Time
}

func (f *fakeWeatherSrv) RequestFetch(_ context.Context, req models.WeatherRequest) (string, error) {
	f.req = req
	return "job-1", nil
}

func (f *fakeWeatherSrv) Cached(context.Context) (*models.WeatherSnapshot, time.Time, error) {
	if f.snapshot == nil {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "cache empty")
	}
	return f.snapshot, f.storedAt, nil
}

func TestWeatherHandlerFetch(t *testing.T) {
	srv := &fakeWeatherSrv{}
	h := NewWeatherHandler(srv, nil)

	c, rec := newTestContext(http.MethodGet, "/weather/fetch?lat=52.5&lon=13.4", nil, nil)
	h.Fetch(c)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotNil(t, srv.req.Lat)
	assert.Equal(t, 52.5, *srv.req.Lat)
	assert.Equal(t, "job-1", decodeBody(t, rec)["data"].(map[string]interface{})["job_id"])

	for _, target := range []string{"/weather/fetch?lat=abc", "/weather/fetch?lat=120&lon=0"} {
		c, rec = newTestContext(http.MethodGet, target, nil, nil)
		h.Fetch(c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestWeatherHandlerCached(t *testing.T) {
	srv := &fakeWeatherSrv{}
	h := NewWeatherHandler(srv, nil)

	c, rec := newTestContext(http.MethodGet, "/weather/cached", nil, nil)
	h.Cached(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	srv.snapshot = &models.WeatherSnapshot{Temperature: 12.5, Time: "2026-10-19T10:00"}
	srv.storedAt = time.Date(2026, 10, 19, 10, 1, 0, 0, time.UTC)
	c, rec = newTestContext(http.MethodGet, "/weather/cached", nil, nil)
	middleware.WithResponseMeta()(c)
	h.Cached(c)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 12.5, body["data"].(map[string]interface{})["temperature"])
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "2026-10-19T10:01:00Z", meta["cached_at"])
}

func TestMetricsHandlerReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return assert.AnError }

	h := NewMetricsHandler(nil, map[string]ReadinessCheck{"database": ok})
	c, rec := newTestContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{"database": ok, "redis": down})
	c, rec = newTestContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := decodeBody(t, rec)["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
}
